package services

import (
	"context"
	"fmt"
	"gatebot/internal/interfaces"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/scheduler"
	"gatebot/internal/store"
	"gatebot/internal/structures"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	usersPerPage       = 8
	bannedWordsOnPanel = 20
	removalsOnPanel    = 10
)

// Views renders the admin panel screens. A view is addressed by the same
// string as the callback that opens it.
type Views struct {
	config    *structures.Config
	store     store.StateStoreInterface
	users     *UserService
	expiry    *ExpiryManager
	transport interfaces.TransportInterface
	deferred  scheduler.DeferredSchedulerInterface
	logger    providers.Logger
}

func NewViews(conf *structures.Config, stateStore store.StateStoreInterface, users *UserService, expiry *ExpiryManager, transport interfaces.TransportInterface, deferred scheduler.DeferredSchedulerInterface, logger providers.Logger) *Views {
	v := &Views{
		config:    conf,
		store:     stateStore,
		users:     users,
		expiry:    expiry,
		transport: transport,
		deferred:  deferred,
		logger:    logger,
	}
	deferred.Register(scheduler.KindViewReturn, v.handle)
	return v
}

// Show replaces the message with the rendered view.
func (v *Views) Show(ctx context.Context, chatID int64, messageID int, view string) error {
	text, kb, ok := v.Render(view)
	if !ok {
		return fmt.Errorf("unknown view %q", view)
	}
	return v.transport.EditText(ctx, chatID, messageID, text, kb)
}

// ReturnLater shows view on the message once delay has passed.
func (v *Views) ReturnLater(chatID int64, messageID int, view string, delay time.Duration) {
	v.deferred.Schedule(scheduler.ViewKey(chatID, messageID), scheduler.KindViewReturn, delay, scheduler.Payload{
		ChatID:    chatID,
		MessageID: messageID,
		View:      view,
	})
}

func (v *Views) Render(view string) (string, models.Keyboard, bool) {
	switch {
	case view == ViewDashboard || view == ViewRefresh:
		text, kb := v.dashboard()
		return text, kb, true
	case view == ViewMessageSettings:
		text, kb := v.messageSettings()
		return text, kb, true
	case view == ViewBannedWords:
		text, kb := v.bannedWords()
		return text, kb, true
	case view == ViewChannelSettings:
		text, kb := v.channelSettings()
		return text, kb, true
	case view == ViewUserList:
		text, kb := v.userList(1)
		return text, kb, true
	case strings.HasPrefix(view, PrefixUserListPage):
		page, err := strconv.Atoi(strings.TrimPrefix(view, PrefixUserListPage))
		if err != nil {
			return "", nil, false
		}
		text, kb := v.userList(page)
		return text, kb, true
	case strings.HasPrefix(view, PrefixUserDetails):
		id, err := strconv.ParseInt(strings.TrimPrefix(view, PrefixUserDetails), 10, 64)
		if err != nil {
			return "", nil, false
		}
		text, kb := v.userDetails(id)
		return text, kb, true
	case view == ViewLinkAnalytics:
		text, kb := v.linkAnalytics()
		return text, kb, true
	case view == ViewBotSettings:
		text, kb := v.botSettings()
		return text, kb, true
	case view == ViewFileManagement:
		text, kb := v.fileManagement()
		return text, kb, true
	case view == ViewRemoveAll:
		text, kb := v.removeAllConfirm()
		return text, kb, true
	}
	return "", nil, false
}

func (v *Views) handle(ctx context.Context, task scheduler.Task) {
	p := task.Payload
	if err := v.Show(ctx, p.ChatID, p.MessageID, p.View); err != nil {
		v.logger.Warnf(providers.TypeScheduler, "Unable to return message %d to %s: %s", p.MessageID, p.View, err)
	}
}

func (v *Views) dashboard() (string, models.Keyboard) {
	doc := v.store.Get()
	active, banned := 0, 0
	for _, u := range doc.Users {
		if u.IsBanned() {
			banned++
		} else {
			active++
		}
	}
	text := fmt.Sprintf("🔐 Admin Dashboard\n\n"+
		"👥 Users: %d (active %d, banned %d)\n"+
		"📥 Downloads: %d\n"+
		"💾 Data served: %.1f MB\n"+
		"🗂 Scheduled removals: %d\n"+
		"🕒 Updated: %s",
		doc.BotStats.TotalUsers, active, banned,
		doc.BotStats.TotalDownloads,
		doc.BotStats.TotalMBDownloaded,
		len(v.expiry.Scheduled()),
		doc.BotStats.LastUpdated.Format(time.DateTime))
	kb := models.Keyboard{
		models.Row(models.CallbackButton("💬 Messages", ViewMessageSettings), models.CallbackButton("🚫 Banned Words", ViewBannedWords)),
		models.Row(models.CallbackButton("📢 Channels", ViewChannelSettings), models.CallbackButton("👥 Users", ViewUserList)),
		models.Row(models.CallbackButton("📊 Link Analytics", ViewLinkAnalytics), models.CallbackButton("📁 Files", ViewFileManagement)),
		models.Row(models.CallbackButton("⚙️ Bot Settings", ViewBotSettings), models.CallbackButton("🔑 Change PIN", CallbackChangePIN)),
		models.Row(models.CallbackButton("🔄 Refresh", ViewRefresh), models.CallbackButton("🚪 Exit", CallbackExit)),
	}
	return text, kb
}

func (v *Views) messageSettings() (string, models.Keyboard) {
	s := v.store.Settings()
	text := fmt.Sprintf("💬 Message Settings\n\n"+
		"🗑 Auto delete: %s\n"+
		"⏱ Deletion time: %s\n"+
		"🙊 Remove plain text: %s",
		onOff(s.AutoDeleteEnabled),
		time.Duration(s.MessageDeletionTime)*time.Second,
		onOff(s.AnonymousTextRemoval))
	kb := models.Keyboard{
		models.Row(
			models.CallbackButton("1m", PrefixDeletionTime+"60"),
			models.CallbackButton("5m", PrefixDeletionTime+"300"),
			models.CallbackButton("10m", PrefixDeletionTime+"600"),
			models.CallbackButton("30m", PrefixDeletionTime+"1800"),
		),
		models.Row(models.CallbackButton("🗑 Toggle auto delete", CallbackToggleAutoDelete)),
		models.Row(models.CallbackButton("🙊 Toggle plain text removal", CallbackToggleAnonymous)),
		models.Row(models.CallbackButton("🔙 Back", ViewDashboard)),
	}
	return text, kb
}

func (v *Views) bannedWords() (string, models.Keyboard) {
	s := v.store.Settings()
	var b strings.Builder
	fmt.Fprintf(&b, "🚫 Banned Words (%s)\n\n", onOff(s.BannedWordsEnabled))
	if len(s.BannedWords) == 0 {
		b.WriteString("No banned words yet.")
	}
	kb := models.Keyboard{}
	for i, w := range s.BannedWords {
		fmt.Fprintf(&b, "• %s\n", w)
		if i < bannedWordsOnPanel {
			kb = append(kb, models.Row(models.CallbackButton("❌ "+w, PrefixRemoveBannedWord+w)))
		}
	}
	kb = append(kb,
		models.Row(models.CallbackButton("➕ Add word", CallbackAddBannedWord), models.CallbackButton("🔁 Toggle filter", CallbackToggleBannedWords)),
		models.Row(models.CallbackButton("🔙 Back", ViewDashboard)),
	)
	return b.String(), kb
}

func (v *Views) channelSettings() (string, models.Keyboard) {
	s := v.store.Settings()
	text := fmt.Sprintf("📢 Channel Settings\n\n"+
		"🔒 Join required: %s\n"+
		"🔗 After links: %d\n"+
		"📢 Promotion: %s\n"+
		"💬 Help: %s",
		onOff(s.ChannelJoinRequired), s.ChannelJoinAfterLinks,
		orNone(s.PromotionChannel), orNone(s.HelpChannel))
	kb := models.Keyboard{
		models.Row(models.CallbackButton("🔁 Toggle requirement", CallbackToggleChannelJoin)),
		models.Row(
			models.CallbackButton("3", PrefixLinkThreshold+"3"),
			models.CallbackButton("5", PrefixLinkThreshold+"5"),
			models.CallbackButton("10", PrefixLinkThreshold+"10"),
			models.CallbackButton("20", PrefixLinkThreshold+"20"),
		),
		models.Row(models.CallbackButton("📢 Change promotion", CallbackChangePromotion), models.CallbackButton("💬 Change help", CallbackChangeHelp)),
		models.Row(models.CallbackButton("🔙 Back", ViewDashboard)),
	}
	return text, kb
}

func (v *Views) userList(page int) (string, models.Keyboard) {
	users, page, pages := v.users.Page(page, usersPerPage)
	text := fmt.Sprintf("👥 Users (page %d/%d)", page, pages)
	if len(users) == 0 {
		text += "\n\nNo users yet."
	}
	kb := models.Keyboard{}
	for _, u := range users {
		label := fmt.Sprintf("%s · %d 📥", u.DisplayName(), u.TotalDownloads)
		if u.IsBanned() {
			label = "🚫 " + label
		}
		kb = append(kb, models.Row(models.CallbackButton(label, PrefixUserDetails+models.UserKey(u.UserID))))
	}
	var nav []models.Button
	if page > 1 {
		nav = append(nav, models.CallbackButton("⬅️", PrefixUserListPage+strconv.Itoa(page-1)))
	}
	if page < pages {
		nav = append(nav, models.CallbackButton("➡️", PrefixUserListPage+strconv.Itoa(page+1)))
	}
	if len(nav) > 0 {
		kb = append(kb, nav)
	}
	kb = append(kb, models.Row(models.CallbackButton("🔙 Back", ViewDashboard)))
	return text, kb
}

func (v *Views) userDetails(id int64) (string, models.Keyboard) {
	u, ok := v.store.User(id)
	if !ok {
		return textUserMissing, backTo("🔙 Back to users", ViewUserList)
	}
	key := models.UserKey(id)
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n\n"+
		"🆔 %d\n"+
		"📛 %s\n"+
		"📌 Status: %s\n"+
		"📅 Joined: %s\n"+
		"🕒 Last active: %s\n"+
		"📥 Downloads: %d (%.1f MB)\n"+
		"🔗 Links: %d\n"+
		"📢 Channel joined: %s\n",
		u.DisplayName(), u.UserID, atHandle(u.Username), u.Status,
		u.JoinDate.Format(time.DateOnly), u.LastActivity.Format(time.DateTime),
		u.TotalDownloads, u.TotalMBDownloaded, u.LinkCount, yesNo(u.ChannelJoined))
	if u.PendingDownloadURL != "" {
		b.WriteString("⏸ Pending download waiting for verification\n")
	}

	ban := models.CallbackButton("🚫 Ban", PrefixBanUser+key)
	if u.IsBanned() {
		ban = models.CallbackButton("✅ Unban", PrefixUnbanUser+key)
	}
	kb := models.Keyboard{
		models.Row(ban, models.CallbackButton("💬 Send Message", PrefixMessageUser+key)),
		models.Row(models.CallbackButton("🗑 Delete", PrefixDeleteUser+key), models.CallbackButton("📊 Reset Stats", PrefixResetUserStats+key)),
		models.Row(models.CallbackButton("🔙 Back to users", ViewUserList)),
		models.Row(models.CallbackButton("🏠 Main panel", ViewDashboard)),
	}
	return b.String(), kb
}

func (v *Views) linkAnalytics() (string, models.Keyboard) {
	doc := v.store.Get()
	total, video := 0, 0
	platforms := map[string]int{}
	for _, u := range doc.Users {
		for _, l := range u.AllLinks {
			total++
			if l.Type == "video" {
				video++
				platforms[DetectPlatform(l.URL)]++
			}
		}
	}
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if platforms[names[i]] == platforms[names[j]] {
			return names[i] < names[j]
		}
		return platforms[names[i]] > platforms[names[j]]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Link Analytics\n\n🔗 Total links: %d\n🎬 Video links: %d\n🌐 Other links: %d\n", total, video, total-video)
	if len(names) > 0 {
		b.WriteString("\nBy platform:\n")
		for _, name := range names {
			fmt.Fprintf(&b, "• %s: %d\n", name, platforms[name])
		}
	}
	return b.String(), models.Keyboard{
		models.Row(models.CallbackButton("🔄 Refresh", ViewLinkAnalytics)),
		models.Row(models.CallbackButton("🔙 Back", ViewDashboard)),
	}
}

func (v *Views) botSettings() (string, models.Keyboard) {
	doc := v.store.Get()
	s := doc.AdminSettings
	text := fmt.Sprintf("⚙️ Bot Settings\n\n"+
		"📦 Max file size: %d MB (hard limit %d MB)\n"+
		"🗑 Auto removal: %s\n"+
		"⏱ Large file removal: %d min\n"+
		"🚀 Running since: %s",
		s.MaxFileSizeMB, v.config.Downloads.MaxFileSizeMB,
		onOff(s.AutoRemovalEnabled), s.BaseRemovalTimeMinutes,
		doc.BotStats.StartDate.Format(time.DateOnly))
	kb := models.Keyboard{
		models.Row(
			models.CallbackButton("50 MB", PrefixMaxFileSize+"50"),
			models.CallbackButton("100 MB", PrefixMaxFileSize+"100"),
			models.CallbackButton("200 MB", PrefixMaxFileSize+"200"),
		),
		models.Row(models.CallbackButton("🔄 Refresh", ViewBotSettings)),
		models.Row(models.CallbackButton("🔙 Back", ViewDashboard)),
	}
	return text, kb
}

func (v *Views) fileManagement() (string, models.Keyboard) {
	s := v.store.Settings()
	removals := v.expiry.Scheduled()
	files := 0
	if entries, err := os.ReadDir(v.config.Downloads.Dir); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				files++
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📁 File Management\n\n"+
		"🗑 Auto removal: %s\n"+
		"⏱ Large file removal: %d min\n"+
		"📂 Files on disk: %d\n"+
		"🗂 Scheduled removals: %d\n",
		onOff(s.AutoRemovalEnabled), s.BaseRemovalTimeMinutes, files, len(removals))
	for i, r := range removals {
		if i == removalsOnPanel {
			fmt.Fprintf(&b, "… and %d more\n", len(removals)-removalsOnPanel)
			break
		}
		fmt.Fprintf(&b, "• %s (%.1f MB) in %s\n", filepath.Base(r.Path), r.SizeMB, r.Remaining)
	}
	kb := models.Keyboard{
		models.Row(models.CallbackButton("🔁 Toggle auto removal", CallbackToggleAutoRemoval)),
		models.Row(
			models.CallbackButton("15m", PrefixRemovalTime+"15"),
			models.CallbackButton("30m", PrefixRemovalTime+"30"),
			models.CallbackButton("60m", PrefixRemovalTime+"60"),
		),
		models.Row(models.CallbackButton("🧽 Clean scheduled now", CallbackCleanScheduled)),
		models.Row(models.CallbackButton("💣 Remove all downloads", ViewRemoveAll)),
		models.Row(models.CallbackButton("🔙 Back", ViewDashboard)),
	}
	return b.String(), kb
}

func (v *Views) removeAllConfirm() (string, models.Keyboard) {
	return "💣 Remove every file in the downloads directory? Pending removals are cancelled.", models.Keyboard{
		models.Row(
			models.CallbackButton("✅ Remove all", CallbackConfirmRemoveAll),
			models.CallbackButton("❌ Cancel", ViewFileManagement),
		),
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func atHandle(username string) string {
	if username == "" {
		return "no username"
	}
	return "@" + username
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
