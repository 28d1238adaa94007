package services

import (
	"context"
	"errors"
	"fmt"
	"gatebot/internal/interfaces"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"strconv"
	"strings"
	"time"
)

const (
	clearChatDepth       = 100
	clearChatMaxFailures = 20
	clearChatDoneTTL     = 30 * time.Second
)

type BotServiceInterface interface {
	Handle(ctx context.Context, ev models.Event)
}

// answer is the reply to a callback query. then runs after the query has
// been answered, so slow work never delays the client's spinner.
type answer struct {
	text  string
	alert bool
	then  func()
}

type Dispatcher struct {
	users      *UserService
	settings   *SettingsService
	moderation *Moderation
	gating     *Gating
	conv       *Conversations
	auth       *AuthGate
	flows      *Flows
	downloader *Downloader
	janitor    *Janitor
	expiry     *ExpiryManager
	views      *Views
	transport  interfaces.TransportInterface
	metrics    providers.MetricsProviderInterface
	logger     providers.Logger
}

func NewDispatcher(
	users *UserService,
	settings *SettingsService,
	moderation *Moderation,
	gating *Gating,
	conv *Conversations,
	auth *AuthGate,
	flows *Flows,
	downloader *Downloader,
	janitor *Janitor,
	expiry *ExpiryManager,
	views *Views,
	transport interfaces.TransportInterface,
	metrics providers.MetricsProviderInterface,
	logger providers.Logger,
) BotServiceInterface {
	return &Dispatcher{
		users:      users,
		settings:   settings,
		moderation: moderation,
		gating:     gating,
		conv:       conv,
		auth:       auth,
		flows:      flows,
		downloader: downloader,
		janitor:    janitor,
		expiry:     expiry,
		views:      views,
		transport:  transport,
		metrics:    metrics,
		logger:     logger,
	}
}

func (d *Dispatcher) Handle(ctx context.Context, ev models.Event) {
	if ev.IsCallback() {
		d.metrics.IncUpdates("callback")
		d.onCallback(ctx, ev)
		return
	}
	d.metrics.IncUpdates("message")
	d.onText(ctx, ev)
}

func (d *Dispatcher) onText(ctx context.Context, ev models.Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}
	user, err := d.users.Touch(ev)
	if err != nil {
		d.logger.Errorf(providers.TypeBot, "Unable to register user %d: %s", ev.UserID, err)
		return
	}

	if d.moderation.Enforce(ctx, ev) {
		return
	}
	if user.IsBanned() {
		d.janitor.Delete(ctx, ev.ChatID, ev.MessageID)
		d.send(ctx, ev.ChatID, textSuspended, nil)
		return
	}

	if text == "/cancel" {
		if !d.flows.Cancel(ctx, ev) {
			_, _ = d.janitor.SendTransient(ctx, ev.ChatID, textNothingToCancel, nil, warningLifetime)
		}
		return
	}
	if state, ok := d.conv.Consume(ev.UserID); ok {
		d.completeFlow(ctx, ev, state)
		return
	}

	if d.command(ctx, ev, user, text) {
		return
	}
	if urls := ExtractURLs(text); len(urls) > 0 {
		d.onLinks(ctx, ev, urls)
		return
	}

	if d.settings.Current().AnonymousTextRemoval {
		d.janitor.Delete(ctx, ev.ChatID, ev.MessageID)
		return
	}
	_, _ = d.janitor.SendTransient(ctx, ev.ChatID, textSendLink, nil, 0)
}

func (d *Dispatcher) completeFlow(ctx context.Context, ev models.Event, state models.ConversationState) {
	if state.Flow == models.FlowAdminPIN {
		d.auth.HandlePIN(ctx, ev, state)
		return
	}
	if !d.auth.IsElevated(ev.UserID) {
		d.janitor.Delete(ctx, ev.ChatID, ev.MessageID)
		if err := d.transport.EditText(ctx, state.ChatID, state.MessageID, textSessionExpired, nil); err != nil {
			d.logger.Warnf(providers.TypeBot, "Unable to update prompt %d: %s", state.MessageID, err)
		}
		return
	}
	d.flows.Complete(ctx, ev, state)
}

func (d *Dispatcher) command(ctx context.Context, ev models.Event, user *models.User, text string) bool {
	settings := d.settings.Current()
	switch {
	case text == "/start":
		d.logCommand(ev.UserID, "start")
		d.send(ctx, ev.ChatID, welcomeText(user.DisplayName()), mainMenu())
	case text == "/help" || text == MenuHelp:
		d.logCommand(ev.UserID, "help")
		help, kb := helpText(settings)
		_, _ = d.janitor.SendTransient(ctx, ev.ChatID, help, kb, 0)
	case text == "/stats" || text == MenuStats:
		d.logCommand(ev.UserID, "stats")
		_, _ = d.janitor.SendTransient(ctx, ev.ChatID, userStatsText(user), nil, 0)
	case text == MenuDownload:
		d.logCommand(ev.UserID, "download")
		_, _ = d.janitor.SendTransient(ctx, ev.ChatID, downloadGuideText(settings), nil, 0)
	case text == MenuSites:
		d.logCommand(ev.UserID, "supported_sites")
		_, _ = d.janitor.SendTransient(ctx, ev.ChatID, supportedSitesText(), nil, 0)
	case text == MenuClearChat:
		d.logCommand(ev.UserID, "clear_chat")
		prompt, kb := clearChatPrompt()
		d.send(ctx, ev.ChatID, prompt, kb)
	case d.auth.IsTrigger(text):
		d.auth.OnTriggerPhrase(ctx, ev)
	default:
		return false
	}
	return true
}

// onLinks counts every url, then acts on the first media url only.
func (d *Dispatcher) onLinks(ctx context.Context, ev models.Event, urls []string) {
	res, err := d.gating.RecordLinks(ev.UserID, urls)
	if err != nil {
		d.logger.Errorf(providers.TypeBot, "Unable to record links of user %d: %s", ev.UserID, err)
		return
	}
	for _, url := range urls {
		if !IsMediaURL(url) {
			continue
		}
		if res.NeedsVerification {
			if err := d.gating.HoldPending(ctx, ev.ChatID, ev.UserID, url, res); err != nil {
				d.logger.Errorf(providers.TypeBot, "Unable to hold download of user %d: %s", ev.UserID, err)
			}
			return
		}
		d.downloader.Run(ctx, ev.ChatID, ev.UserID, url)
		return
	}
	_, _ = d.janitor.SendTransient(ctx, ev.ChatID, textUnsupportedLink, nil, 0)
}

func (d *Dispatcher) onCallback(ctx context.Context, ev models.Event) {
	a := d.callback(ctx, ev)
	if err := d.transport.AnswerCallback(ctx, ev.CallbackID, a.text, a.alert); err != nil {
		d.logger.Warnf(providers.TypeBot, "Unable to answer callback %s: %s", ev.Data, err)
	}
	if a.then != nil {
		a.then()
	}
}

func (d *Dispatcher) callback(ctx context.Context, ev models.Event) answer {
	switch ev.Data {
	case CallbackVerify:
		return d.verify(ctx, ev)
	case CallbackClearConfirm:
		return answer{then: func() { d.clearChat(ctx, ev) }}
	case CallbackClearCancel:
		d.janitor.Delete(ctx, ev.ChatID, ev.MessageID)
		return answer{text: textClearCancelled}
	}

	if !d.auth.IsElevated(ev.UserID) {
		d.logger.Warnf(providers.TypeBot, "Admin callback %s refused for user %d", ev.Data, ev.UserID)
		return answer{text: textAccessDenied, alert: true}
	}
	return d.admin(ctx, ev)
}

func (d *Dispatcher) verify(ctx context.Context, ev models.Event) answer {
	res, err := d.gating.Verify(ctx, ev.UserID)
	if err != nil {
		d.logger.Errorf(providers.TypeBot, "Verification of user %d failed: %s", ev.UserID, err)
		return answer{text: "❌ Verification failed. Please try again.", alert: true}
	}
	if !res.Verified {
		return answer{text: joinMissingAlert(res.Missing), alert: true}
	}
	d.edit(ctx, ev, textVerified, nil)
	if res.PendingURL == "" {
		return answer{text: "✅ Verified"}
	}
	url := res.PendingURL
	return answer{text: "✅ Verified", then: func() { d.downloader.Run(ctx, ev.ChatID, ev.UserID, url) }}
}

// clearChat walks back from the confirmation prompt. Messages the bot may
// not delete count as failures; too many of them end the walk early.
func (d *Dispatcher) clearChat(ctx context.Context, ev models.Event) {
	deleted, failures := 0, 0
	for i := 1; i <= clearChatDepth && ev.MessageID-i > 0; i++ {
		if err := d.transport.DeleteMessage(ctx, ev.ChatID, ev.MessageID-i); err != nil {
			failures++
			if failures > clearChatMaxFailures {
				break
			}
			continue
		}
		deleted++
	}
	d.janitor.Delete(ctx, ev.ChatID, ev.MessageID)
	d.logger.Infof(providers.TypeBot, "Cleared %d messages in chat %d", deleted, ev.ChatID)
	_, _ = d.janitor.SendTransient(ctx, ev.ChatID, clearChatDone(deleted), nil, clearChatDoneTTL)
}

func (d *Dispatcher) admin(ctx context.Context, ev models.Event) answer {
	data := ev.Data
	if text, kb, ok := d.views.Render(data); ok {
		d.edit(ctx, ev, text, kb)
		return answer{}
	}

	switch data {
	case CallbackToggleAutoDelete:
		return d.flip(ctx, ev, ToggleAutoDelete, ViewMessageSettings)
	case CallbackToggleAnonymous:
		return d.flip(ctx, ev, ToggleAnonymousRemove, ViewMessageSettings)
	case CallbackToggleBannedWords:
		return d.flip(ctx, ev, ToggleBannedWords, ViewBannedWords)
	case CallbackToggleChannelJoin:
		return d.flip(ctx, ev, ToggleChannelJoin, ViewChannelSettings)
	case CallbackToggleAutoRemoval:
		return d.flip(ctx, ev, ToggleAutoRemoval, ViewFileManagement)
	case CallbackAddBannedWord:
		return d.startFlow(ctx, ev, models.FlowBannedWord, nil)
	case CallbackChangePromotion:
		return d.startFlow(ctx, ev, models.FlowPromotionChannel, nil)
	case CallbackChangeHelp:
		return d.startFlow(ctx, ev, models.FlowHelpChannel, nil)
	case CallbackChangePIN:
		return d.startFlow(ctx, ev, models.FlowNewPIN, nil)
	case CallbackCleanScheduled:
		n := d.expiry.CleanScheduled()
		return d.done(ctx, ev, nil, ViewFileManagement, fmt.Sprintf("Removed %d files", n))
	case CallbackConfirmRemoveAll:
		n, err := d.expiry.RemoveAll()
		return d.done(ctx, ev, err, ViewFileManagement, fmt.Sprintf("Removed %d files", n))
	case CallbackExit:
		d.auth.Revoke(ev.UserID)
		d.janitor.Delete(ctx, ev.ChatID, ev.MessageID)
		return answer{text: "👋 Logged out"}
	}

	switch {
	case strings.HasPrefix(data, PrefixDeletionTime):
		n, err := suffixInt(data, PrefixDeletionTime)
		if err == nil {
			err = d.settings.SetDeletionTime(n)
		}
		return d.done(ctx, ev, err, ViewMessageSettings, "Deletion time updated")
	case strings.HasPrefix(data, PrefixRemoveBannedWord):
		err := d.settings.RemoveBannedWord(strings.TrimPrefix(data, PrefixRemoveBannedWord))
		return d.done(ctx, ev, err, ViewBannedWords, "Word removed")
	case strings.HasPrefix(data, PrefixLinkThreshold):
		n, err := suffixInt(data, PrefixLinkThreshold)
		if err == nil {
			err = d.settings.SetLinkThreshold(n)
		}
		return d.done(ctx, ev, err, ViewChannelSettings, "Threshold updated")
	case strings.HasPrefix(data, PrefixRemovalTime):
		n, err := suffixInt(data, PrefixRemovalTime)
		if err == nil {
			err = d.settings.SetBaseRemovalTime(n)
		}
		return d.done(ctx, ev, err, ViewFileManagement, "Removal time updated")
	case strings.HasPrefix(data, PrefixMaxFileSize):
		n, err := suffixInt(data, PrefixMaxFileSize)
		if err == nil {
			err = d.settings.SetMaxFileSize(n)
		}
		return d.done(ctx, ev, err, ViewBotSettings, "File size limit updated")
	case strings.HasPrefix(data, PrefixUnbanUser):
		return d.onUser(ctx, ev, PrefixUnbanUser, d.users.Unban, "User unbanned")
	case strings.HasPrefix(data, PrefixBanUser):
		return d.onUser(ctx, ev, PrefixBanUser, d.users.Ban, "User banned")
	case strings.HasPrefix(data, PrefixResetUserStats):
		return d.onUser(ctx, ev, PrefixResetUserStats, d.users.ResetStats, "Stats reset")
	case strings.HasPrefix(data, PrefixDeleteUser):
		id, err := suffixID(data, PrefixDeleteUser)
		if err == nil {
			err = d.users.Delete(id)
		}
		return d.done(ctx, ev, err, ViewUserList, "User deleted")
	case strings.HasPrefix(data, PrefixMessageUser):
		id, err := suffixID(data, PrefixMessageUser)
		if err != nil {
			return d.done(ctx, ev, err, "", "")
		}
		target, ok := d.users.Get(id)
		if !ok {
			return answer{text: textUserMissing, alert: true}
		}
		return d.startFlow(ctx, ev, models.FlowAdminBroadcast, target)
	}
	return answer{text: textUnknownAction}
}

func (d *Dispatcher) flip(ctx context.Context, ev models.Event, t Toggle, view string) answer {
	on, err := d.settings.Flip(t)
	return d.done(ctx, ev, err, view, "Now "+onOff(on))
}

func (d *Dispatcher) onUser(ctx context.Context, ev models.Event, prefix string, fn func(int64) error, ok string) answer {
	id, err := suffixID(ev.Data, prefix)
	if err == nil {
		err = fn(id)
	}
	return d.done(ctx, ev, err, PrefixUserDetails+models.UserKey(id), ok)
}

func (d *Dispatcher) startFlow(ctx context.Context, ev models.Event, flow models.FlowTag, target *models.User) answer {
	err := d.flows.Start(ctx, ev, flow, target)
	switch {
	case errors.Is(err, ErrFlowActive):
		return answer{text: textFlowBusy, alert: true}
	case err != nil:
		d.logger.Warnf(providers.TypeBot, "Unable to start %s for user %d: %s", flow, ev.UserID, err)
		return answer{text: "Action failed", alert: true}
	}
	return answer{}
}

// done re-renders view after a successful change, or reports err.
func (d *Dispatcher) done(ctx context.Context, ev models.Event, err error, view, ok string) answer {
	if err != nil {
		d.logger.Warnf(providers.TypeBot, "Admin action %s failed: %s", ev.Data, err)
		return answer{text: callbackErrorText(err), alert: true}
	}
	if text, kb, found := d.views.Render(view); found {
		d.edit(ctx, ev, text, kb)
	}
	return answer{text: ok}
}

func (d *Dispatcher) edit(ctx context.Context, ev models.Event, text string, kb models.Keyboard) {
	if err := d.transport.EditText(ctx, ev.ChatID, ev.MessageID, text, kb); err != nil {
		d.logger.Warnf(providers.TypeBot, "Unable to edit message %d in chat %d: %s", ev.MessageID, ev.ChatID, err)
	}
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, kb models.Keyboard) {
	if _, err := d.transport.SendText(ctx, chatID, text, kb); err != nil {
		d.logger.Warnf(providers.TypeBot, "Unable to send message to chat %d: %s", chatID, err)
	}
}

func (d *Dispatcher) logCommand(userID int64, command string) {
	if err := d.users.LogCommand(userID, command); err != nil {
		d.logger.Warnf(providers.TypeBot, "Unable to log %s for user %d: %s", command, userID, err)
	}
}

func suffixInt(data, prefix string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
	if err != nil {
		return 0, ErrInvalidSetting
	}
	return n, nil
}

func suffixID(data, prefix string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil {
		return 0, ErrUserNotFound
	}
	return id, nil
}

func callbackErrorText(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return textUserMissing
	case errors.Is(err, ErrInvalidSetting):
		return "Invalid value"
	case errors.Is(err, ErrUnknownWord):
		return "Word not found"
	default:
		return "Action failed"
	}
}
