package services

import (
	"fmt"
	"gatebot/internal/models"
	"strings"
)

const (
	MenuDownload  = "📥 Download Video"
	MenuStats     = "📊 My Stats"
	MenuHelp      = "ℹ️ Help"
	MenuSites     = "🔗 Supported Sites"
	MenuClearChat = "🧹 Clear Chat"
)

const (
	textBannedWordWarning = "⚠️ Your message was removed because it contains a banned word."
	textSuspended         = "🚫 Account Suspended\n\nYour account has been suspended by the administrator. Contact support if you believe this is an error."
	textPINPrompt         = "🔐 Enter the admin PIN:"
	textPINDenied         = "❌ Access denied. Invalid PIN."
	textAccessDenied      = "🚫 Admin access required"
	textSessionExpired    = "⌛ Admin session expired. Send the trigger phrase again."
	textFlowBusy          = "⏳ Finish or /cancel the current action first."
	textFlowCancelled     = "❎ Cancelled."
	textNothingToCancel   = "Nothing to cancel."
	textProcessing        = "⏳ Processing your link..."
	textProbeFailed       = "❌ Could not read that link. Check the URL and try again."
	textFetchFailed       = "❌ Download failed. The file may be too large or unavailable."
	textDeliveryFailed    = "❌ Could not deliver the video. Please try again."
	textUnsupportedLink   = "❌ That link is not supported. Tap 🔗 Supported Sites for the list."
	textSendLink          = "📎 Send me a video link to download it."
	textClearConfirm      = "🧹 Delete the recent messages in this chat?"
	textClearCancelled    = "Clear chat cancelled."
	textVerified          = "✅ Membership verified. Thank you!"
	textUnknownAction     = "Unknown action"
	textUserMissing       = "User not found"
	textBroadcastEmpty    = "❌ Message is empty. Nothing was sent."
)

func mainMenu() models.Keyboard {
	return models.Keyboard{
		models.Row(models.TextButton(MenuDownload), models.TextButton(MenuStats)),
		models.Row(models.TextButton(MenuHelp), models.TextButton(MenuSites)),
		models.Row(models.TextButton(MenuClearChat)),
	}
}

func backTo(text, view string) models.Keyboard {
	return models.Keyboard{models.Row(models.CallbackButton(text, view))}
}

func welcomeText(name string) string {
	return fmt.Sprintf("🎬 Welcome, %s!\n\n"+
		"Send me a video link from YouTube, TikTok, Instagram, Twitter/X, Facebook, Reddit, Vimeo, Dailymotion or Twitch and I will send the file back.\n\n"+
		"Use the menu below for your stats and help.", name)
}

func downloadGuideText(settings models.AdminSettings) string {
	return fmt.Sprintf("📥 How to download\n\n"+
		"1. Copy the video link.\n"+
		"2. Paste it here.\n"+
		"3. Wait for the file.\n\n"+
		"Files up to %d MB are supported.", settings.MaxFileSizeMB)
}

func helpText(settings models.AdminSettings) (string, models.Keyboard) {
	text := "ℹ️ Help\n\nSend a video link to download it. Use /cancel to abort a pending action."
	var kb models.Keyboard
	if settings.HelpChannel != "" {
		kb = models.Keyboard{models.Row(models.LinkButton("💬 Support", settings.HelpChannel))}
	}
	return text, kb
}

func supportedSitesText() string {
	var b strings.Builder
	b.WriteString("🔗 Supported sites\n\n")
	for _, p := range platformDomains {
		b.WriteString("• ")
		b.WriteString(p.name)
		b.WriteString("\n")
	}
	return b.String()
}

func userStatsText(u *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Your stats\n\n"+
		"📥 Downloads: %d\n"+
		"💾 Data: %.1f MB\n"+
		"🔗 Links shared: %d\n"+
		"📅 Member since: %s\n",
		u.TotalDownloads, u.TotalMBDownloaded, u.LinkCount, u.JoinDate.Format("2006-01-02"))
	recent := lastDownloads(u.Downloads, 3)
	if len(recent) > 0 {
		b.WriteString("\nRecent:\n")
		for _, d := range recent {
			fmt.Fprintf(&b, "• %s (%s, %.1f MB)\n", d.Title, d.Platform, d.FileSizeMB)
		}
	}
	return b.String()
}

func clearChatPrompt() (string, models.Keyboard) {
	return textClearConfirm, models.Keyboard{models.Row(
		models.CallbackButton("✅ Yes, clear", CallbackClearConfirm),
		models.CallbackButton("❌ No", CallbackClearCancel),
	)}
}

func clearChatDone(deleted int) string {
	return fmt.Sprintf("🧹 Chat cleared. %d messages deleted.", deleted)
}

func joinPromptView(settings models.AdminSettings, res LinkResult) (string, models.Keyboard) {
	text := fmt.Sprintf("📢 You have shared %d links. Join our channels to keep downloading, then tap Verify.\n\n"+
		"Your last video link is saved and will start right after verification.", res.Count)
	kb := models.Keyboard{}
	if settings.PromotionChannel != "" {
		kb = append(kb, models.Row(models.LinkButton("📢 Join Channel", channelLink(settings.PromotionChannel))))
	}
	if settings.HelpChannel != "" {
		kb = append(kb, models.Row(models.LinkButton("💬 Join Group", channelLink(settings.HelpChannel))))
	}
	kb = append(kb, models.Row(models.CallbackButton("✅ Verify", CallbackVerify)))
	return text, kb
}

func joinMissingAlert(missing []string) string {
	return "Please join: " + strings.Join(missing, ", ")
}

func downloadingText(info models.MediaInfo) string {
	return fmt.Sprintf("📥 Downloading: %s\n👤 %s", info.Title, info.Uploader)
}

func videoCaption(a models.Artifact, minutes int, scheduled bool) string {
	caption := fmt.Sprintf("🎬 %s\n📦 %.1f MB", a.Title, a.SizeMB())
	if scheduled {
		caption += fmt.Sprintf("\n⏰ The server copy is removed in %d minutes.", minutes)
	}
	return caption
}

func downloadDoneText(a models.Artifact) string {
	return fmt.Sprintf("✅ Download complete: %s (%.1f MB)", a.Title, a.SizeMB())
}

// channelLink turns an @handle into a URL usable on a link button.
func channelLink(ref string) string {
	if strings.HasPrefix(ref, "@") {
		return "https://t.me/" + strings.TrimPrefix(ref, "@")
	}
	return ref
}

func lastDownloads(records []models.DownloadRecord, n int) []models.DownloadRecord {
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
