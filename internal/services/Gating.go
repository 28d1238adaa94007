package services

import (
	"context"
	"gatebot/internal/interfaces"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/store"
	"regexp"
	"strings"
	"time"
)

var urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)

var mediaDomains = []string{
	"youtube.com", "youtu.be", "tiktok.com", "instagram.com",
	"twitter.com", "x.com", "facebook.com", "reddit.com",
	"vimeo.com", "dailymotion.com", "twitch.tv",
}

var platformDomains = []struct {
	name    string
	domains []string
}{
	{"YouTube", []string{"youtube.com", "youtu.be"}},
	{"TikTok", []string{"tiktok.com"}},
	{"Instagram", []string{"instagram.com"}},
	{"Twitter/X", []string{"twitter.com", "x.com"}},
	{"Facebook", []string{"facebook.com"}},
	{"Reddit", []string{"reddit.com"}},
	{"Vimeo", []string{"vimeo.com"}},
	{"Dailymotion", []string{"dailymotion.com"}},
	{"Twitch", []string{"twitch.tv"}},
}

var acceptedMemberStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

func IsMediaURL(url string) bool {
	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "http") {
		return false
	}
	for _, d := range mediaDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

func DetectPlatform(url string) string {
	lower := strings.ToLower(url)
	for _, p := range platformDomains {
		for _, d := range p.domains {
			if strings.Contains(lower, d) {
				return p.name
			}
		}
	}
	return "Other"
}

// NormalizeChannel turns a configured reference into the handle used for
// membership lookups. Invite links and "+" references are private: the
// bot cannot query them and they count as satisfied.
func NormalizeChannel(ref string) (handle string, private bool) {
	name := strings.TrimSpace(ref)
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "t.me/")
	name = strings.TrimPrefix(name, "@")
	if strings.HasPrefix(name, "+") || strings.HasPrefix(name, "joinchat/") {
		return name, true
	}
	return "@" + name, false
}

type LinkResult struct {
	Count             int
	Threshold         int
	NeedsVerification bool
}

type VerifyResult struct {
	Verified   bool
	Missing    []string
	PendingURL string
}

// Gating counts posted links and holds downloads back until the user has
// joined the configured channels.
type Gating struct {
	store     store.StateStoreInterface
	transport interfaces.TransportInterface
	metrics   providers.MetricsProviderInterface
	logger    providers.Logger
	now       func() time.Time
}

func NewGating(stateStore store.StateStoreInterface, transport interfaces.TransportInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) *Gating {
	return &Gating{
		store:     stateStore,
		transport: transport,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordLinks counts every url against the user in one commit.
func (g *Gating) RecordLinks(userID int64, urls []string) (LinkResult, error) {
	var res LinkResult
	err := g.store.Mutate(func(doc *models.Document) error {
		u, ok := doc.User(userID)
		if !ok {
			return ErrUserNotFound
		}
		now := g.now()
		for _, url := range urls {
			kind := "other"
			if IsMediaURL(url) {
				kind = "video"
			}
			u.AllLinks = append(u.AllLinks, models.LinkRecord{URL: url, Type: kind, Timestamp: now})
			u.LinkCount++
		}
		u.LastActivity = now

		settings := doc.AdminSettings
		res = LinkResult{
			Count:     u.LinkCount,
			Threshold: settings.ChannelJoinAfterLinks,
			NeedsVerification: settings.ChannelJoinRequired &&
				u.LinkCount >= settings.ChannelJoinAfterLinks &&
				!u.ChannelJoined,
		}
		return nil
	})
	if err == nil {
		g.metrics.AddLinksRecorded(len(urls))
	}
	return res, err
}

func (g *Gating) RecordLink(userID int64, url string) (LinkResult, error) {
	return g.RecordLinks(userID, []string{url})
}

// HoldPending parks url as the user's pending download, replacing any
// earlier one, and asks the user to join.
func (g *Gating) HoldPending(ctx context.Context, chatID, userID int64, url string, res LinkResult) error {
	err := g.store.Mutate(func(doc *models.Document) error {
		u, ok := doc.User(userID)
		if !ok {
			return ErrUserNotFound
		}
		u.PendingDownloadURL = url
		return nil
	})
	if err != nil {
		return err
	}

	text, kb := joinPromptView(g.store.Settings(), res)
	if _, err := g.transport.SendText(ctx, chatID, text, kb); err != nil {
		g.logger.Warnf(providers.TypeBot, "Unable to send join prompt to chat %d: %s", chatID, err)
	}
	return nil
}

// Verify checks every configured channel. Membership lookups run before
// the commit so no lock is held across a remote call. On success the
// pending url is taken and returned for a single replay.
func (g *Gating) Verify(ctx context.Context, userID int64) (VerifyResult, error) {
	var missing []string
	for _, ref := range g.store.Settings().Channels() {
		handle, private := NormalizeChannel(ref)
		if private {
			continue
		}
		status, err := g.transport.GetChatMember(ctx, handle, userID)
		if err != nil {
			g.logger.Warnf(providers.TypeBot, "Membership lookup of user %d in %s failed: %s", userID, handle, err)
			missing = append(missing, handle)
			continue
		}
		if !acceptedMemberStatuses[status] {
			missing = append(missing, handle)
		}
	}

	if len(missing) > 0 {
		g.metrics.IncVerifications("missing")
		return VerifyResult{Missing: missing}, nil
	}

	res := VerifyResult{Verified: true}
	err := g.store.Mutate(func(doc *models.Document) error {
		u, ok := doc.User(userID)
		if !ok {
			return ErrUserNotFound
		}
		now := g.now()
		u.ChannelJoined = true
		u.LastChannelCheck = &now
		res.PendingURL = u.PendingDownloadURL
		u.PendingDownloadURL = ""
		return nil
	})
	if err != nil {
		return VerifyResult{}, err
	}
	g.metrics.IncVerifications("verified")
	g.logger.Infof(providers.TypeBot, "User %d verified channel membership", userID)
	return res, nil
}
