package services

import (
	"context"
	"gatebot/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractURLs(t *testing.T) {
	urls := ExtractURLs("see https://youtu.be/abc and http://example.com/x?y=1, thanks")
	assert.Equal(t, []string{"https://youtu.be/abc", "http://example.com/x?y=1,"}, urls)
	assert.Empty(t, ExtractURLs("no links here"))
}

func TestIsMediaURL(t *testing.T) {
	assert.True(t, IsMediaURL("https://www.YouTube.com/watch?v=1"))
	assert.True(t, IsMediaURL("https://vm.tiktok.com/x"))
	assert.True(t, IsMediaURL("https://x.com/a/status/1"))
	assert.False(t, IsMediaURL("https://example.com/video"))
	assert.False(t, IsMediaURL("youtube.com/watch"))
}

func TestDetectPlatform(t *testing.T) {
	cases := map[string]string{
		"https://youtu.be/a":           "YouTube",
		"https://www.instagram.com/p/": "Instagram",
		"https://twitter.com/a":        "Twitter/X",
		"https://x.com/a":              "Twitter/X",
		"https://fb.me/a":              "Other",
	}
	for url, want := range cases {
		assert.Equal(t, want, DetectPlatform(url), url)
	}
}

func TestNormalizeChannel(t *testing.T) {
	cases := []struct {
		ref     string
		handle  string
		private bool
	}{
		{"https://t.me/follwnowo", "@follwnowo", false},
		{"@news", "@news", false},
		{"news", "@news", false},
		{"https://t.me/+enYm2HitF0BkNTZl", "+enYm2HitF0BkNTZl", true},
		{"https://t.me/joinchat/abc", "joinchat/abc", true},
	}
	for _, c := range cases {
		handle, private := NormalizeChannel(c.ref)
		assert.Equal(t, c.handle, handle, c.ref)
		assert.Equal(t, c.private, private, c.ref)
	}
}

func TestGating_RecordLinksCountsEveryURL(t *testing.T) {
	h := newHarness(t)
	h.touch(7)

	res, err := h.gating.RecordLinks(7, []string{"https://youtu.be/a", "https://example.com", "https://vimeo.com/1"})

	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	u, _ := h.users.Get(7)
	assert.Equal(t, 3, u.LinkCount)
	require.Len(t, u.AllLinks, 3)
	assert.Equal(t, "video", u.AllLinks[0].Type)
	assert.Equal(t, "other", u.AllLinks[1].Type)
}

func TestGating_NeedsVerificationAtThreshold(t *testing.T) {
	h := newHarness(t)
	h.touch(7)

	for i := 1; i < models.DefaultLinkThreshold; i++ {
		res, err := h.gating.RecordLink(7, "https://youtu.be/a")
		require.NoError(t, err)
		assert.False(t, res.NeedsVerification, "link %d", i)
	}
	res, err := h.gating.RecordLink(7, "https://youtu.be/a")
	require.NoError(t, err)
	assert.True(t, res.NeedsVerification)
	assert.Equal(t, models.DefaultLinkThreshold, res.Count)
	assert.Equal(t, models.DefaultLinkThreshold, res.Threshold)
}

func TestGating_NoVerificationWhenJoinedOrDisabled(t *testing.T) {
	h := newHarness(t)
	h.touch(7)
	h.touch(8)
	h.mutateSettings(func(s *models.AdminSettings) { s.ChannelJoinAfterLinks = 1 })
	require.NoError(t, h.store.Mutate(func(doc *models.Document) error {
		u, _ := doc.User(7)
		u.ChannelJoined = true
		return nil
	}))

	res, err := h.gating.RecordLink(7, "https://youtu.be/a")
	require.NoError(t, err)
	assert.False(t, res.NeedsVerification)

	h.mutateSettings(func(s *models.AdminSettings) { s.ChannelJoinRequired = false })
	res, err = h.gating.RecordLink(8, "https://youtu.be/a")
	require.NoError(t, err)
	assert.False(t, res.NeedsVerification)
}

func TestGating_HoldPendingLatestWins(t *testing.T) {
	h := newHarness(t)
	h.touch(7)
	ctx := context.Background()

	require.NoError(t, h.gating.HoldPending(ctx, 7, 7, "https://youtu.be/first", LinkResult{Count: 5}))
	require.NoError(t, h.gating.HoldPending(ctx, 7, 7, "https://youtu.be/second", LinkResult{Count: 6}))

	u, _ := h.users.Get(7)
	assert.Equal(t, "https://youtu.be/second", u.PendingDownloadURL)
	prompt := h.transport.LastSent()
	require.NotEmpty(t, prompt.Keyboard)
	last := prompt.Keyboard[len(prompt.Keyboard)-1][0]
	assert.Equal(t, CallbackVerify, last.Data)
}

func TestGating_VerifyPrivateChannelsAreSatisfied(t *testing.T) {
	h := newHarness(t)
	h.touch(7)
	h.mutateSettings(func(s *models.AdminSettings) {
		s.PromotionChannel = "https://t.me/+private"
		s.HelpChannel = ""
	})

	res, err := h.gating.Verify(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Empty(t, h.transport.Lookups)
}

func TestGating_VerifyPublicChannel(t *testing.T) {
	h := newHarness(t)
	h.touch(7)
	ctx := context.Background()

	res, err := h.gating.Verify(ctx, 7)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, []string{"@follwnowo"}, res.Missing)
	u, _ := h.users.Get(7)
	assert.False(t, u.ChannelJoined)

	for _, status := range []string{"member", "administrator", "creator"} {
		h.transport.Members["@follwnowo:7"] = status
		res, err = h.gating.Verify(ctx, 7)
		require.NoError(t, err)
		assert.True(t, res.Verified, status)
	}

	u, _ = h.users.Get(7)
	assert.True(t, u.ChannelJoined)
	assert.NotNil(t, u.LastChannelCheck)
}

func TestGating_VerifyTakesPendingOnce(t *testing.T) {
	h := newHarness(t)
	h.touch(7)
	h.transport.Members["@follwnowo:7"] = "member"
	require.NoError(t, h.gating.HoldPending(context.Background(), 7, 7, "https://youtu.be/a", LinkResult{}))

	first, err := h.gating.Verify(context.Background(), 7)
	require.NoError(t, err)
	second, err := h.gating.Verify(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "https://youtu.be/a", first.PendingURL)
	assert.Empty(t, second.PendingURL)
}
