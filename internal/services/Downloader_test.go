package services

import (
	"context"
	"errors"
	"gatebot/internal/models"
	"gatebot/internal/scheduler"
	"gatebot/internal/testutil"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type downloadCounter struct {
	*testutil.MockMetrics
	results []string
}

func (m *downloadCounter) IncDownloads(result string) { m.results = append(m.results, result) }

func TestDownloader_CapIsSmallerLimit(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, int64(200*mb), h.downloader.CapBytes())

	h.mutateSettings(func(s *models.AdminSettings) { s.MaxFileSizeMB = 50 })
	assert.Equal(t, int64(50*mb), h.downloader.CapBytes())

	h.mutateSettings(func(s *models.AdminSettings) { s.MaxFileSizeMB = 500 })
	assert.Equal(t, int64(200*mb), h.downloader.CapBytes())
}

func TestDownloader_Success(t *testing.T) {
	h := newHarness(t)
	h.touch(7)
	h.artifact(40 * mb)
	metrics := &downloadCounter{MockMetrics: testutil.NewMockMetrics()}
	h.downloader.metrics = metrics

	h.downloader.Run(context.Background(), 7, 7, "https://youtu.be/abc")

	require.Equal(t, []int64{200 * mb}, h.fetcher.Caps)
	videos := h.transport.Videos()
	require.Len(t, videos, 1)

	task, ok := h.deferred.Task(scheduler.FileKey(videos[0]))
	require.True(t, ok, "expiry is scheduled for the delivered file")
	assert.Equal(t, 20*time.Minute, task.Delay)

	var caption string
	for _, s := range h.transport.Sent {
		if s.Video != "" {
			caption = s.Text
		}
	}
	assert.Contains(t, caption, "20 minutes")

	u, _ := h.users.Get(7)
	require.Len(t, u.Downloads, 1)
	assert.Equal(t, "YouTube", u.Downloads[0].Platform)
	assert.InDelta(t, 40.0, u.TotalMBDownloaded, 0.001)
	assert.Equal(t, 1, h.store.Get().BotStats.TotalDownloads)
	assert.Contains(t, h.transport.LastEdit().Text, "Download complete")
	assert.Equal(t, []string{"ok"}, metrics.results)
}

func TestDownloader_ProbeFailure(t *testing.T) {
	h := newHarness(t)
	h.touch(7)
	h.fetcher.ProbeErr = errors.New("unsupported")

	h.downloader.Run(context.Background(), 7, 7, "https://youtu.be/abc")

	assert.Empty(t, h.fetcher.FetchedURLs())
	assert.Equal(t, textProbeFailed, h.transport.LastEdit().Text)
	assert.Empty(t, h.deferred.Pending(scheduler.KindFileExpiry))
}

func TestDownloader_FetchFailure(t *testing.T) {
	h := newHarness(t)
	h.touch(7)

	h.downloader.Run(context.Background(), 7, 7, "https://youtu.be/abc")

	assert.Equal(t, textFetchFailed, h.transport.LastEdit().Text)
	assert.Empty(t, h.deferred.Pending(scheduler.KindFileExpiry))
	u, _ := h.users.Get(7)
	assert.Zero(t, u.TotalDownloads)
}

func TestDownloader_DeliveryFailureCleansUp(t *testing.T) {
	h := newHarness(t)
	h.touch(7)
	h.artifact(mb)
	h.transport.FailVid = true

	h.downloader.Run(context.Background(), 7, 7, "https://youtu.be/abc")

	assert.Equal(t, textDeliveryFailed, h.transport.LastEdit().Text)
	assert.Empty(t, h.deferred.Pending(scheduler.KindFileExpiry))
	entries, err := os.ReadDir(h.conf.Downloads.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	u, _ := h.users.Get(7)
	assert.Zero(t, u.TotalDownloads)
}

func TestDownloader_NoAutoRemoval(t *testing.T) {
	h := newHarness(t)
	h.touch(7)
	h.artifact(mb)
	h.mutateSettings(func(s *models.AdminSettings) { s.AutoRemovalEnabled = false })

	h.downloader.Run(context.Background(), 7, 7, "https://youtu.be/abc")

	require.Len(t, h.transport.Videos(), 1)
	assert.Empty(t, h.deferred.Pending(scheduler.KindFileExpiry))
	assert.NotContains(t, h.transport.Sent[len(h.transport.Sent)-1].Text, "minutes")
}
