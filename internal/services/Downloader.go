package services

import (
	"context"
	"gatebot/internal/interfaces"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/store"
	"gatebot/internal/structures"
	"time"
)

const bytesPerMB = 1024 * 1024

// Downloader probes, fetches and delivers one media url, then hands the
// artifact to the expiry manager.
type Downloader struct {
	config    *structures.Config
	store     store.StateStoreInterface
	fetcher   interfaces.MediaFetcherInterface
	transport interfaces.TransportInterface
	users     *UserService
	expiry    *ExpiryManager
	metrics   providers.MetricsProviderInterface
	logger    providers.Logger
	now       func() time.Time
}

func NewDownloader(conf *structures.Config, stateStore store.StateStoreInterface, fetcher interfaces.MediaFetcherInterface, transport interfaces.TransportInterface, users *UserService, expiry *ExpiryManager, metrics providers.MetricsProviderInterface, logger providers.Logger) *Downloader {
	return &Downloader{
		config:    conf,
		store:     stateStore,
		fetcher:   fetcher,
		transport: transport,
		users:     users,
		expiry:    expiry,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// CapBytes is the smaller of the admin limit and the deployment limit.
func (d *Downloader) CapBytes() int64 {
	mb := d.store.Settings().MaxFileSizeMB
	if hard := d.config.Downloads.MaxFileSizeMB; hard > 0 && (mb <= 0 || hard < mb) {
		mb = hard
	}
	return int64(mb) * bytesPerMB
}

func (d *Downloader) Run(ctx context.Context, chatID, userID int64, url string) {
	statusID, err := d.transport.SendText(ctx, chatID, textProcessing, nil)
	if err != nil {
		d.logger.Warnf(providers.TypeBot, "Unable to send processing notice to chat %d: %s", chatID, err)
		return
	}

	info, err := d.fetcher.Probe(ctx, url)
	if err != nil {
		d.fail(ctx, chatID, statusID, "probe_failed", textProbeFailed, url, err)
		return
	}
	d.status(ctx, chatID, statusID, downloadingText(info))

	artifact, err := d.fetcher.Fetch(ctx, url, d.CapBytes())
	if err != nil {
		d.fail(ctx, chatID, statusID, "fetch_failed", textFetchFailed, url, err)
		return
	}
	if artifact.Title == "" {
		artifact.Title = info.Title
	}
	if artifact.Platform == "" {
		artifact.Platform = DetectPlatform(url)
	}

	delay, scheduled := d.expiry.Schedule(artifact)
	caption := videoCaption(artifact, int(delay/time.Minute), scheduled)
	if _, err := d.transport.SendVideo(ctx, chatID, artifact.Path, caption); err != nil {
		if cerr := d.expiry.Cleanup(artifact.Path); cerr != nil {
			d.logger.Errorf(providers.TypeBot, "Unable to remove undelivered %s: %s", artifact.Path, cerr)
		}
		d.fail(ctx, chatID, statusID, "delivery_failed", textDeliveryFailed, url, err)
		return
	}

	rec := models.DownloadRecord{
		URL:        url,
		Title:      artifact.Title,
		Platform:   artifact.Platform,
		FileSizeMB: artifact.SizeMB(),
		Timestamp:  d.now(),
	}
	if err := d.users.LogDownload(userID, rec); err != nil {
		d.logger.Errorf(providers.TypeBot, "Unable to record download of user %d: %s", userID, err)
	}
	d.metrics.IncDownloads("ok")
	d.logger.Infof(providers.TypeBot, "Delivered %s (%.1f MB) to user %d", artifact.Platform, artifact.SizeMB(), userID)
	d.status(ctx, chatID, statusID, downloadDoneText(artifact))
}

func (d *Downloader) fail(ctx context.Context, chatID int64, statusID int, result, text, url string, err error) {
	d.metrics.IncDownloads(result)
	d.logger.Warnf(providers.TypeBot, "Download of %s ended with %s: %s", url, result, err)
	d.status(ctx, chatID, statusID, text)
}

func (d *Downloader) status(ctx context.Context, chatID int64, statusID int, text string) {
	if err := d.transport.EditText(ctx, chatID, statusID, text, nil); err != nil {
		d.logger.Warnf(providers.TypeBot, "Unable to update status %d in chat %d: %s", statusID, chatID, err)
	}
}
