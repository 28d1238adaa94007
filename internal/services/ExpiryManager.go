package services

import (
	"context"
	"errors"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/scheduler"
	"gatebot/internal/store"
	"gatebot/internal/structures"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"
)

const (
	largeFileBytes     = 100 * 1024 * 1024
	emptyFileDelay     = 15 * time.Minute
	minSmallFileMinute = 15
	maxSmallFileMinute = 20
)

// RemovalDelay picks how long a delivered artifact stays on disk. intN
// returns a uniform integer in [0, n).
func RemovalDelay(sizeBytes int64, settings models.AdminSettings, intN func(n int) int) time.Duration {
	switch {
	case sizeBytes <= 0:
		return emptyFileDelay
	case sizeBytes >= largeFileBytes:
		base := settings.BaseRemovalTimeMinutes
		if base <= 0 {
			base = models.DefaultBaseRemovalMinutes
		}
		return time.Duration(base) * time.Minute
	default:
		span := maxSmallFileMinute - minSmallFileMinute + 1
		return time.Duration(minSmallFileMinute+intN(span)) * time.Minute
	}
}

type ExpiryManager struct {
	dir      string
	store    store.StateStoreInterface
	deferred scheduler.DeferredSchedulerInterface
	logger   providers.Logger
	intN     func(n int) int
	now      func() time.Time
}

func NewExpiryManager(conf *structures.Config, stateStore store.StateStoreInterface, deferred scheduler.DeferredSchedulerInterface, logger providers.Logger) *ExpiryManager {
	e := &ExpiryManager{
		dir:      conf.Downloads.Dir,
		store:    stateStore,
		deferred: deferred,
		logger:   logger,
		intN:     rand.IntN,
		now:      time.Now,
	}
	deferred.Register(scheduler.KindFileExpiry, e.handle)
	return e
}

// Schedule queues the artifact for removal and returns the chosen delay.
// It reports false when auto removal is disabled.
func (e *ExpiryManager) Schedule(a models.Artifact) (time.Duration, bool) {
	settings := e.store.Settings()
	if !settings.AutoRemovalEnabled {
		return 0, false
	}
	delay := RemovalDelay(a.SizeBytes, settings, e.intN)
	e.deferred.Schedule(scheduler.FileKey(a.Path), scheduler.KindFileExpiry, delay, scheduler.Payload{
		Path:      a.Path,
		SizeBytes: a.SizeBytes,
	})
	e.logger.Infof(providers.TypeScheduler, "Scheduled removal of %s (%.1f MB) in %s", filepath.Base(a.Path), a.SizeMB(), delay)
	return delay, true
}

// Cleanup removes an artifact now. The pending expiry is cancelled first
// so it cannot fire against a path that may be reused.
func (e *ExpiryManager) Cleanup(path string) error {
	e.deferred.Cancel(scheduler.FileKey(path))
	return removeIfExists(path)
}

// RemoveAll cancels every pending expiry and deletes every file in the
// downloads directory. It returns how many files were removed.
func (e *ExpiryManager) RemoveAll() (int, error) {
	for _, t := range e.deferred.Pending(scheduler.KindFileExpiry) {
		e.deferred.Cancel(t.Key)
	}

	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	var firstErr error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := removeIfExists(filepath.Join(e.dir, entry.Name())); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	e.logger.Infof(providers.TypeScheduler, "Removed %d downloads on request", removed)
	return removed, firstErr
}

func (e *ExpiryManager) Scheduled() []models.ScheduledRemoval {
	now := e.now()
	tasks := e.deferred.Pending(scheduler.KindFileExpiry)
	out := make([]models.ScheduledRemoval, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, models.ScheduledRemoval{
			Path:      t.Payload.Path,
			SizeMB:    float64(t.Payload.SizeBytes) / (1024 * 1024),
			Delay:     t.Delay.String(),
			Deadline:  t.Deadline,
			Remaining: t.Remaining(now).Round(time.Second).String(),
		})
	}
	return out
}

func (e *ExpiryManager) handle(_ context.Context, task scheduler.Task) {
	if err := removeIfExists(task.Payload.Path); err != nil {
		e.logger.Errorf(providers.TypeScheduler, "Unable to remove %s: %s", task.Payload.Path, err)
		return
	}
	e.logger.Infof(providers.TypeScheduler, "Removed expired download %s", filepath.Base(task.Payload.Path))
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// CleanScheduled removes every artifact that is still waiting for expiry.
func (e *ExpiryManager) CleanScheduled() int {
	removed := 0
	for _, t := range e.deferred.Pending(scheduler.KindFileExpiry) {
		if err := e.Cleanup(t.Payload.Path); err != nil {
			e.logger.Errorf(providers.TypeScheduler, "Unable to remove %s: %s", t.Payload.Path, err)
			continue
		}
		removed++
	}
	return removed
}
