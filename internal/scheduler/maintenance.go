package scheduler

import (
	"gatebot/internal/interfaces"
	"gatebot/internal/providers"
	"gatebot/internal/store"
	"gatebot/internal/structures"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/roylee0704/gron"
)

// Maintenance owns the periodic housekeeping: retrying a failed document
// write and reclaiming artifacts whose expiry was lost with a restart.
type Maintenance struct {
	config   *structures.Config
	logger   providers.Logger
	store    store.StateStoreInterface
	deferred DeferredSchedulerInterface
	cron     *gron.Cron
	opsMu    sync.Mutex
	now      func() time.Time
}

func NewMaintenance(config *structures.Config, logger providers.Logger, stateStore store.StateStoreInterface, deferred DeferredSchedulerInterface) interfaces.SchedulerInterface {
	return &Maintenance{
		config:   config,
		logger:   logger,
		store:    stateStore,
		deferred: deferred,
		now:      time.Now,
	}
}

func (m *Maintenance) Init() {
	m.cron = gron.New()
	m.cron.AddFunc(gron.Every(m.config.Persistence.SweepInterval), m.tick)
	m.cron.Start()
}

func (m *Maintenance) tick() {
	m.opsMu.Lock()
	defer m.opsMu.Unlock()

	if m.store.Dirty() {
		if err := m.store.Persist(); err != nil {
			m.logger.Errorf(providers.TypeApp, "Retrying document write failed: %s", err)
		} else {
			m.logger.Infof(providers.TypeApp, "Document persisted after earlier failure")
		}
	}

	removed := m.sweepOrphans()
	if removed > 0 {
		m.logger.Infof(providers.TypeApp, "Swept %d orphaned downloads", removed)
	}
}

// sweepOrphans deletes downloads that have no scheduled expiry and are
// older than downloads.orphanTTL.
func (m *Maintenance) sweepOrphans() int {
	dir := m.config.Downloads.Dir
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warnf(providers.TypeApp, "Cannot list %s: %s", dir, err)
		}
		return 0
	}

	cutoff := m.now().Add(-m.config.Downloads.OrphanTTL)
	removed := 0
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		path := filepath.Join(dir, de.Name())
		if m.deferred.Has(FileKey(path)) {
			continue
		}
		info, err := de.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warnf(providers.TypeApp, "Cannot remove orphan %s: %s", path, err)
			continue
		}
		removed++
	}
	return removed
}

func (m *Maintenance) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
	m.deferred.Stop()
}

func (m *Maintenance) Restore() error {
	return m.store.Restore()
}

func (m *Maintenance) Persist() error {
	m.opsMu.Lock()
	defer m.opsMu.Unlock()

	m.logger.Infof(providers.TypeApp, "Persisting document to %s", m.config.Persistence.FilePath)
	err := m.store.Persist()
	if err != nil {
		m.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}
