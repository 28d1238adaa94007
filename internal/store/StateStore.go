package store

import (
	"errors"
	"fmt"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/structures"
	"slices"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type StateStoreInterface interface {
	Get() *models.Document
	Settings() models.AdminSettings
	User(id int64) (*models.User, bool)
	Mutate(fn func(doc *models.Document) error) error
	OnCommit(fn func(doc *models.Document))
	Restore() error
	Persist() error
	Dirty() bool
}

// ErrRestoreFailed blocks writes after the stored document could not be
// loaded, so the unreadable file is never replaced by a fresh one.
var ErrRestoreFailed = errors.New("document restore failed, writes disabled")

type snapshot struct {
	doc     *models.Document
	version uint64
}

// StateStore owns the bot document. Readers get copies of the last
// committed snapshot and never wait for writers. Mutations serialize on mu
// and are written to disk afterwards under writeMu, so a slow disk never
// holds up the next mutation.
type StateStore struct {
	path        string
	fileManager *FileManager
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
	now         func() time.Time

	mu      sync.Mutex
	current atomic.Pointer[snapshot]
	hooks   []func(doc *models.Document)

	writeMu   sync.Mutex
	persisted uint64
	dirty     atomic.Bool
	blocked   atomic.Bool
}

func NewStateStore(conf *structures.Config, fileManager *FileManager, logger providers.Logger, metrics providers.MetricsProviderInterface) StateStoreInterface {
	s := &StateStore{
		path:        conf.Persistence.FilePath,
		fileManager: fileManager,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
	s.current.Store(&snapshot{doc: models.NewDocument(s.now())})
	return s
}

func (s *StateStore) Get() *models.Document {
	return s.current.Load().doc.Clone()
}

func (s *StateStore) Settings() models.AdminSettings {
	return s.current.Load().doc.AdminSettings.Clone()
}

func (s *StateStore) User(id int64) (*models.User, bool) {
	u, ok := s.current.Load().doc.User(id)
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// OnCommit registers fn to run after every committed mutation. fn receives
// the committed snapshot and must not modify it.
func (s *StateStore) OnCommit(fn func(doc *models.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Mutate applies fn to a private copy of the document and publishes it.
// An error from fn discards the copy. A failed disk write does not roll
// the new state back; it is logged and retried by the maintenance job.
func (s *StateStore) Mutate(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	cur := s.current.Load()
	next := cur.doc.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	next.BotStats.LastUpdated = s.now()
	snap := &snapshot{doc: next, version: cur.version + 1}
	s.current.Store(snap)
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	for _, h := range hooks {
		h(snap.doc)
	}
	_ = s.persistLatest()
	return nil
}

func (s *StateStore) Restore() error {
	doc, err := s.fileManager.LoadFromFile(s.path)
	if err != nil {
		s.blocked.Store(true)
		s.logger.Errorf(providers.TypeStore, "Cannot restore %s, refusing to overwrite it: %s", s.path, err)
		return fmt.Errorf("%w: %w", ErrRestoreFailed, err)
	}
	s.blocked.Store(false)

	s.mu.Lock()
	s.current.Store(&snapshot{doc: doc})
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	s.writeMu.Lock()
	s.persisted = 0
	s.writeMu.Unlock()

	for _, h := range hooks {
		h(doc)
	}
	s.logger.Infof(providers.TypeStore, "Restored %d users from %s", len(doc.Users), s.path)
	return nil
}

// Persist writes the latest snapshot if it has not been written yet.
func (s *StateStore) Persist() error {
	return s.persistLatest()
}

func (s *StateStore) Dirty() bool {
	return s.dirty.Load()
}

func (s *StateStore) persistLatest() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap := s.current.Load()
	if snap.version <= s.persisted {
		return nil
	}
	if s.blocked.Load() {
		s.dirty.Store(true)
		return ErrRestoreFailed
	}

	start := time.Now()
	err := s.fileManager.SaveToFile(s.path, snap.doc)
	s.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		s.dirty.Store(true)
		s.metrics.IncPersistenceFailures()
		s.logger.Errorf(providers.TypeStore, "Error while persisting document v%d: %s", snap.version, err)
		return err
	}

	s.persisted = snap.version
	if s.current.Load().version == snap.version {
		s.dirty.Store(false)
	}
	return nil
}
