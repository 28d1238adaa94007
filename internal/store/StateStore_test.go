package store

import (
	"errors"
	"gatebot/internal/models"
	"gatebot/internal/structures"
	"gatebot/internal/testutil"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	*testutil.MockMetrics
	mu       sync.Mutex
	failures int
}

func (m *countingMetrics) IncPersistenceFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func newTestStore(t *testing.T, path string) (*StateStore, *testutil.MockLogger, *countingMetrics) {
	t.Helper()
	conf := &structures.Config{Persistence: structures.Persistence{FilePath: path}}
	logger := &testutil.MockLogger{}
	metrics := &countingMetrics{MockMetrics: testutil.NewMockMetrics()}
	fm := NewFileManager(&testutil.MockCompressor{}, logger)
	return NewStateStore(conf, fm, logger, metrics).(*StateStore), logger, metrics
}

func TestStateStore_MutateThenGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.json")
	s, _, _ := newTestStore(t, path)

	err := s.Mutate(func(doc *models.Document) error {
		doc.AdminSettings.MessageDeletionTime = 60
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 60, s.Get().AdminSettings.MessageDeletionTime)
	assert.Equal(t, 60, s.Settings().MessageDeletionTime)

	reloaded, err := s.fileManager.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 60, reloaded.AdminSettings.MessageDeletionTime)
}

func TestStateStore_GetReturnsCopy(t *testing.T) {
	s, _, _ := newTestStore(t, filepath.Join(t.TempDir(), "bot.json"))

	doc := s.Get()
	doc.AdminSettings.BannedWords = append(doc.AdminSettings.BannedWords, "leak")
	doc.Users["1"] = models.NewUser(1, "", "", doc.BotStats.StartDate)

	assert.Empty(t, s.Get().AdminSettings.BannedWords)
	assert.Empty(t, s.Get().Users)
}

func TestStateStore_MutateErrorDiscardsChanges(t *testing.T) {
	s, _, _ := newTestStore(t, filepath.Join(t.TempDir(), "bot.json"))
	boom := errors.New("validation failed")

	err := s.Mutate(func(doc *models.Document) error {
		doc.AdminSettings.AdminPIN = "999999"
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Settings().AdminPIN)
}

func TestStateStore_DurabilityFailureKeepsMemoryState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "bot.json")
	s, logger, metrics := newTestStore(t, path)

	err := s.Mutate(func(doc *models.Document) error {
		doc.BotStats.TotalDownloads = 5
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 5, s.Get().BotStats.TotalDownloads)
	assert.True(t, s.Dirty())
	assert.Equal(t, 1, metrics.failures)
	assert.Equal(t, 1, logger.Count("error"))

	// directory appears, the retry succeeds
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, s.Persist())
	assert.False(t, s.Dirty())
}

func TestStateStore_PersistSkipsWhenUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.json")
	s, _, _ := newTestStore(t, path)

	require.NoError(t, s.Persist())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing to write before the first mutation")
}

func TestStateStore_RestoreLoadsDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.json")
	fm := NewFileManager(&testutil.MockCompressor{}, &testutil.MockLogger{})
	require.NoError(t, fm.SaveToFile(path, sampleDocument()))

	s, _, _ := newTestStore(t, path)
	var seen int
	s.OnCommit(func(doc *models.Document) { seen = len(doc.Users) })
	require.NoError(t, s.Restore())

	u, ok := s.User(7)
	require.True(t, ok)
	assert.Equal(t, "Ann", u.FirstName)
	assert.Equal(t, 1, seen)
}

func TestStateStore_CorruptDocumentIsNeverOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.json")
	corrupt := []byte("{\"users\":{\"1\":{\"user_id\":1,\"link_count\":42}},\x00garbage")
	require.NoError(t, os.WriteFile(path, corrupt, 0644))

	s, _, _ := newTestStore(t, path)
	err := s.Restore()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRestoreFailed))

	require.NoError(t, s.Mutate(func(doc *models.Document) error {
		doc.BotStats.TotalUsers++
		return nil
	}))
	assert.ErrorIs(t, s.Persist(), ErrRestoreFailed)
	assert.True(t, s.Dirty())

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, onDisk)
}

func TestStateStore_OnCommitRunsAfterMutate(t *testing.T) {
	s, _, _ := newTestStore(t, filepath.Join(t.TempDir(), "bot.json"))
	calls := 0
	s.OnCommit(func(doc *models.Document) { calls++ })

	_ = s.Mutate(func(doc *models.Document) error { return nil })
	_ = s.Mutate(func(doc *models.Document) error { return errors.New("no") })

	assert.Equal(t, 1, calls)
}

func TestStateStore_ConcurrentMutationsAreSerialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.json")
	s, _, _ := newTestStore(t, path)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Mutate(func(doc *models.Document) error {
				doc.BotStats.TotalDownloads++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Get().BotStats.TotalDownloads)

	// the newest snapshot wins on disk
	reloaded, err := s.fileManager.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50, reloaded.BotStats.TotalDownloads)
}
