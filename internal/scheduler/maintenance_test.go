package scheduler

import (
	"gatebot/internal/models"
	"gatebot/internal/store"
	"gatebot/internal/structures"
	"gatebot/internal/testutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maintenanceConfig(t *testing.T) *structures.Config {
	dir := t.TempDir()
	return &structures.Config{
		Persistence: structures.Persistence{
			FilePath:      filepath.Join(dir, "bot.json"),
			SweepInterval: time.Minute,
		},
		Downloads: structures.DownloadsConfig{
			Dir:       filepath.Join(dir, "downloads"),
			OrphanTTL: time.Hour,
		},
	}
}

func newTestMaintenance(t *testing.T) (*Maintenance, store.StateStoreInterface, *Deferred) {
	conf := maintenanceConfig(t)
	require.NoError(t, os.MkdirAll(conf.Downloads.Dir, 0o755))
	logger := &testutil.MockLogger{}
	fm := store.NewFileManager(&testutil.MockCompressor{}, logger)
	st := store.NewStateStore(conf, fm, logger, testutil.NewMockMetrics())
	d, _ := newFakeDeferred()
	m := NewMaintenance(conf, logger, st, d).(*Maintenance)
	return m, st, d
}

func writeAged(t *testing.T, path string, age time.Duration) {
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
	ts := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func TestMaintenance_SweepRemovesOnlyOldUnscheduled(t *testing.T) {
	m, _, d := newTestMaintenance(t)
	dir := m.config.Downloads.Dir

	orphan := filepath.Join(dir, "orphan.mp4")
	fresh := filepath.Join(dir, "fresh.mp4")
	tracked := filepath.Join(dir, "tracked.mp4")
	writeAged(t, orphan, 2*time.Hour)
	writeAged(t, fresh, time.Minute)
	writeAged(t, tracked, 2*time.Hour)
	d.Schedule(FileKey(tracked), KindFileExpiry, 15*time.Minute, Payload{Path: tracked})

	assert.Equal(t, 1, m.sweepOrphans())

	_, err := os.Stat(orphan)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
	_, err = os.Stat(tracked)
	assert.NoError(t, err)
}

func TestMaintenance_SweepMissingDirectory(t *testing.T) {
	m, _, _ := newTestMaintenance(t)
	m.config.Downloads.Dir = filepath.Join(t.TempDir(), "never-created")
	assert.Equal(t, 0, m.sweepOrphans())
}

func TestMaintenance_TickRetriesDirtyStore(t *testing.T) {
	conf := maintenanceConfig(t)
	conf.Persistence.FilePath = filepath.Join(t.TempDir(), "later", "bot.json")
	logger := &testutil.MockLogger{}
	st := store.NewStateStore(conf, store.NewFileManager(&testutil.MockCompressor{}, logger), logger, testutil.NewMockMetrics())
	d, _ := newFakeDeferred()
	m := NewMaintenance(conf, logger, st, d).(*Maintenance)

	_ = st.Mutate(func(doc *models.Document) error {
		doc.BotStats.TotalUsers = 3
		return nil
	})
	require.True(t, st.Dirty())

	require.NoError(t, os.MkdirAll(filepath.Dir(conf.Persistence.FilePath), 0o755))
	m.tick()

	assert.False(t, st.Dirty())
	_, err := os.Stat(conf.Persistence.FilePath)
	assert.NoError(t, err)
}

func TestMaintenance_RestoreAndPersist(t *testing.T) {
	m, st, _ := newTestMaintenance(t)
	require.NoError(t, m.Restore())

	_ = st.Mutate(func(doc *models.Document) error {
		doc.AdminSettings.MessageDeletionTime = 90
		return nil
	})
	require.NoError(t, m.Persist())

	_, err := os.Stat(m.config.Persistence.FilePath)
	assert.NoError(t, err)
}

func TestMaintenance_InitAndStop(t *testing.T) {
	m, _, d := newTestMaintenance(t)
	m.Init()
	d.Schedule("x", KindMessageDeletion, time.Hour, Payload{})
	m.Stop()
	assert.False(t, d.Has("x"))
}
