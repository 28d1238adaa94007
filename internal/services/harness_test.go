package services

import (
	"context"
	"gatebot/internal/models"
	"gatebot/internal/scheduler"
	"gatebot/internal/store"
	"gatebot/internal/structures"
	"gatebot/internal/testutil"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDeferred keeps tasks in memory until a test fires them.
type fakeDeferred struct {
	mu       sync.Mutex
	handlers map[scheduler.Kind]scheduler.Handler
	tasks    map[string]scheduler.Task
	now      time.Time
}

func newFakeDeferred() *fakeDeferred {
	return &fakeDeferred{
		handlers: map[scheduler.Kind]scheduler.Handler{},
		tasks:    map[string]scheduler.Task{},
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeDeferred) Register(kind scheduler.Kind, h scheduler.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[kind] = h
}

func (f *fakeDeferred) Schedule(key string, kind scheduler.Kind, delay time.Duration, payload scheduler.Payload) scheduler.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := scheduler.Task{Key: key, Kind: kind, Delay: delay, Deadline: f.now.Add(delay), Payload: payload}
	f.tasks[key] = t
	return t
}

func (f *fakeDeferred) Cancel(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tasks[key]
	delete(f.tasks, key)
	return ok
}

func (f *fakeDeferred) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tasks[key]
	return ok
}

func (f *fakeDeferred) Pending(kind scheduler.Kind) []scheduler.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []scheduler.Task
	for _, t := range f.tasks {
		if kind == "" || t.Kind == kind {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (f *fakeDeferred) Stop() {}

func (f *fakeDeferred) Task(key string) (scheduler.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[key]
	return t, ok
}

// Fire runs the task for key as its timer would. It reports false when
// nothing is pending for key.
func (f *fakeDeferred) Fire(key string) bool {
	f.mu.Lock()
	t, ok := f.tasks[key]
	delete(f.tasks, key)
	h := f.handlers[t.Kind]
	f.mu.Unlock()
	if !ok || h == nil {
		return false
	}
	h(context.Background(), t)
	return true
}

type harness struct {
	t          *testing.T
	conf       *structures.Config
	store      store.StateStoreInterface
	deferred   *fakeDeferred
	transport  *testutil.MockTransport
	fetcher    *testutil.MockFetcher
	logger     *testutil.MockLogger
	metrics    *testutil.MockMetrics
	users      *UserService
	settings   *SettingsService
	janitor    *Janitor
	expiry     *ExpiryManager
	moderation *Moderation
	gating     *Gating
	conv       *Conversations
	views      *Views
	auth       *AuthGate
	flows      *Flows
	downloader *Downloader
	bot        *Dispatcher

	nextMsg int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conf := &structures.Config{
		Admin: structures.AdminConfig{
			PIN:           "123456",
			TriggerPhrase: "I AM BOSS",
			ElevationTTL:  30 * time.Minute,
		},
		Downloads: structures.DownloadsConfig{
			Dir:           t.TempDir(),
			MaxFileSizeMB: 200,
		},
		Persistence: structures.Persistence{
			FilePath: filepath.Join(t.TempDir(), "bot.json"),
		},
	}
	h := &harness{
		t:         t,
		conf:      conf,
		deferred:  newFakeDeferred(),
		transport: testutil.NewMockTransport(),
		fetcher:   &testutil.MockFetcher{},
		logger:    &testutil.MockLogger{},
		metrics:   testutil.NewMockMetrics(),
		nextMsg:   100,
	}
	fm := store.NewFileManager(&testutil.MockCompressor{}, h.logger)
	h.store = store.NewStateStore(conf, fm, h.logger, h.metrics)

	h.users = NewUserService(h.store)
	h.settings = NewSettingsService(h.store)
	h.janitor = NewJanitor(h.transport, h.deferred, h.store, h.logger)
	h.expiry = NewExpiryManager(conf, h.store, h.deferred, h.logger)
	h.expiry.intN = func(n int) int { return n - 1 }
	h.moderation = NewModeration(h.store, h.janitor, h.metrics, h.logger)
	h.gating = NewGating(h.store, h.transport, h.metrics, h.logger)
	h.conv = NewConversations()
	h.views = NewViews(conf, h.store, h.users, h.expiry, h.transport, h.deferred, h.logger)
	h.auth = NewAuthGate(conf, h.store, h.users, h.conv, h.janitor, h.views, h.transport, h.deferred, h.logger)
	h.flows = NewFlows(h.conv, h.settings, h.users, h.views, h.janitor, h.transport, h.logger)
	h.downloader = NewDownloader(conf, h.store, h.fetcher, h.transport, h.users, h.expiry, h.metrics, h.logger)
	h.bot = NewDispatcher(h.users, h.settings, h.moderation, h.gating, h.conv, h.auth, h.flows,
		h.downloader, h.janitor, h.expiry, h.views, h.transport, h.metrics, h.logger).(*Dispatcher)
	return h
}

func (h *harness) text(userID int64, text string) models.Event {
	h.nextMsg++
	return models.Event{ChatID: userID, UserID: userID, MessageID: h.nextMsg, FirstName: "Ann", Username: "ann", Text: text}
}

func (h *harness) callback(userID int64, messageID int, data string) models.Event {
	return models.Event{ChatID: userID, UserID: userID, MessageID: messageID, CallbackID: "cb-" + data, Data: data}
}

func (h *harness) send(userID int64, text string) models.Event {
	ev := h.text(userID, text)
	h.bot.Handle(context.Background(), ev)
	return ev
}

func (h *harness) press(userID int64, messageID int, data string) {
	h.bot.Handle(context.Background(), h.callback(userID, messageID, data))
}

func (h *harness) touch(userID int64) {
	_, err := h.users.Touch(h.text(userID, ""))
	require.NoError(h.t, err)
}

func (h *harness) mutateSettings(fn func(s *models.AdminSettings)) {
	require.NoError(h.t, h.store.Mutate(func(doc *models.Document) error {
		fn(&doc.AdminSettings)
		return nil
	}))
}

// artifact makes the fetcher write a small file that reports sizeBytes.
func (h *harness) artifact(sizeBytes int64) {
	h.fetcher.FetchFn = func(url string, _ int64) (models.Artifact, error) {
		path := filepath.Join(h.conf.Downloads.Dir, "video_"+filepath.Base(url)+".mp4")
		if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
			return models.Artifact{}, err
		}
		return models.Artifact{Path: path, SizeBytes: sizeBytes, Title: "clip"}, nil
	}
}

func (h *harness) elevate(userID int64) {
	h.touch(userID)
	h.auth.Elevate(userID)
}
