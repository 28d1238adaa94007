package testutil

import (
	"context"
	"errors"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"strings"
	"sync"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether any formatted message contains substr.
func (m *MockLogger) Contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if strings.Contains(e.Format, substr) {
			return true
		}
		for _, a := range e.Args {
			if s, ok := a.(string); ok && strings.Contains(s, substr) {
				return true
			}
		}
	}
	return false
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu     sync.Mutex
	Data   map[string][]byte
	Clears int
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data = make(map[string][]byte)
	m.Clears++
}

// MockCompressor implements store.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockMetrics discards observations; embed-and-override in tests that
// need to count something.
type MockMetrics struct {
	providers.MetricsProviderInterface
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{MetricsProviderInterface: providers.NewNoopMetrics()}
}

// SentMessage is one message recorded by MockTransport.
type SentMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Keyboard  models.Keyboard
	Video     string
}

type EditedMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Keyboard  models.Keyboard
}

type DeletedMessage struct {
	ChatID    int64
	MessageID int
}

type CallbackAnswer struct {
	ID    string
	Text  string
	Alert bool
}

var ErrTransport = errors.New("transport unavailable")

// MockTransport implements interfaces.TransportInterface in memory.
// Members maps "channel:user" to a membership status.
type MockTransport struct {
	mu       sync.Mutex
	nextID   int
	Sent     []SentMessage
	Edited   []EditedMessage
	Deleted  []DeletedMessage
	Answers  []CallbackAnswer
	Members  map[string]string
	Lookups  []string
	FailSend bool
	FailEdit bool
	FailDel  bool
	FailVid  bool
}

func NewMockTransport() *MockTransport {
	return &MockTransport{nextID: 1000, Members: map[string]string{}}
}

func (m *MockTransport) SendText(_ context.Context, chatID int64, text string, kb models.Keyboard) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSend {
		return 0, ErrTransport
	}
	m.nextID++
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, MessageID: m.nextID, Text: text, Keyboard: kb})
	return m.nextID, nil
}

func (m *MockTransport) EditText(_ context.Context, chatID int64, messageID int, text string, kb models.Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailEdit {
		return ErrTransport
	}
	m.Edited = append(m.Edited, EditedMessage{ChatID: chatID, MessageID: messageID, Text: text, Keyboard: kb})
	return nil
}

func (m *MockTransport) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDel {
		return ErrTransport
	}
	m.Deleted = append(m.Deleted, DeletedMessage{ChatID: chatID, MessageID: messageID})
	return nil
}

func (m *MockTransport) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answers = append(m.Answers, CallbackAnswer{ID: callbackID, Text: text, Alert: alert})
	return nil
}

func (m *MockTransport) GetChatMember(_ context.Context, channelRef string, userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups = append(m.Lookups, channelRef)
	status, ok := m.Members[channelRef+":"+models.UserKey(userID)]
	if !ok {
		return "left", nil
	}
	return status, nil
}

func (m *MockTransport) SendVideo(_ context.Context, chatID int64, path, caption string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailVid {
		return 0, ErrTransport
	}
	m.nextID++
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, MessageID: m.nextID, Text: caption, Video: path})
	return m.nextID, nil
}

func (m *MockTransport) IsDeleted(chatID int64, messageID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.Deleted {
		if d.ChatID == chatID && d.MessageID == messageID {
			return true
		}
	}
	return false
}

func (m *MockTransport) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

func (m *MockTransport) LastSent() SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMessage{}
	}
	return m.Sent[len(m.Sent)-1]
}

func (m *MockTransport) LastEdit() EditedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Edited) == 0 {
		return EditedMessage{}
	}
	return m.Edited[len(m.Edited)-1]
}

func (m *MockTransport) Videos() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.Sent {
		if s.Video != "" {
			out = append(out, s.Video)
		}
	}
	return out
}

// MockFetcher implements interfaces.MediaFetcherInterface. FetchFn decides
// the artifact; by default it fails.
type MockFetcher struct {
	mu       sync.Mutex
	ProbeErr error
	FetchFn  func(url string, capBytes int64) (models.Artifact, error)
	Probed   []string
	Fetched  []string
	Caps     []int64
}

var ErrFetch = errors.New("fetch failed")

func (m *MockFetcher) Probe(_ context.Context, url string) (models.MediaInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Probed = append(m.Probed, url)
	if m.ProbeErr != nil {
		return models.MediaInfo{}, m.ProbeErr
	}
	return models.MediaInfo{Title: "clip", Uploader: "someone", DurationSeconds: 42, Platform: "YouTube"}, nil
}

func (m *MockFetcher) Fetch(_ context.Context, url string, capBytes int64) (models.Artifact, error) {
	m.mu.Lock()
	m.Fetched = append(m.Fetched, url)
	m.Caps = append(m.Caps, capBytes)
	fn := m.FetchFn
	m.mu.Unlock()
	if fn == nil {
		return models.Artifact{}, ErrFetch
	}
	return fn(url, capBytes)
}

func (m *MockFetcher) FetchedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Fetched...)
}
