package worker

import (
	"context"
	"gatebot/internal/models"
	"gatebot/internal/structures"
	"gatebot/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type recorder struct {
	mu      sync.Mutex
	byChat  map[int64][]int
	running atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
	panicOn int
}

func newRecorder() *recorder {
	return &recorder{byChat: map[int64][]int{}}
}

func (r *recorder) Handle(_ context.Context, ev models.Event) {
	n := r.running.Inc()
	defer r.running.Dec()
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if r.panicOn != 0 && ev.MessageID == r.panicOn {
		panic("boom")
	}
	time.Sleep(r.delay)
	r.mu.Lock()
	r.byChat[ev.ChatID] = append(r.byChat[ev.ChatID], ev.MessageID)
	r.mu.Unlock()
}

func (r *recorder) seen(chatID int64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.byChat[chatID]...)
}

func config(workers int) *structures.Config {
	return &structures.Config{Telegram: structures.TelegramConfig{Workers: workers}}
}

func TestChatQueuePreservesPerChatOrder(t *testing.T) {
	rec := newRecorder()
	q := NewChatQueue(config(4), rec, &testutil.MockLogger{})

	for i := 1; i <= 10; i++ {
		require.True(t, q.Enqueue(models.Event{ChatID: 1, MessageID: i}))
		require.True(t, q.Enqueue(models.Event{ChatID: 2, MessageID: i}))
	}
	q.Stop()

	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, want, rec.seen(1))
	assert.Equal(t, want, rec.seen(2))
}

func TestChatQueueBoundsConcurrency(t *testing.T) {
	rec := newRecorder()
	rec.delay = 10 * time.Millisecond
	q := NewChatQueue(config(2), rec, &testutil.MockLogger{})

	for chat := int64(1); chat <= 6; chat++ {
		q.Enqueue(models.Event{ChatID: chat, MessageID: 1})
	}
	q.Stop()

	assert.LessOrEqual(t, rec.peak.Load(), int32(2))
	for chat := int64(1); chat <= 6; chat++ {
		assert.Equal(t, []int{1}, rec.seen(chat))
	}
}

func TestChatQueueRecoversFromPanic(t *testing.T) {
	rec := newRecorder()
	rec.panicOn = 2
	logger := &testutil.MockLogger{}
	q := NewChatQueue(config(1), rec, logger)

	q.Enqueue(models.Event{ChatID: 1, MessageID: 1})
	q.Enqueue(models.Event{ChatID: 1, MessageID: 2})
	q.Enqueue(models.Event{ChatID: 1, MessageID: 3})
	q.Stop()

	assert.Equal(t, []int{1, 3}, rec.seen(1))
	assert.Equal(t, 1, logger.Count("error"))
}

func TestChatQueueRejectsAfterStop(t *testing.T) {
	q := NewChatQueue(config(1), newRecorder(), &testutil.MockLogger{})
	q.Stop()
	q.Stop()
	assert.False(t, q.Enqueue(models.Event{ChatID: 1}))
}

func TestChatQueueReapsIdleWorkers(t *testing.T) {
	rec := newRecorder()
	q := NewChatQueue(config(1), rec, &testutil.MockLogger{})
	q.idle = 20 * time.Millisecond

	q.Enqueue(models.Event{ChatID: 9, MessageID: 1})
	assert.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.workers) == 0
	}, time.Second, 5*time.Millisecond)

	q.Enqueue(models.Event{ChatID: 9, MessageID: 2})
	q.Stop()
	assert.Equal(t, []int{1, 2}, rec.seen(9))
}
