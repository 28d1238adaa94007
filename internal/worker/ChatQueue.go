package worker

import (
	"context"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/structures"
	"runtime/debug"
	"sync"
	"time"
)

const (
	queueDepth  = 16
	idleTimeout = 2 * time.Minute
)

type Handler interface {
	Handle(ctx context.Context, ev models.Event)
}

type chatWorker struct {
	jobs chan models.Event
}

// ChatQueue runs events of one chat in arrival order while different
// chats proceed in parallel, bounded by a global semaphore.
type ChatQueue struct {
	handler Handler
	logger  providers.Logger
	sem     chan struct{}
	idle    time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	workers map[int64]*chatWorker
	closed  bool
	wg      sync.WaitGroup
}

func NewChatQueue(conf *structures.Config, handler Handler, logger providers.Logger) *ChatQueue {
	size := conf.Telegram.Workers
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ChatQueue{
		handler: handler,
		logger:  logger,
		sem:     make(chan struct{}, size),
		idle:    idleTimeout,
		ctx:     ctx,
		cancel:  cancel,
		workers: make(map[int64]*chatWorker),
	}
}

// Enqueue hands ev to its chat's worker. It returns false when the queue
// is stopped or the chat's backlog is full.
func (q *ChatQueue) Enqueue(ev models.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}

	w, ok := q.workers[ev.ChatID]
	if !ok {
		w = &chatWorker{jobs: make(chan models.Event, queueDepth)}
		q.workers[ev.ChatID] = w
		q.wg.Add(1)
		go q.loop(ev.ChatID, w)
	}

	select {
	case w.jobs <- ev:
		return true
	default:
		q.logger.Warnf(providers.TypeBot, "Dropping update for chat %d: backlog full", ev.ChatID)
		return false
	}
}

// Stop rejects new events, lets queued ones drain and waits for workers.
func (q *ChatQueue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.logger.Infof(providers.TypeBot, "Draining %d chat workers", len(q.workers))
	for _, w := range q.workers {
		close(w.jobs)
	}
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
}

func (q *ChatQueue) loop(chatID int64, w *chatWorker) {
	defer q.wg.Done()
	timer := time.NewTimer(q.idle)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.jobs:
			if !ok {
				return
			}
			q.run(ev)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(q.idle)
		case <-timer.C:
			q.mu.Lock()
			if len(w.jobs) == 0 && !q.closed {
				delete(q.workers, chatID)
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			timer.Reset(q.idle)
		}
	}
}

func (q *ChatQueue) run(ev models.Event) {
	q.sem <- struct{}{}
	defer func() { <-q.sem }()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Errorf(providers.TypeBot, "Handler panic for chat %d: %v\n%s", ev.ChatID, r, debug.Stack())
		}
	}()
	q.handler.Handle(q.ctx, ev)
}
