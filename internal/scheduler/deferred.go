package scheduler

import (
	"context"
	"gatebot/internal/providers"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type Handler func(ctx context.Context, task Task)

type DeferredSchedulerInterface interface {
	Register(kind Kind, h Handler)
	Schedule(key string, kind Kind, delay time.Duration, payload Payload) Task
	Cancel(key string) bool
	Has(key string) bool
	Pending(kind Kind) []Task
	Stop()
}

type stoppable interface {
	Stop() bool
}

type entry struct {
	task  Task
	token uint64
	timer stoppable
}

type inflight struct {
	wg sync.WaitGroup
	n  int
}

// Deferred runs one timer per key. A key has at most one live entry;
// scheduling it again replaces the previous one. Firing removes the entry
// under the lock before the handler runs, so a racing Cancel either wins
// and the handler never runs, or loses and waits for the handler to return.
type Deferred struct {
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	mu       sync.Mutex
	entries  map[string]*entry
	running  map[string]*inflight
	handlers map[Kind]Handler
	stopped  bool

	seq       atomic.Uint64
	afterFunc func(d time.Duration, f func()) stoppable
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func NewDeferred(logger providers.Logger, metrics providers.MetricsProviderInterface) *Deferred {
	ctx, cancel := context.WithCancel(context.Background())
	return &Deferred{
		logger:   logger,
		metrics:  metrics,
		entries:  make(map[string]*entry),
		running:  make(map[string]*inflight),
		handlers: make(map[Kind]Handler),
		afterFunc: func(d time.Duration, f func()) stoppable {
			return time.AfterFunc(d, f)
		},
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

func NewDeferredScheduler(logger providers.Logger, metrics providers.MetricsProviderInterface) DeferredSchedulerInterface {
	return NewDeferred(logger, metrics)
}

func (s *Deferred) Register(kind Kind, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
}

func (s *Deferred) Schedule(key string, kind Kind, delay time.Duration, payload Payload) Task {
	if delay < 0 {
		delay = 0
	}
	task := Task{
		Key:      key,
		Kind:     kind,
		Delay:    delay,
		Deadline: s.now().Add(delay),
		Payload:  payload,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return task
	}
	if prev, ok := s.entries[key]; ok {
		prev.timer.Stop()
		delete(s.entries, key)
		s.metrics.IncTasksCancelled(string(prev.task.Kind))
	}

	token := s.seq.Inc()
	e := &entry{task: task, token: token}
	e.timer = s.afterFunc(delay, func() { s.fire(key, token) })
	s.entries[key] = e
	s.metrics.IncTasksScheduled(string(kind))
	s.logger.Debugf(providers.TypeScheduler, "Scheduled %s %s in %s", kind, key, delay)
	return task
}

// Cancel removes the pending entry for key. It returns true when the entry
// was removed before firing. When a firing for key is already in progress
// Cancel waits for it to finish and returns false. Handlers must not cancel
// their own key.
func (s *Deferred) Cancel(key string) bool {
	s.mu.Lock()
	cancelled := false
	if e, ok := s.entries[key]; ok {
		e.timer.Stop()
		delete(s.entries, key)
		cancelled = true
		s.metrics.IncTasksCancelled(string(e.task.Kind))
	}
	in := s.running[key]
	s.mu.Unlock()

	if in != nil {
		in.wg.Wait()
	}
	return cancelled
}

func (s *Deferred) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Pending lists live tasks of kind ordered by deadline. An empty kind
// lists everything.
func (s *Deferred) Pending(kind Kind) []Task {
	s.mu.Lock()
	out := make([]Task, 0, len(s.entries))
	for _, e := range s.entries {
		if kind == "" || e.task.Kind == kind {
			out = append(out, e.task)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Key < out[j].Key
		}
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out
}

// Stop drops every pending task and waits for running handlers.
func (s *Deferred) Stop() {
	s.mu.Lock()
	s.stopped = true
	for key, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, key)
	}
	waiting := make([]*inflight, 0, len(s.running))
	for _, in := range s.running {
		waiting = append(waiting, in)
	}
	s.mu.Unlock()

	s.cancel()
	for _, in := range waiting {
		in.wg.Wait()
	}
}

func (s *Deferred) fire(key string, token uint64) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.token != token || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	h := s.handlers[e.task.Kind]
	in := s.running[key]
	if in == nil {
		in = &inflight{}
		s.running[key] = in
	}
	in.n++
	in.wg.Add(1)
	s.mu.Unlock()

	defer s.finish(key, in)

	if h == nil {
		s.logger.Warnf(providers.TypeScheduler, "No handler for %s, dropping %s", e.task.Kind, key)
		return
	}
	s.metrics.IncTasksFired(string(e.task.Kind))
	s.run(h, e.task)
}

func (s *Deferred) run(h Handler, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf(providers.TypeScheduler, "Handler for %s %s panicked: %v", task.Kind, task.Key, r)
		}
	}()
	h(s.ctx, task)
}

func (s *Deferred) finish(key string, in *inflight) {
	s.mu.Lock()
	in.n--
	if in.n == 0 && s.running[key] == in {
		delete(s.running, key)
	}
	s.mu.Unlock()
	in.wg.Done()
}
