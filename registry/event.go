package registry

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Emitter is a synchronous, payload-free change notifier.
// Listeners run in subscription order on the goroutine calling Fire. Fire
// iterates over a snapshot, so listeners may subscribe, unsubscribe or
// mutate the registry that owns the emitter.
type Emitter struct {
	mu        sync.Mutex
	listeners []*listener
	logger    *slog.Logger
}

type listener struct {
	fn      func()
	removed atomic.Bool
}

// Subscription is returned by Subscribe. Disposing it more than once is a no-op.
type Subscription struct {
	emitter  *Emitter
	listener *listener
}

// NewEmitter creates an emitter that logs recovered listener panics to logger.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{logger: logger}
}

// Subscribe registers fn to be called on every Fire.
func (e *Emitter) Subscribe(fn func()) *Subscription {
	l := &listener{fn: fn}

	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()

	return &Subscription{emitter: e, listener: l}
}

// Dispose removes the listener.
func (s *Subscription) Dispose() {
	if s == nil || s.listener.removed.Swap(true) {
		return
	}
	s.emitter.remove(s.listener)
}

func (e *Emitter) remove(l *listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, candidate := range e.listeners {
		if candidate == l {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return
		}
	}
}

// Fire calls every current listener once. Listeners removed by an earlier
// listener in the same round are skipped.
func (e *Emitter) Fire() {
	e.mu.Lock()
	snapshot := make([]*listener, len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.Unlock()

	for _, l := range snapshot {
		if l.removed.Load() {
			continue
		}
		e.safeCall(l.fn)
	}
}

// Len returns the number of subscribed listeners.
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// Dispose removes every listener.
func (e *Emitter) Dispose() {
	e.mu.Lock()
	listeners := e.listeners
	e.listeners = nil
	e.mu.Unlock()

	for _, l := range listeners {
		l.removed.Store(true)
	}
}

// safeCall recovers a panicking listener so the remaining listeners still run.
func (e *Emitter) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("change listener panicked",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
