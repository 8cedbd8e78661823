package event

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 64

type Handler func(ctx context.Context, e Event) error

// Listener fans events out to the registered handlers from its own goroutine. Send never blocks:
// when the buffer is full the event is dropped.
type Listener struct {
	mu       sync.RWMutex
	handlers []Handler
	events   chan Event
	dropped  atomic.Int64
	logger   *slog.Logger
}

func NewListener(logger *slog.Logger) *Listener {
	return &Listener{
		events: make(chan Event, defaultBufferSize),
		logger: logger,
	}
}

func (l *Listener) Register(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

// Send queues e for the handlers. A nil listener discards everything.
func (l *Listener) Send(e Event) {
	if l == nil {
		return
	}
	select {
	case l.events <- e:
	default:
		l.dropped.Add(1)
		l.logger.Debug("Event buffer full, dropping event", slog.String("message", e.Message()))
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (l *Listener) Dropped() int64 {
	return l.dropped.Load()
}

func (l *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-l.events:
			l.dispatch(ctx, e)
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, e Event) {
	l.mu.RLock()
	handlers := append([]Handler(nil), l.handlers...)
	l.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			l.logger.Error("error running event handler", slog.Any("error", err))
		}
	}
}

// LogHandler writes every event to the logger.
func LogHandler(logger *slog.Logger) Handler {
	return func(_ context.Context, e Event) error {
		logger.Info("Event", slog.String("supervisor", e.Supervisor()), slog.String("message", e.Message()))
		return nil
	}
}
