package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendNeverBlocks(t *testing.T) {
	l := NewListener(testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < defaultBufferSize*2; i++ {
			l.Send(LeaderLost(Text("bot", "leader lost"), "Exile"))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Send blocked without a running listener")
	}
	if l.Dropped() != defaultBufferSize {
		t.Errorf("expected %d dropped events, got %d", defaultBufferSize, l.Dropped())
	}
}

func TestListenDispatchesToHandlers(t *testing.T) {
	l := NewListener(testLogger())

	var mu sync.Mutex
	var got []Event
	received := make(chan struct{}, 2)
	l.Register(func(_ context.Context, e Event) error {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		received <- struct{}{}
		return nil
	})
	l.Register(func(_ context.Context, e Event) error {
		return errors.New("handler errors are only logged")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Listen(ctx)

	l.Send(ZoneLoaded(Text("bot", "zone loaded"), "The Coast", true))
	l.Send(TaskAbandoned(Text("bot", "task abandoned"), "Movement", 10, "attempts exhausted"))

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if _, ok := got[0].(ZoneLoadedEvent); !ok {
		t.Errorf("expected ZoneLoadedEvent first, got %T", got[0])
	}
	if evt, ok := got[1].(TaskAbandonedEvent); !ok || evt.Attempts != 10 {
		t.Errorf("expected TaskAbandonedEvent with 10 attempts, got %#v", got[1])
	}
}

func TestNilListenerSend(t *testing.T) {
	var l *Listener
	l.Send(LeaderLost(Text("bot", "leader lost"), "Exile"))
}
