package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8, DropIfFull: true}, sink)

	d.Emit(context.Background(), Event{Action: "user.login", Success: true})
	d.Close()

	events := sink.snapshot()
	if len(events) != 1 {
		t.Fatalf("delivered %d events, want 1", len(events))
	}
	if events[0].Action != "user.login" || !events[0].Success {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &captureSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}

	// Nil dispatcher methods are no-ops.
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher Dropped must be 0")
	}
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64, DropIfFull: true}, sink)

	for i := 0; i < 32; i++ {
		d.Emit(context.Background(), Event{Action: "user.login"})
	}
	d.Close()

	if got := len(sink.snapshot()); got != 32 {
		t.Fatalf("delivered %d events after close, want 32", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := &blockingSink{release: block}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the worker, second fills the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Action: "user.login"})
	}

	deadline := time.After(2 * time.Second)
	for d.Dropped() == 0 {
		select {
		case <-deadline:
			close(block)
			d.Close()
			t.Fatal("expected dropped events with a full buffer")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
	once    sync.Once
}

func (s *blockingSink) Emit(_ context.Context, _ Event) {
	s.once.Do(func() { <-s.release })
}

func TestDispatcherEmitAfterClose(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8, DropIfFull: true}, sink)
	d.Close()

	d.Emit(context.Background(), Event{Action: "user.login"})

	if got := len(sink.snapshot()); got != 0 {
		t.Fatalf("delivered %d events after close, want 0", got)
	}
}

func TestJSONWriterSinkWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		ID:        "evt-1",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Action:    "user.register",
		Username:  "alice",
		Success:   true,
	})

	line := strings.TrimSpace(buf.String())
	if strings.Count(line, "\n") != 0 {
		t.Fatalf("expected one line, got %q", buf.String())
	}

	var decoded Event
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if decoded.Action != "user.register" || decoded.Username != "alice" {
		t.Fatalf("unexpected decoded event: %+v", decoded)
	}
}

func TestChannelSinkDelivers(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Emit(context.Background(), Event{Action: "user.login"})

	select {
	case event := <-sink.Events():
		if event.Action != "user.login" {
			t.Fatalf("unexpected event: %+v", event)
		}
	default:
		t.Fatal("expected buffered event")
	}
}
