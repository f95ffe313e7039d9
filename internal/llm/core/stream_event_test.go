package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSendEventDeliversWhenContextLive(t *testing.T) {
	t.Parallel()

	events := make(chan Event, 1)
	err := SendEvent(context.Background(), events, Event{Type: EventTextDelta, TextDelta: "hi"})
	if err != nil {
		t.Fatalf("SendEvent() error = %v", err)
	}
	got := <-events
	if got.TextDelta != "hi" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestSendEventAbortsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan Event) // unbuffered, nobody reading
	err := SendEvent(ctx, events, Event{Type: EventTextDelta})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("SendEvent() error = %v, want context.Canceled", err)
	}
}

func TestSendTerminalEventWaitsForSlowConsumer(t *testing.T) {
	t.Parallel()

	full := make(chan Event, 1)
	full <- Event{Type: EventTextDelta}

	// The consumer lags behind by one event; the terminal error must wait
	// for it rather than vanish.
	go func() {
		time.Sleep(20 * time.Millisecond)
		<-full
	}()

	SendTerminalEvent(context.Background(), full, Event{Type: EventError, Err: errors.New("boom")})

	got := <-full
	if got.Type != EventError {
		t.Fatalf("expected terminal error event, got %+v", got)
	}
}

func TestSendTerminalEventGivesUpOnceCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	full := make(chan Event, 1)
	full <- Event{Type: EventTextDelta}

	// The consumer is gone; must not hang even though nobody drains.
	SendTerminalEvent(ctx, full, Event{Type: EventError, Err: errors.New("boom")})

	got := <-full
	if got.Type != EventTextDelta {
		t.Fatalf("expected original event to remain, got %+v", got)
	}
}
