package core

import "context"

// SendEvent forwards an event unless the context has already been canceled.
// This is what lets an abandoned consumer unwind the producing goroutine.
func SendEvent(ctx context.Context, events chan<- Event, event Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case events <- event:
		return nil
	}
}

// SendTerminalEvent delivers a terminal event to the consumer. The send
// blocks until the consumer takes it, so a consumer that is merely slow
// still learns how the stream ended. Once the context is done the consumer
// has abandoned the stream, and delivery degrades to a single non-blocking
// attempt so the producing goroutine can unwind.
func SendTerminalEvent(ctx context.Context, events chan<- Event, event Event) {
	if SendEvent(ctx, events, event) == nil {
		return
	}
	select {
	case events <- event:
	default:
	}
}
