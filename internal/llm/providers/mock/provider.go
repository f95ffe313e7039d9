package mockprovider

import (
	"context"
	"sync/atomic"
	"time"

	"modelrelay/internal/llm/core"
)

// Provider emits a predefined event script for deterministic tests.
type Provider struct {
	Events []core.Event
	Delay  time.Duration
	Err    error

	calls atomic.Int64
}

// Calls reports how many times Stream was invoked.
func (m *Provider) Calls() int64 {
	return m.calls.Load()
}

// Stream emits scripted events in order until exhaustion or cancellation.
// A non-nil Err fails the call before any event is produced.
func (m *Provider) Stream(ctx context.Context, req *core.Request) (<-chan core.Event, error) {
	_ = req
	m.calls.Add(1)

	if m.Err != nil {
		return nil, m.Err
	}

	out := make(chan core.Event, 1)
	go func() {
		defer close(out)
		for _, ev := range m.Events {
			if m.Delay > 0 {
				timer := time.NewTimer(m.Delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					core.SendTerminalEvent(ctx, out, core.Event{
						Type: core.EventError,
						Done: &core.DonePayload{Reason: core.StopReasonAborted},
						Err:  ctx.Err(),
					})
					return
				case <-timer.C:
				}
			}

			select {
			case <-ctx.Done():
				core.SendTerminalEvent(ctx, out, core.Event{
					Type: core.EventError,
					Done: &core.DonePayload{Reason: core.StopReasonAborted},
					Err:  ctx.Err(),
				})
				return
			case out <- ev:
			}
		}
	}()

	return out, nil
}
