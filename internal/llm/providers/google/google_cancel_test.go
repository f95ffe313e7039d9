package googleprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"modelrelay/internal/llm/core"
)

// TestStreamCancelReturnsAbortedError verifies cancellation maps to an
// aborted terminal reason and the server-side request is released.
func TestStreamCancelReturnsAbortedError(t *testing.T) {
	t.Parallel()

	released := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flushChunks(t, w,
			"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"partial\"}]}}]}\n\n",
		)
		<-r.Context().Done()
		close(released)
	}))
	defer server.Close()

	p := New(Config{APIKey: "test-key", BaseURL: server.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := p.Stream(ctx, &core.Request{
		Model:    "gemini-2.0-flash",
		Messages: []core.Message{core.TextMessage(core.RoleUser, "hello")},
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var seenDelta, seenAborted bool
	for ev := range stream {
		if ev.Type == core.EventTextDelta {
			seenDelta = true
			cancel()
		}
		if ev.Type == core.EventDone {
			t.Fatalf("done event on a canceled stream")
		}
		if ev.Type == core.EventError && ev.Done != nil && ev.Done.Reason == core.StopReasonAborted {
			seenAborted = true
		}
	}

	if !seenDelta {
		t.Fatalf("expected a text delta before cancellation")
	}
	if !seenAborted {
		t.Fatalf("expected aborted EventError after cancellation")
	}

	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatalf("upstream connection was not released after cancellation")
	}
}
