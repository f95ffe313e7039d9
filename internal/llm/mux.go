package llm

import (
	"context"
	"fmt"
	"strings"

	"modelrelay/internal/llm/core"
)

// Registry holds one adapter per provider wire protocol. It is populated at
// startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	providers map[core.ProviderID]core.Provider
}

// NewRegistry constructs an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[core.ProviderID]core.Provider{}}
}

// Register binds an adapter to a provider tag, replacing any previous one.
// A nil provider unbinds the tag.
func (r *Registry) Register(id core.ProviderID, p core.Provider) {
	if p == nil {
		delete(r.providers, id)
		return
	}
	r.providers[id] = p
}

// Provider returns the adapter bound to a provider tag.
func (r *Registry) Provider(id core.ProviderID) (core.Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// Mux dispatches streaming requests to the adapter named by the model's
// provider tag. Callers never touch an adapter directly; adding a provider
// means registering one more adapter, not touching callers.
type Mux struct {
	registry *Registry
}

// NewMux constructs a multiplexer over a populated registry.
func NewMux(registry *Registry) *Mux {
	return &Mux{registry: registry}
}

// Stream dispatches one streaming completion. The provider tag is validated
// before any adapter is invoked: an unknown tag or an unregistered adapter
// fails here, never downstream. The request's model and token budget are
// filled from the model config when the caller left them unset.
func (m *Mux) Stream(ctx context.Context, model core.ModelConfig, req *core.Request) (<-chan core.Event, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", core.ErrInvalidRequest)
	}

	id, err := core.ParseProviderID(string(model.Provider))
	if err != nil {
		return nil, err
	}

	provider, ok := m.registry.Provider(id)
	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for %q", core.ErrNotConfigured, id)
	}

	dispatched := *req
	if strings.TrimSpace(dispatched.Model) == "" {
		dispatched.Model = model.Model
	}
	if model.MaxOutputTokens > 0 {
		if dispatched.MaxTokens <= 0 || dispatched.MaxTokens > model.MaxOutputTokens {
			dispatched.MaxTokens = model.MaxOutputTokens
		}
	}

	return provider.Stream(ctx, &dispatched)
}

// Completion is a fully drained stream: the concatenated text, any tool
// calls, and the terminal payload.
type Completion struct {
	Text      string
	ToolCalls []core.ToolCall
	Reason    core.StopReason
	Usage     core.Usage
}

// Collect drains one event stream into a Completion. It returns the stream's
// error if the stream failed; partial text is returned alongside the error
// so callers can surface what the user already saw.
func Collect(stream <-chan core.Event) (Completion, error) {
	var out Completion
	var text strings.Builder
	var streamErr error

	for ev := range stream {
		switch ev.Type {
		case core.EventTextDelta:
			text.WriteString(ev.TextDelta)
		case core.EventToolCallEnd:
			if ev.ToolCall != nil {
				out.ToolCalls = append(out.ToolCalls, *ev.ToolCall)
			}
		case core.EventDone:
			if ev.Done != nil {
				out.Reason = ev.Done.Reason
				out.Usage = ev.Done.Usage
			}
		case core.EventError:
			streamErr = ev.Err
			if ev.Done != nil {
				out.Reason = ev.Done.Reason
				out.Usage = ev.Done.Usage
			}
		}
	}

	out.Text = text.String()
	return out, streamErr
}
