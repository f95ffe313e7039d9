package core

import (
	"context"
	"encoding/json"
	"time"
)

// Provider streams model events for a single request. Implementations are
// safe for concurrent use: client handles are read-only after construction
// and each Stream call is independent.
type Provider interface {
	Stream(ctx context.Context, req *Request) (<-chan Event, error)
}

// EventType identifies stream event variants.
type EventType string

const (
	EventStart         EventType = "start"
	EventTextDelta     EventType = "text_delta"
	EventToolCallStart EventType = "tool_call_start"
	EventToolCallDelta EventType = "tool_call_delta"
	EventToolCallEnd   EventType = "tool_call_end"
	EventUsage         EventType = "usage"
	EventDone          EventType = "done"
	EventError         EventType = "error"
)

// ToolChoiceType defines how the provider may choose tools.
type ToolChoiceType string

const (
	ToolChoiceAuto ToolChoiceType = "auto"
	ToolChoiceAny  ToolChoiceType = "any"
	ToolChoiceNone ToolChoiceType = "none"
	ToolChoiceTool ToolChoiceType = "tool"
)

// ToolChoice controls provider tool dispatch mode.
type ToolChoice struct {
	Type ToolChoiceType `json:"type"`
	Name string         `json:"name,omitempty"`
}

// ToolSpec describes a tool exposed to the model.
// Schema can be generated from a Go struct via NewToolSpecFromStruct.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

// RetryPolicy configures retry/backoff behavior for retryable failures.
// The zero value disables retries; retrying is a caller decision.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Request is the provider-agnostic streaming request. System may be empty,
// in which case no system-role content is injected by the adapter. An empty
// message list is legal; the provider decides what to make of it.
type Request struct {
	Model      string
	System     string
	Messages   []Message
	Tools      []ToolSpec
	MaxTokens  int
	ToolChoice ToolChoice
	Metadata   map[string]string
	Retry      RetryPolicy
}

// DonePayload carries the final status when the stream ends normally.
type DonePayload struct {
	Reason StopReason
	Usage  Usage
}

// Event is the provider-agnostic streaming event. A successful stream is
// zero or more text/tool/usage events followed by exactly one done event;
// a failed stream ends with a single error event and never a done event.
type Event struct {
	Type          EventType
	TextDelta     string
	ToolCall      *ToolCall
	ToolCallDelta string
	Usage         *Usage
	Done          *DonePayload
	Err           error
}
