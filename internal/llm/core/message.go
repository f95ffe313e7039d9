package core

import "encoding/json"

// Role identifies the message author in the canonical request format.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// StopReason represents the canonical reason a model response stopped.
type StopReason string

const (
	StopReasonStop    StopReason = "stop"
	StopReasonLength  StopReason = "length"
	StopReasonToolUse StopReason = "tool_use"
	StopReasonError   StopReason = "error"
	StopReasonAborted StopReason = "aborted"
)

// ContentType identifies content block variants.
type ContentType string

const (
	ContentTypeText ContentType = "text"
)

// ContentBlock is a canonical content unit. Text only.
type ContentBlock struct {
	Type ContentType `json:"type"`
	Text string      `json:"text,omitempty"`
}

// ToolCall represents a model-emitted tool invocation.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolResult represents the local execution result for a tool call.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// Message is the provider-agnostic conversation record. Transcripts are
// append-only; the core never mutates messages it is handed.
type Message struct {
	Role       Role           `json:"role"`
	Content    []ContentBlock `json:"content,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	ToolResult *ToolResult    `json:"tool_result,omitempty"`
}

// TextMessage builds a single-text-block message.
func TextMessage(role Role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentBlock{{Type: ContentTypeText, Text: text}},
	}
}

// Text concatenates the message's text blocks.
func (m Message) Text() string {
	var out string
	for _, block := range m.Content {
		if block.Type == ContentTypeText {
			out += block.Text
		}
	}
	return out
}

// Usage tracks provider token accounting. Providers that omit usage metadata
// leave counts at zero; callers cannot distinguish that from a reported zero.
type Usage struct {
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
	CacheReadTokens  int `json:"cache_read_tokens"`
	CacheWriteTokens int `json:"cache_write_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TokenCount returns the total tokens consumed across all usage buckets.
func (u Usage) TokenCount() int {
	return u.InputTokens + u.OutputTokens + u.CacheReadTokens + u.CacheWriteTokens
}

// Clone returns a copy safe to share as pointer payload.
func (u Usage) Clone() *Usage {
	copied := u
	return &copied
}
