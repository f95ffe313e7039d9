package anthropicprovider

import (
	"errors"
	"testing"

	"modelrelay/internal/llm/core"
)

func TestParamsRequireModel(t *testing.T) {
	t.Parallel()

	_, err := toAnthropicSDKParams(&core.Request{
		Messages: []core.Message{core.TextMessage(core.RoleUser, "hi")},
	})
	if !errors.Is(err, core.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing model, got %v", err)
	}

	if _, err := toAnthropicSDKParams(nil); !errors.Is(err, core.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for nil request, got %v", err)
	}
}

// TestParamsEmptyMessagesIsLegal pins that an empty transcript does not crash
// the adapter; whether the provider accepts it is the provider's business.
func TestParamsEmptyMessagesIsLegal(t *testing.T) {
	t.Parallel()

	params, err := toAnthropicSDKParams(&core.Request{Model: "claude-sonnet-4-20250514"})
	if err != nil {
		t.Fatalf("toAnthropicSDKParams() error = %v", err)
	}
	if len(params.Messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(params.Messages))
	}
}

// TestParamsSystemStaysOutOfMessageList verifies system content rides the
// dedicated system parameter: both the request-level prompt and system-role
// transcript entries.
func TestParamsSystemStaysOutOfMessageList(t *testing.T) {
	t.Parallel()

	req := &core.Request{
		Model:  "claude-sonnet-4-20250514",
		System: "be terse",
		Messages: []core.Message{
			core.TextMessage(core.RoleSystem, "answer in english"),
			core.TextMessage(core.RoleUser, "hi"),
			core.TextMessage(core.RoleAssistant, "hello"),
		},
	}

	params, err := toAnthropicSDKParams(req)
	if err != nil {
		t.Fatalf("toAnthropicSDKParams() error = %v", err)
	}

	if len(params.Messages) != 2 {
		t.Fatalf("message count = %d, want 2 (system folded out)", len(params.Messages))
	}
	if len(params.System) != 1 {
		t.Fatalf("system blocks = %d, want 1", len(params.System))
	}
	if params.System[0].Text != "be terse\n\nanswer in english" {
		t.Fatalf("unexpected system text: %q", params.System[0].Text)
	}
}

// TestParamsNoSystemPromptInjectsNothing verifies absence of a system prompt
// leaves the system parameter empty.
func TestParamsNoSystemPromptInjectsNothing(t *testing.T) {
	t.Parallel()

	params, err := toAnthropicSDKParams(&core.Request{
		Model:    "claude-sonnet-4-20250514",
		Messages: []core.Message{core.TextMessage(core.RoleUser, "hi")},
	})
	if err != nil {
		t.Fatalf("toAnthropicSDKParams() error = %v", err)
	}
	if len(params.System) != 0 {
		t.Fatalf("expected empty system parameter, got %+v", params.System)
	}
}

func TestParamsDefaultsMaxTokens(t *testing.T) {
	t.Parallel()

	params, err := toAnthropicSDKParams(&core.Request{
		Model:    "claude-sonnet-4-20250514",
		Messages: []core.Message{core.TextMessage(core.RoleUser, "hi")},
	})
	if err != nil {
		t.Fatalf("toAnthropicSDKParams() error = %v", err)
	}
	if params.MaxTokens != defaultMaxTokens {
		t.Fatalf("MaxTokens = %d, want default %d", params.MaxTokens, defaultMaxTokens)
	}
}

func TestMapStopReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want core.StopReason
	}{
		{"end_turn", core.StopReasonStop},
		{"stop_sequence", core.StopReasonStop},
		{"max_tokens", core.StopReasonLength},
		{"tool_use", core.StopReasonToolUse},
		{"refusal", core.StopReasonError},
	}
	for _, tc := range tests {
		got, err := mapStopReason(tc.raw)
		if err != nil {
			t.Fatalf("mapStopReason(%q) error = %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("mapStopReason(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}

	if _, err := mapStopReason("mystery"); err == nil {
		t.Fatalf("expected error for unknown stop reason")
	}
}
