package anthropicprovider

import anthropic "github.com/anthropics/anthropic-sdk-go"
import "modelrelay/internal/llm/core"

// applyStartUsage maps message_start usage counters to canonical usage fields.
func applyStartUsage(dst *core.Usage, usage anthropic.Usage) {
	dst.InputTokens = int(usage.InputTokens)
	dst.OutputTokens = int(usage.OutputTokens)
	dst.CacheReadTokens = int(usage.CacheReadInputTokens)
	dst.CacheWriteTokens = int(usage.CacheCreationInputTokens)
}

// applyDeltaUsage maps message_delta usage counters to canonical usage
// fields. Input and cache counts arrive on message_start and may be absent
// here; a zero must not clobber what message_start already reported.
func applyDeltaUsage(dst *core.Usage, usage anthropic.MessageDeltaUsage) {
	if usage.InputTokens > 0 {
		dst.InputTokens = int(usage.InputTokens)
	}
	dst.OutputTokens = int(usage.OutputTokens)
	if usage.CacheReadInputTokens > 0 {
		dst.CacheReadTokens = int(usage.CacheReadInputTokens)
	}
	if usage.CacheCreationInputTokens > 0 {
		dst.CacheWriteTokens = int(usage.CacheCreationInputTokens)
	}
}
