package openaiprovider

import (
	"encoding/json"
	"fmt"
	"strings"

	"modelrelay/internal/llm/core"
)

// defaultMaxTokens is used when callers do not provide an explicit token budget.
const defaultMaxTokens = 1024

// maxTokensParam returns the wire name of the output-token limit for a model.
// Reasoning-era model families renamed the parameter; the caller should not
// have to know which generation it is talking to.
func maxTokensParam(model string) string {
	lowered := strings.ToLower(model)
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(lowered, prefix) {
			return "max_completion_tokens"
		}
	}
	return "max_tokens"
}

// chatRequestBody builds the chat-completions payload for a canonical request.
func chatRequestBody(req *core.Request) ([]byte, error) {
	messages, err := toChatMessages(req)
	if err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"stream":   true,
		"stream_options": map[string]any{
			"include_usage": true,
		},
		maxTokensParam(req.Model): maxTokens,
	}

	if len(req.Tools) > 0 {
		body["tools"] = toChatTools(req.Tools)
		if choice, ok := toChatToolChoice(req.ToolChoice); ok {
			body["tool_choice"] = choice
		}
	}

	return json.Marshal(body)
}

// toChatMessages maps the canonical transcript onto chat-completions roles.
// An empty system prompt injects nothing.
func toChatMessages(req *core.Request) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		out = append(out, map[string]any{"role": "system", "content": system})
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case core.RoleSystem:
			out = append(out, map[string]any{"role": "system", "content": msg.Text()})
		case core.RoleUser:
			out = append(out, map[string]any{"role": "user", "content": msg.Text()})
		case core.RoleAssistant:
			entry := map[string]any{"role": "assistant", "content": msg.Text()}
			if calls := toChatToolCalls(msg.ToolCalls); len(calls) > 0 {
				entry["tool_calls"] = calls
			}
			out = append(out, entry)
		case core.RoleTool:
			if msg.ToolResult == nil {
				continue
			}
			out = append(out, map[string]any{
				"role":         "tool",
				"tool_call_id": msg.ToolResult.ToolCallID,
				"content":      msg.ToolResult.Content,
			})
		default:
			return nil, fmt.Errorf("%w: unsupported role %q", core.ErrInvalidRequest, msg.Role)
		}
	}

	return out, nil
}

// toChatToolCalls serializes prior assistant tool calls for the transcript.
func toChatToolCalls(calls []core.ToolCall) []map[string]any {
	out := make([]map[string]any, 0, len(calls))
	for _, call := range calls {
		if strings.TrimSpace(call.ID) == "" || strings.TrimSpace(call.Name) == "" {
			continue
		}
		args := string(call.Arguments)
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		out = append(out, map[string]any{
			"id":   call.ID,
			"type": "function",
			"function": map[string]any{
				"name":      call.Name,
				"arguments": args,
			},
		})
	}
	return out
}

// toChatTools maps canonical tool specs onto the functions wire shape.
func toChatTools(tools []core.ToolSpec) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		schema, err := core.DecodeToolJSONSchema(tool.Schema)
		if err != nil {
			continue
		}
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters": map[string]any{
					"type":       schema.Type,
					"properties": schema.Properties,
					"required":   schema.Required,
				},
			},
		})
	}
	return out
}

// toChatToolChoice maps canonical tool choice onto the wire values.
func toChatToolChoice(choice core.ToolChoice) (any, bool) {
	switch choice.Type {
	case core.ToolChoiceAuto:
		return "auto", true
	case core.ToolChoiceAny:
		return "required", true
	case core.ToolChoiceNone:
		return "none", true
	case core.ToolChoiceTool:
		if strings.TrimSpace(choice.Name) == "" {
			return nil, false
		}
		return map[string]any{
			"type":     "function",
			"function": map[string]any{"name": choice.Name},
		}, true
	default:
		return nil, false
	}
}

// responsesRequestBody builds the responses-endpoint payload. System content
// (request-level and transcript system roles) travels as instructions.
func responsesRequestBody(req *core.Request) ([]byte, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var instructions []string
	if system := strings.TrimSpace(req.System); system != "" {
		instructions = append(instructions, system)
	}

	input := make([]map[string]any, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case core.RoleSystem:
			if text := strings.TrimSpace(msg.Text()); text != "" {
				instructions = append(instructions, text)
			}
		case core.RoleUser:
			input = append(input, map[string]any{"role": "user", "content": msg.Text()})
		case core.RoleAssistant:
			input = append(input, map[string]any{"role": "assistant", "content": msg.Text()})
		case core.RoleTool:
			// Tool transcripts force the chat-completions path upstream of
			// this builder.
			return nil, fmt.Errorf("%w: tool messages on responses path", core.ErrInvalidRequest)
		default:
			return nil, fmt.Errorf("%w: unsupported role %q", core.ErrInvalidRequest, msg.Role)
		}
	}

	body := map[string]any{
		"model":             req.Model,
		"stream":            true,
		"input":             input,
		"max_output_tokens": maxTokens,
	}
	if len(instructions) > 0 {
		body["instructions"] = strings.Join(instructions, "\n\n")
	}

	return json.Marshal(body)
}
