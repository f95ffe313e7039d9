package googleprovider

import (
	"encoding/json"
	"fmt"
	"strings"

	"modelrelay/internal/llm/core"
)

// defaultMaxTokens is used when callers do not provide an explicit token budget.
const defaultMaxTokens = 1024

// systemAck is the synthetic model turn that closes the injected system
// exchange. The wire protocol has no system role, so instructions travel as
// a leading user turn the model has already agreed to follow.
const systemAck = "Understood. I will follow these instructions."

// requestBody builds the streamGenerateContent payload for a canonical
// request.
func requestBody(req *core.Request) ([]byte, error) {
	contents, err := toContents(req)
	if err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := map[string]any{
		"contents": contents,
		"generationConfig": map[string]any{
			"maxOutputTokens": maxTokens,
		},
	}
	return json.Marshal(body)
}

// toContents maps the canonical transcript onto Gemini contents. System
// content (request-level and transcript system roles) is synthesized as a
// leading user/model exchange; an empty system prompt injects nothing.
func toContents(req *core.Request) ([]map[string]any, error) {
	var systemParts []string
	if system := strings.TrimSpace(req.System); system != "" {
		systemParts = append(systemParts, system)
	}

	var turns []map[string]any
	for _, msg := range req.Messages {
		switch msg.Role {
		case core.RoleSystem:
			if text := strings.TrimSpace(msg.Text()); text != "" {
				systemParts = append(systemParts, text)
			}
		case core.RoleUser:
			turns = append(turns, contentTurn("user", msg.Text()))
		case core.RoleAssistant:
			turns = append(turns, contentTurn("model", msg.Text()))
		case core.RoleTool:
			return nil, fmt.Errorf("%w: tool messages are not supported by this provider", core.ErrInvalidRequest)
		default:
			return nil, fmt.Errorf("%w: unsupported role %q", core.ErrInvalidRequest, msg.Role)
		}
	}

	if len(systemParts) == 0 {
		return turns, nil
	}

	out := make([]map[string]any, 0, len(turns)+2)
	out = append(out, contentTurn("user", strings.Join(systemParts, "\n\n")))
	out = append(out, contentTurn("model", systemAck))
	return append(out, turns...), nil
}

func contentTurn(role, text string) map[string]any {
	return map[string]any{
		"role": role,
		"parts": []map[string]any{
			{"text": text},
		},
	}
}
