package openaiprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"modelrelay/internal/llm/core"
)

const doneSentinel = "[DONE]"

// streamResponses consumes one responses-endpoint stream.
func (p *Provider) streamResponses(
	ctx context.Context,
	req *core.Request,
	events chan<- core.Event,
	state *streamState,
) error {
	body, err := responsesRequestBody(req)
	if err != nil {
		return err
	}

	resp, err := p.post(ctx, "/responses", body)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var dec core.SSEDecoder
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := resp.Body.Read(buf)
		for _, payload := range dec.Feed(buf[:n]) {
			if payload == doneSentinel {
				continue
			}
			if !gjson.Valid(payload) {
				dec.MarkSkipped()
				continue
			}
			if err := p.handleResponsesPayload(ctx, payload, events, state); err != nil {
				return err
			}
			if state.emittedDone {
				return nil
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %v", core.ErrUpstream, readErr)
		}
	}

	if state.emittedDone {
		return nil
	}
	return fmt.Errorf("%w: responses stream ended without completion", core.ErrUpstream)
}

// handleResponsesPayload maps one responses-endpoint event into canonical events.
func (p *Provider) handleResponsesPayload(
	ctx context.Context,
	payload string,
	events chan<- core.Event,
	state *streamState,
) error {
	switch gjson.Get(payload, "type").String() {
	case "response.output_text.delta":
		delta := gjson.Get(payload, "delta").String()
		if delta == "" {
			return nil
		}
		state.emittedVisible = true
		return core.SendEvent(ctx, events, core.Event{Type: core.EventTextDelta, TextDelta: delta})

	case "response.completed", "response.incomplete":
		state.usage.InputTokens = int(gjson.Get(payload, "response.usage.input_tokens").Int())
		state.usage.OutputTokens = int(gjson.Get(payload, "response.usage.output_tokens").Int())
		state.usage.TotalTokens = state.usage.TokenCount()

		if gjson.Get(payload, "response.incomplete_details.reason").String() == "max_output_tokens" {
			state.reason = core.StopReasonLength
		}

		if err := core.SendEvent(ctx, events, core.Event{Type: core.EventUsage, Usage: state.usage.Clone()}); err != nil {
			return err
		}
		state.emittedDone = true
		return core.SendEvent(ctx, events, core.Event{
			Type: core.EventDone,
			Done: &core.DonePayload{Reason: state.reason, Usage: state.usage},
		})

	case "response.failed", "error":
		message := gjson.Get(payload, "response.error.message").String()
		if message == "" {
			message = gjson.Get(payload, "message").String()
		}
		return fmt.Errorf("%w: %s", core.ErrUpstream, message)
	}

	return nil
}

// streamChat consumes one chat-completions stream.
func (p *Provider) streamChat(
	ctx context.Context,
	req *core.Request,
	events chan<- core.Event,
	state *streamState,
) error {
	body, err := chatRequestBody(req)
	if err != nil {
		return err
	}

	resp, err := p.post(ctx, "/chat/completions", body)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if state.toolCalls == nil {
		state.toolCalls = map[int]*toolCallAccumulator{}
	}

	var dec core.SSEDecoder
	sawSentinel := false
	buf := make([]byte, 4096)
	for !sawSentinel {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := resp.Body.Read(buf)
		for _, payload := range dec.Feed(buf[:n]) {
			if payload == doneSentinel {
				sawSentinel = true
				break
			}
			if !gjson.Valid(payload) {
				dec.MarkSkipped()
				continue
			}
			if err := p.handleChatPayload(ctx, payload, events, state); err != nil {
				return err
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %v", core.ErrUpstream, readErr)
		}
	}

	// EOF before the sentinel with no finish reason means the connection was
	// cut mid-response; that is a failure, not a short answer.
	if !sawSentinel && !state.sawFinish {
		return core.MarkRetryable(fmt.Errorf("%w: chat stream truncated before completion", core.ErrUpstream))
	}

	if err := p.flushToolCalls(ctx, events, state); err != nil {
		return err
	}

	state.emittedDone = true
	return core.SendEvent(ctx, events, core.Event{
		Type: core.EventDone,
		Done: &core.DonePayload{Reason: state.reason, Usage: state.usage},
	})
}

// handleChatPayload maps one chat-completions chunk into canonical events.
func (p *Provider) handleChatPayload(
	ctx context.Context,
	payload string,
	events chan<- core.Event,
	state *streamState,
) error {
	if errMsg := gjson.Get(payload, "error.message"); errMsg.Exists() {
		return fmt.Errorf("%w: %s", core.ErrUpstream, errMsg.String())
	}

	// The final usage chunk arrives with an empty choices array when
	// stream_options.include_usage is set; usage may also be absent
	// entirely, in which case counts stay at zero.
	if usage := gjson.Get(payload, "usage"); usage.Exists() && usage.IsObject() {
		state.usage.InputTokens = int(usage.Get("prompt_tokens").Int())
		state.usage.OutputTokens = int(usage.Get("completion_tokens").Int())
		state.usage.TotalTokens = state.usage.TokenCount()
		if err := core.SendEvent(ctx, events, core.Event{Type: core.EventUsage, Usage: state.usage.Clone()}); err != nil {
			return err
		}
	}

	if reason := gjson.Get(payload, "choices.0.finish_reason"); reason.Exists() && reason.String() != "" {
		state.reason = mapChatFinishReason(reason.String())
		state.sawFinish = true
	}

	if content := gjson.Get(payload, "choices.0.delta.content"); content.Exists() && content.String() != "" {
		state.emittedVisible = true
		if err := core.SendEvent(ctx, events, core.Event{Type: core.EventTextDelta, TextDelta: content.String()}); err != nil {
			return err
		}
	}

	for _, call := range gjson.Get(payload, "choices.0.delta.tool_calls").Array() {
		if err := p.handleToolCallDelta(ctx, call, events, state); err != nil {
			return err
		}
	}

	return nil
}

// handleToolCallDelta accumulates one streamed tool-call fragment.
func (p *Provider) handleToolCallDelta(
	ctx context.Context,
	call gjson.Result,
	events chan<- core.Event,
	state *streamState,
) error {
	index := int(call.Get("index").Int())
	acc, ok := state.toolCalls[index]
	if !ok {
		acc = &toolCallAccumulator{
			id:   call.Get("id").String(),
			name: call.Get("function.name").String(),
		}
		state.toolCalls[index] = acc
		state.emittedVisible = true
		if err := core.SendEvent(ctx, events, core.Event{
			Type: core.EventToolCallStart,
			ToolCall: &core.ToolCall{
				ID:        acc.id,
				Name:      acc.name,
				Arguments: json.RawMessage("{}"),
			},
		}); err != nil {
			return err
		}
	}

	if fragment := call.Get("function.arguments").String(); fragment != "" {
		acc.buf.WriteString(fragment)
		state.emittedVisible = true
		return core.SendEvent(ctx, events, core.Event{Type: core.EventToolCallDelta, ToolCallDelta: fragment})
	}
	return nil
}

// flushToolCalls emits end events for accumulated tool calls in index order.
func (p *Provider) flushToolCalls(ctx context.Context, events chan<- core.Event, state *streamState) error {
	if len(state.toolCalls) == 0 {
		return nil
	}

	indexes := make([]int, 0, len(state.toolCalls))
	for index := range state.toolCalls {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	for _, index := range indexes {
		acc := state.toolCalls[index]
		args := strings.TrimSpace(acc.buf.String())
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return fmt.Errorf("tool_call arguments are not valid JSON")
		}
		if err := core.SendEvent(ctx, events, core.Event{
			Type: core.EventToolCallEnd,
			ToolCall: &core.ToolCall{
				ID:        acc.id,
				Name:      acc.name,
				Arguments: json.RawMessage(args),
			},
		}); err != nil {
			return err
		}
	}
	state.toolCalls = map[int]*toolCallAccumulator{}
	return nil
}

// mapChatFinishReason maps chat-completions finish reasons to canonical values.
func mapChatFinishReason(reason string) core.StopReason {
	switch reason {
	case "length":
		return core.StopReasonLength
	case "tool_calls", "function_call":
		return core.StopReasonToolUse
	case "content_filter":
		return core.StopReasonError
	default:
		return core.StopReasonStop
	}
}
