package googleprovider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"modelrelay/internal/llm/core"
)

// defaultBaseURL targets the public Generative Language API.
const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Config configures the Google adapter. Unlike the other providers this one
// has no client library; a bare API key is all the credential it needs.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Provider speaks the streamGenerateContent SSE wire protocol over plain
// HTTP with manual chunk decoding. The handle is read-only after New and is
// safe for concurrent use.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	skipped    atomic.Int64
}

// New constructs a provider with sane defaults.
func New(cfg Config) *Provider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}

	return &Provider{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// SkippedLineCount reports how many malformed stream lines this provider has
// discarded across all requests. Skipping is a protocol-conformance
// concession, not an error, but the count is useful when debugging an
// OpenAI-compatible proxy that mangles frames.
func (p *Provider) SkippedLineCount() int64 {
	return p.skipped.Load()
}

// Stream executes a single streaming completion request. Tool specs are
// ignored on this path; tool-calling requests belong on the other providers.
func (p *Provider) Stream(ctx context.Context, req *core.Request) (<-chan core.Event, error) {
	if p == nil {
		return nil, fmt.Errorf("google provider is nil")
	}
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: google api key", core.ErrNotConfigured)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", core.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("%w: model is required", core.ErrInvalidRequest)
	}

	body, err := requestBody(req)
	if err != nil {
		return nil, err
	}

	events := make(chan core.Event, 1)

	go func() {
		defer close(events)
		usage := core.Usage{}
		if err := p.consumeStream(ctx, req.Model, body, events, &usage); err != nil {
			reason := core.StopReasonError
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				reason = core.StopReasonAborted
			}
			core.SendTerminalEvent(ctx, events, core.Event{
				Type: core.EventError,
				Done: &core.DonePayload{Reason: reason, Usage: usage},
				Err:  fmt.Errorf("google stream: %w", err),
			})
		}
	}()

	return events, nil
}

// consumeStream performs the HTTP call and decodes the SSE frames manually,
// holding back the trailing partial line across network reads.
func (p *Provider) consumeStream(
	ctx context.Context,
	model string,
	body []byte,
	events chan<- core.Event,
	usage *core.Usage,
) error {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse",
		p.baseURL, url.PathEscape(model))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", core.ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return fmt.Errorf("%w: status %d: %s", core.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if err := core.SendEvent(ctx, events, core.Event{Type: core.EventStart}); err != nil {
		return err
	}

	reason := core.StopReasonStop
	sawFinish := false
	var dec core.SSEDecoder
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := resp.Body.Read(buf)
		for _, payload := range dec.Feed(buf[:n]) {
			if !gjson.Valid(payload) {
				dec.MarkSkipped()
				continue
			}
			if err := p.handlePayload(ctx, payload, events, usage, &reason, &sawFinish); err != nil {
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
	p.skipped.Add(int64(dec.Skipped()))

	// EOF with no finishReason on any candidate means the connection was cut
	// mid-response; that is a failure, not a short answer.
	if !sawFinish {
		return core.MarkRetryable(fmt.Errorf("%w: stream truncated before completion", core.ErrUpstream))
	}

	if usage.TokenCount() > 0 {
		if err := core.SendEvent(ctx, events, core.Event{Type: core.EventUsage, Usage: usage.Clone()}); err != nil {
			return err
		}
	}
	return core.SendEvent(ctx, events, core.Event{
		Type: core.EventDone,
		Done: &core.DonePayload{Reason: reason, Usage: *usage},
	})
}

// handlePayload maps one streamGenerateContent chunk into canonical events.
func (p *Provider) handlePayload(
	ctx context.Context,
	payload string,
	events chan<- core.Event,
	usage *core.Usage,
	reason *core.StopReason,
	sawFinish *bool,
) error {
	if errMsg := gjson.Get(payload, "error.message"); errMsg.Exists() {
		return fmt.Errorf("%w: %s", core.ErrUpstream, errMsg.String())
	}

	// Usage metadata repeats across chunks; the latest chunk wins.
	if meta := gjson.Get(payload, "usageMetadata"); meta.Exists() {
		usage.InputTokens = int(meta.Get("promptTokenCount").Int())
		usage.OutputTokens = int(meta.Get("candidatesTokenCount").Int())
		usage.TotalTokens = usage.TokenCount()
	}

	if finish := gjson.Get(payload, "candidates.0.finishReason"); finish.Exists() {
		*reason = mapFinishReason(finish.String())
		*sawFinish = true
	}

	for _, part := range gjson.Get(payload, "candidates.0.content.parts").Array() {
		text := part.Get("text").String()
		if text == "" {
			continue
		}
		if err := core.SendEvent(ctx, events, core.Event{Type: core.EventTextDelta, TextDelta: text}); err != nil {
			return err
		}
	}
	return nil
}

// mapFinishReason maps Gemini finish reasons to canonical values.
func mapFinishReason(reason string) core.StopReason {
	switch strings.ToUpper(reason) {
	case "MAX_TOKENS":
		return core.StopReasonLength
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT":
		return core.StopReasonError
	default:
		return core.StopReasonStop
	}
}
