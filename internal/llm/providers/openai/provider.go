package openaiprovider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"modelrelay/internal/llm/core"
)

// defaultBaseURL targets the public OpenAI API; any OpenAI-compatible
// endpoint can be substituted via Config.BaseURL.
const defaultBaseURL = "https://api.openai.com/v1"

// Config configures the OpenAI-compatible adapter.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Retry      core.RetryPolicy
}

// Provider speaks the OpenAI wire protocol over plain HTTP. It prefers the
// responses endpoint and falls back to classic chat completions when that
// path fails before producing any visible output; the emitted event sequence
// is identical either way.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      core.RetryPolicy
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
		retry:      core.NormalizeRetryPolicy(cfg.Retry),
	}
}

// Stream executes a single streaming completion request.
func (p *Provider) Stream(ctx context.Context, req *core.Request) (<-chan core.Event, error) {
	if p == nil {
		return nil, fmt.Errorf("openai provider is nil")
	}
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: openai api key", core.ErrNotConfigured)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", core.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("%w: model is required", core.ErrInvalidRequest)
	}

	events := make(chan core.Event, 1)
	retry := core.MergeRetryPolicy(p.retry, req.Retry)

	go func() {
		defer close(events)
		state := &streamState{reason: core.StopReasonStop}
		if err := p.streamWithFallback(ctx, req, retry, events, state); err != nil {
			reason := core.StopReasonError
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				reason = core.StopReasonAborted
			}
			core.SendTerminalEvent(ctx, events, core.Event{
				Type: core.EventError,
				Done: &core.DonePayload{
					Reason: reason,
					Usage:  state.usage,
				},
				Err: fmt.Errorf("openai stream: %w", err),
			})
		}
	}()

	return events, nil
}

// streamState tracks incremental response state across one logical stream request.
type streamState struct {
	usage          core.Usage
	reason         core.StopReason
	sawFinish      bool
	emittedVisible bool
	startEmitted   bool
	emittedDone    bool
	toolCalls      map[int]*toolCallAccumulator
}

// toolCallAccumulator reassembles streamed tool-call argument fragments.
type toolCallAccumulator struct {
	id   string
	name string
	buf  strings.Builder
}

// streamWithFallback tries the responses endpoint first and falls back to
// chat completions. Tool-bearing requests go straight to chat completions
// where tool calls ride the wire protocol this adapter implements.
func (p *Provider) streamWithFallback(
	ctx context.Context,
	req *core.Request,
	retry core.RetryPolicy,
	events chan<- core.Event,
	state *streamState,
) error {
	if !state.startEmitted {
		if err := core.SendEvent(ctx, events, core.Event{Type: core.EventStart}); err != nil {
			return err
		}
		state.startEmitted = true
	}

	if len(req.Tools) == 0 {
		err := p.streamResponses(ctx, req, events, state)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if state.emittedVisible {
			// Output already reached the consumer; restarting on the other
			// endpoint would duplicate it.
			return err
		}
	}

	attempt := 0
	for {
		attemptErr := p.streamChat(ctx, req, events, state)
		if attemptErr == nil {
			return nil
		}
		if errors.Is(attemptErr, context.Canceled) || errors.Is(attemptErr, context.DeadlineExceeded) {
			return attemptErr
		}
		if !core.IsRetryableError(attemptErr) || state.emittedVisible || attempt >= retry.MaxRetries {
			return attemptErr
		}

		delay := core.ComputeBackoffDelay(retry, attempt)
		if err := core.SleepContext(ctx, delay); err != nil {
			return err
		}
		attempt++
	}
}

// post issues one streaming POST. Non-2xx responses are consumed and
// surfaced as upstream failures carrying the body verbatim; 429 and 5xx are
// marked retryable.
func (p *Provider) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, core.MarkRetryable(fmt.Errorf("%w: %v", core.ErrUpstream, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		_ = resp.Body.Close()
		failure := fmt.Errorf("%w: status %d: %s", core.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(detail)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, core.MarkRetryable(failure)
		}
		return nil, failure
	}
	return resp, nil
}
