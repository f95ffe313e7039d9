package core

import "errors"

var (
	// ErrInvalidRequest indicates missing or malformed provider request input.
	ErrInvalidRequest = errors.New("invalid llm request")
	// ErrNotConfigured indicates a provider was selected but has no client or key.
	// Adapters fail with this before any network I/O.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrUnknownProvider indicates a model names a provider with no registered adapter.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUpstream indicates a non-success provider response or an explicit
	// in-stream failure event. The provider's error text is carried verbatim
	// in the wrapping message where available.
	ErrUpstream = errors.New("upstream provider failure")
)
