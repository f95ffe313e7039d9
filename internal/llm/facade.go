package llm

import (
	anthropicprovider "modelrelay/internal/llm/providers/anthropic"
	googleprovider "modelrelay/internal/llm/providers/google"
	mockprovider "modelrelay/internal/llm/providers/mock"
	openaiprovider "modelrelay/internal/llm/providers/openai"

	"modelrelay/internal/llm/core"
)

type (
	// Provider is the public streaming provider contract.
	Provider = core.Provider

	// ProviderID tags one of the supported wire protocols.
	ProviderID = core.ProviderID

	// EventType enumerates stream event variants.
	EventType = core.EventType

	// ToolChoice* aliases expose tool-selection primitives.
	ToolChoiceType = core.ToolChoiceType
	ToolChoice     = core.ToolChoice
	ToolSpec       = core.ToolSpec
	RetryPolicy    = core.RetryPolicy

	// Request and Event payload aliases define the public stream protocol.
	Request     = core.Request
	DonePayload = core.DonePayload
	Event       = core.Event

	// Conversation-model aliases.
	Role        = core.Role
	StopReason  = core.StopReason
	ContentType = core.ContentType

	// Message and usage aliases.
	ContentBlock = core.ContentBlock
	ToolCall     = core.ToolCall
	ToolResult   = core.ToolResult
	Message      = core.Message
	Usage        = core.Usage

	// Model and pricing aliases.
	ModelConfig  = core.ModelConfig
	ModelPricing = core.ModelPricing

	// Provider-specific configuration aliases.
	OpenAIConfig      = openaiprovider.Config
	OpenAIProvider    = openaiprovider.Provider
	AnthropicConfig   = anthropicprovider.Config
	AnthropicProvider = anthropicprovider.Provider
	GoogleConfig      = googleprovider.Config
	GoogleProvider    = googleprovider.Provider

	// MockProvider emits scripted events for tests.
	MockProvider = mockprovider.Provider
)

const (
	EventStart         = core.EventStart
	EventTextDelta     = core.EventTextDelta
	EventToolCallStart = core.EventToolCallStart
	EventToolCallDelta = core.EventToolCallDelta
	EventToolCallEnd   = core.EventToolCallEnd
	EventUsage         = core.EventUsage
	EventDone          = core.EventDone
	EventError         = core.EventError

	ToolChoiceAuto = core.ToolChoiceAuto
	ToolChoiceAny  = core.ToolChoiceAny
	ToolChoiceNone = core.ToolChoiceNone
	ToolChoiceTool = core.ToolChoiceTool

	RoleSystem    = core.RoleSystem
	RoleUser      = core.RoleUser
	RoleAssistant = core.RoleAssistant
	RoleTool      = core.RoleTool

	StopReasonStop    = core.StopReasonStop
	StopReasonLength  = core.StopReasonLength
	StopReasonToolUse = core.StopReasonToolUse
	StopReasonError   = core.StopReasonError
	StopReasonAborted = core.StopReasonAborted

	ContentTypeText = core.ContentTypeText

	ProviderOpenAI    = core.ProviderOpenAI
	ProviderAnthropic = core.ProviderAnthropic
	ProviderGoogle    = core.ProviderGoogle
)

var (
	// ErrInvalidRequest indicates malformed canonical request payloads.
	ErrInvalidRequest = core.ErrInvalidRequest
	// ErrNotConfigured indicates a provider with no credentials or adapter.
	ErrNotConfigured = core.ErrNotConfigured
	// ErrUnknownProvider indicates an unrecognized provider tag.
	ErrUnknownProvider = core.ErrUnknownProvider
	// ErrUpstream indicates a provider-side failure.
	ErrUpstream = core.ErrUpstream
)

// ParseProviderID validates a provider tag.
func ParseProviderID(raw string) (ProviderID, error) {
	return core.ParseProviderID(raw)
}

// TextMessage builds a single-text-block message.
func TextMessage(role Role, text string) Message {
	return core.TextMessage(role, text)
}

// NewToolSpecFromStruct reflects a Go struct into a normalized tool schema.
func NewToolSpecFromStruct(name, description string, schemaStruct any) (ToolSpec, error) {
	return core.NewToolSpecFromStruct(name, description, schemaStruct)
}

// CalculateCost computes token usage cost in USD for a model pricing table.
func CalculateCost(u Usage, p ModelPricing) float64 {
	return core.CalculateCost(u, p)
}

// CostUSD computes the cost of a completion under a model's price table.
func CostUSD(model ModelConfig, inputTokens, outputTokens int) float64 {
	return core.CostUSD(model, inputTokens, outputTokens)
}

// NewOpenAIProvider constructs an OpenAI-compatible provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	return openaiprovider.New(cfg)
}

// NewAnthropicProvider constructs an Anthropic provider with normalized defaults.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	return anthropicprovider.New(cfg)
}

// NewGoogleProvider constructs a Google provider from a bare API key.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	return googleprovider.New(cfg)
}
