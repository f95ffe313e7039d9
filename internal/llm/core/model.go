package core

import (
	"fmt"
	"strings"
)

// ProviderID identifies one of the supported provider wire protocols.
type ProviderID string

const (
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderGoogle    ProviderID = "google"
)

// ParseProviderID validates a provider tag. An unknown tag is a hard error,
// never silently ignored.
func ParseProviderID(raw string) (ProviderID, error) {
	switch ProviderID(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderAnthropic:
		return ProviderAnthropic, nil
	case ProviderGoogle:
		return ProviderGoogle, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, raw)
	}
}

// ModelConfig describes one routable model: which adapter serves it, the
// provider-specific identifier, and its price and output limit.
type ModelConfig struct {
	Provider               ProviderID `json:"provider"`
	Model                  string     `json:"model"`
	DisplayName            string     `json:"display_name"`
	InputCostPerMTokUSD    float64    `json:"input_cost"`
	OutputCostPerMTokUSD   float64    `json:"output_cost"`
	MaxOutputTokens        int        `json:"max_output_tokens"`
	SummarizationThreshold int        `json:"summarization_threshold,omitempty"`
}

// Pricing returns the per-1M-token price table for this model.
func (m ModelConfig) Pricing() ModelPricing {
	return ModelPricing{
		InputPerMTokUSD:  m.InputCostPerMTokUSD,
		OutputPerMTokUSD: m.OutputCostPerMTokUSD,
	}
}
