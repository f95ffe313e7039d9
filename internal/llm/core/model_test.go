package core

import (
	"errors"
	"testing"
)

func TestParseProviderID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want ProviderID
	}{
		{"openai", ProviderOpenAI},
		{"anthropic", ProviderAnthropic},
		{"google", ProviderGoogle},
		{"  Anthropic  ", ProviderAnthropic},
		{"OPENAI", ProviderOpenAI},
	}
	for _, tc := range tests {
		got, err := ParseProviderID(tc.raw)
		if err != nil {
			t.Fatalf("ParseProviderID(%q) error = %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseProviderID(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParseProviderIDRejectsUnknownTag(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "mistral", "azure"} {
		_, err := ParseProviderID(raw)
		if err == nil {
			t.Fatalf("ParseProviderID(%q) expected error", raw)
		}
		if !errors.Is(err, ErrUnknownProvider) {
			t.Fatalf("ParseProviderID(%q) error = %v, want ErrUnknownProvider", raw, err)
		}
	}
}

func TestModelConfigPricing(t *testing.T) {
	t.Parallel()

	model := ModelConfig{
		InputCostPerMTokUSD:  0.15,
		OutputCostPerMTokUSD: 0.60,
	}
	pricing := model.Pricing()
	if pricing.InputPerMTokUSD != 0.15 || pricing.OutputPerMTokUSD != 0.60 {
		t.Fatalf("unexpected pricing: %#v", pricing)
	}
}
