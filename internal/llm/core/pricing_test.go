package core

import "testing"

func TestCalculateCost(t *testing.T) {
	t.Parallel()

	pricing := ModelPricing{
		InputPerMTokUSD:  3.0,
		OutputPerMTokUSD: 15.0,
	}

	got := CalculateCost(Usage{InputTokens: 1_000_000, OutputTokens: 2_000_000}, pricing)
	want := 3.0 + 30.0
	if got != want {
		t.Fatalf("CalculateCost() = %v, want %v", got, want)
	}

	if got := CalculateCost(Usage{}, pricing); got != 0 {
		t.Fatalf("zero usage should cost nothing, got %v", got)
	}
}

func TestCostUSDMatchesModelRates(t *testing.T) {
	t.Parallel()

	model := ModelConfig{
		Provider:             ProviderOpenAI,
		Model:                "gpt-4o-mini",
		InputCostPerMTokUSD:  0.15,
		OutputCostPerMTokUSD: 0.60,
	}

	got := CostUSD(model, 500_000, 250_000)
	want := 0.5*0.15 + 0.25*0.60
	if diff := got - want; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("CostUSD() = %v, want %v", got, want)
	}
}

// TestCostMonotonicity checks cost never decreases as token counts grow.
func TestCostMonotonicity(t *testing.T) {
	t.Parallel()

	model := ModelConfig{
		Provider:             ProviderAnthropic,
		Model:                "claude-sonnet-4-20250514",
		InputCostPerMTokUSD:  3.0,
		OutputCostPerMTokUSD: 15.0,
	}

	counts := []int{0, 1, 100, 10_000, 1_000_000}
	for i := 1; i < len(counts); i++ {
		loIn := CostUSD(model, counts[i-1], 1000)
		hiIn := CostUSD(model, counts[i], 1000)
		if hiIn < loIn {
			t.Fatalf("cost decreased with more input tokens: %v -> %v", loIn, hiIn)
		}

		loOut := CostUSD(model, 1000, counts[i-1])
		hiOut := CostUSD(model, 1000, counts[i])
		if hiOut < loOut {
			t.Fatalf("cost decreased with more output tokens: %v -> %v", loOut, hiOut)
		}
	}
}
