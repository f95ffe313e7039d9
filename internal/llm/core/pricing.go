package core

// ModelPricing is priced in USD per 1M tokens.
type ModelPricing struct {
	InputPerMTokUSD  float64
	OutputPerMTokUSD float64
}

// CalculateCost returns the USD cost for the usage snapshot.
func CalculateCost(u Usage, p ModelPricing) float64 {
	input := (float64(u.InputTokens) / 1_000_000.0) * p.InputPerMTokUSD
	output := (float64(u.OutputTokens) / 1_000_000.0) * p.OutputPerMTokUSD
	return input + output
}

// CostUSD prices raw token counts against a model's configured rates.
// Pure and total for non-negative inputs; negative counts are a caller
// contract violation and are not handled here.
func CostUSD(model ModelConfig, inputTokens, outputTokens int) float64 {
	return CalculateCost(Usage{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}, model.Pricing())
}
