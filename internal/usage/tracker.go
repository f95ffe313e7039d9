package usage

import (
	"sync"

	"modelrelay/internal/llm/core"
)

// ModelTotals accumulates token and cost totals for one model.
type ModelTotals struct {
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Tracker accumulates per-model usage across concurrent requests. The
// streaming core itself never persists anything; this tracker is the
// in-memory aggregation point the surrounding process reads from.
type Tracker struct {
	mu     sync.RWMutex
	totals map[string]ModelTotals
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{totals: map[string]ModelTotals{}}
}

// Record adds one completed request's usage under the model's identifier,
// pricing the tokens with the model's cost table.
func (t *Tracker) Record(model core.ModelConfig, u core.Usage) {
	cost := core.CalculateCost(u, model.Pricing())

	t.mu.Lock()
	defer t.mu.Unlock()
	totals := t.totals[model.Model]
	totals.Requests++
	totals.InputTokens += u.InputTokens
	totals.OutputTokens += u.OutputTokens
	totals.CostUSD += cost
	t.totals[model.Model] = totals
}

// Snapshot returns a copy of the per-model totals.
func (t *Tracker) Snapshot() map[string]ModelTotals {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]ModelTotals, len(t.totals))
	for model, totals := range t.totals {
		out[model] = totals
	}
	return out
}

// Total returns the aggregate across all models.
func (t *Tracker) Total() ModelTotals {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out ModelTotals
	for _, totals := range t.totals {
		out.Requests += totals.Requests
		out.InputTokens += totals.InputTokens
		out.OutputTokens += totals.OutputTokens
		out.CostUSD += totals.CostUSD
	}
	return out
}
