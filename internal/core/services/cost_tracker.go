package services

import (
	"sync"

	"github.com/pageconv/pageconv/internal/core/domain"
)

// estimatedCharsPerToken mirrors the original cost tracker's "1 token ≈ 4
// characters" fallback estimator, used whenever a provider's real usage
// field isn't available to us (the driven.VisionModel port carries none).
const estimatedCharsPerToken = 4

// pricingPerMillionTokens is illustrative per-model pricing (USD per 1M
// tokens), in the spirit of the original's PRICING table. Unknown models
// fall back to the "default" entry.
var pricingPerMillionTokens = map[string]struct{ Input, Output float64 }{
	"claude-3-5-sonnet-latest": {Input: 3.00, Output: 15.00},
	"gpt-4o":                   {Input: 2.50, Output: 10.00},
	"llava":                    {Input: 0, Output: 0}, // local inference, no metered cost
	"default":                  {Input: 1.00, Output: 3.00},
}

// CostTracker accumulates APICall records across a conversion run. It is
// safe for concurrent use by MultiJudge's cross-model judge calls.
type CostTracker struct {
	mu    sync.Mutex
	calls []domain.APICall
}

// NewCostTracker returns an empty tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{}
}

// Record adds one call's estimated usage and cost.
func (t *CostTracker) Record(role, model string, inputChars, outputChars int, durationMs float64) {
	inputTokens := inputChars / estimatedCharsPerToken
	outputTokens := outputChars / estimatedCharsPerToken

	price, ok := pricingPerMillionTokens[model]
	if !ok {
		price = pricingPerMillionTokens["default"]
	}
	cost := float64(inputTokens)/1_000_000*price.Input + float64(outputTokens)/1_000_000*price.Output

	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, domain.APICall{
		Role: role, Model: model,
		InputTokens: inputTokens, OutputTokens: outputTokens,
		DurationMs: durationMs, CostUSD: cost,
	})
}

// Summary returns a snapshot of everything recorded so far.
func (t *CostTracker) Summary() domain.CostSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := domain.CostSummary{Calls: append([]domain.APICall{}, t.calls...)}
	for _, c := range t.calls {
		summary.TotalInputTokens += c.InputTokens
		summary.TotalOutputTokens += c.OutputTokens
		summary.TotalCostUSD += c.CostUSD
		summary.TotalDurationMs += c.DurationMs
	}
	return summary
}
