package visionmodel

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// defaultRateLimits gives each provider a conservative token-bucket budget,
// grounded on the teacher's per-service golang.org/x/time/rate limiters for
// its Google connectors (internal/connectors/google/ratelimit.go).
var defaultRateLimits = map[domain.VisionProvider]struct {
	RequestsPerSecond float64
	Burst             int
}{
	domain.VisionProviderAnthropic: {RequestsPerSecond: 4, Burst: 4},
	domain.VisionProviderOpenAI:    {RequestsPerSecond: 4, Burst: 4},
	domain.VisionProviderOllama:    {RequestsPerSecond: 8, Burst: 8}, // local, less contended
}

// RateLimited decorates a VisionModel with a per-provider token-bucket
// limiter so a page's generate/judge calls never burst past what the
// provider allows, independent of WithRetry's backoff on failures already
// in flight.
type RateLimited struct {
	driven.VisionModel
	limiter *rate.Limiter
}

// NewRateLimited wraps model with the default token-bucket budget for
// provider.
func NewRateLimited(model driven.VisionModel, provider domain.VisionProvider) *RateLimited {
	cfg, ok := defaultRateLimits[provider]
	if !ok {
		cfg = struct {
			RequestsPerSecond float64
			Burst             int
		}{RequestsPerSecond: 4, Burst: 4}
	}
	return &RateLimited{
		VisionModel: model,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// Complete blocks for a token before delegating, so callers never need to
// manage pacing themselves.
func (r *RateLimited) Complete(ctx context.Context, req driven.VisionRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.VisionModel.Complete(ctx, req)
}
