package visionmodel

import (
	"context"
	"errors"
	"time"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// maxRetryAttempts and retryBackoff bound how hard withRetry works before
// surfacing a transient failure to the caller. The generator/judge/analyzer
// layer already retries whole iterations, so this only smooths over brief
// rate limits and dropped connections within a single call.
const (
	maxRetryAttempts = 3
	retryBackoff     = 2 * time.Second
)

// WithRetry wraps a VisionModel so that Complete calls failing with
// domain.ErrTransientProvider are retried with a fixed backoff before
// giving up. Permanent failures (bad request, malformed reply) are
// returned immediately.
type WithRetry struct {
	driven.VisionModel
}

// NewWithRetry wraps model in the transient-retry decorator.
func NewWithRetry(model driven.VisionModel) *WithRetry {
	return &WithRetry{VisionModel: model}
}

// Complete retries on domain.ErrTransientProvider up to maxRetryAttempts
// times, sleeping retryBackoff between attempts, honoring ctx cancellation.
func (w *WithRetry) Complete(ctx context.Context, req driven.VisionRequest) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		reply, err := w.VisionModel.Complete(ctx, req)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrTransientProvider) || attempt == maxRetryAttempts {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
	return "", lastErr
}
