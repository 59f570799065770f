package visionmodel

import (
	"context"
	"time"

	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// CostRecorder is the subset of services.CostTracker a decorator needs;
// declared here so this adapter package does not import core/services.
type CostRecorder interface {
	Record(role, model string, inputChars, outputChars int, durationMs float64)
}

// CostTracking wraps a VisionModel so every Complete call's approximate
// size and wall-clock duration is recorded against role.
type CostTracking struct {
	driven.VisionModel
	Role     string
	Recorder CostRecorder
}

// NewCostTracking wraps model, tagging every recorded call with role.
func NewCostTracking(model driven.VisionModel, role string, recorder CostRecorder) *CostTracking {
	return &CostTracking{VisionModel: model, Role: role, Recorder: recorder}
}

// Complete delegates to the wrapped model and records the call regardless
// of outcome (a failed call still consumed input tokens and wall time).
func (c *CostTracking) Complete(ctx context.Context, req driven.VisionRequest) (string, error) {
	start := time.Now()
	reply, err := c.VisionModel.Complete(ctx, req)
	duration := time.Since(start)

	// Image bytes are a crude proxy for their token cost under patch-based
	// vision tokenization; good enough for a relative cost estimate, not
	// a billing-accurate one.
	inputChars := len(req.SystemPrompt) + len(req.UserText)
	for _, img := range req.Images {
		inputChars += len(img.Bytes)
	}

	c.Recorder.Record(c.Role, c.VisionModel.ModelName(), inputChars, len(reply), float64(duration.Milliseconds()))
	return reply, err
}
