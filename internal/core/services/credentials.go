package services

import (
	"context"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driving"
)

// Ensure CredentialChecker implements the driving port.
var _ driving.CredentialChecker = (*CredentialChecker)(nil)

// visionFactory constructs and pings a VisionModel for one role's settings,
// implemented by internal/adapters/driven/visionmodel.ValidateConfig. Kept
// as an injected function so services stays free of adapter imports.
type visionFactory func(domain.VisionSettings) error

// CredentialChecker pings every configured role's provider without running
// a conversion (spec §6, `pageconv check`).
type CredentialChecker struct {
	Settings domain.ConvertSettings
	Validate visionFactory
}

// NewCredentialChecker constructs a CredentialChecker bound to a validation
// function (typically visionmodel.ValidateConfig).
func NewCredentialChecker(settings domain.ConvertSettings, validate visionFactory) *CredentialChecker {
	return &CredentialChecker{Settings: settings, Validate: validate}
}

// CheckAll pings the generator and both judge roles (judge B only if
// cross-model judging is configured), returning one result per role that
// has any provider configured at all.
func (c *CredentialChecker) CheckAll(ctx context.Context) []driving.CredentialCheckResult {
	var results []driving.CredentialCheckResult

	if c.Settings.Generator.IsConfigured() {
		results = append(results, c.check(ctx, "generator", c.Settings.Generator))
	}
	if c.Settings.JudgeA.IsConfigured() {
		results = append(results, c.check(ctx, "judge_a", c.Settings.JudgeA))
	}
	if c.Settings.MultiJudge.UseCrossModel && c.Settings.JudgeB.IsConfigured() {
		results = append(results, c.check(ctx, "judge_b", c.Settings.JudgeB))
	}

	return results
}

// check ignores ctx: the validate function (visionmodel.ValidateConfig)
// owns its own ping timeout, so there is nothing here for cancellation to
// interrupt beyond that call itself.
func (c *CredentialChecker) check(_ context.Context, role string, settings domain.VisionSettings) driving.CredentialCheckResult {
	err := c.Validate(settings)
	return driving.CredentialCheckResult{
		Role:      role,
		Provider:  settings.Provider,
		Reachable: err == nil,
		Err:       err,
	}
}
