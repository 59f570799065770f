// Package visionmodel provides factory functions for constructing and
// validating VisionModel adapters from settings, mirroring the teacher's
// ai.CreateAndValidateLLMService pattern for a single interchangeable port
// shared by the Generator, the Analyzer, and every Judge role.
package visionmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/pageconv/pageconv/internal/adapters/driven/visionmodel/anthropic"
	"github.com/pageconv/pageconv/internal/adapters/driven/visionmodel/ollama"
	"github.com/pageconv/pageconv/internal/adapters/driven/visionmodel/openai"
	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// pingTimeout bounds how long CreateAndValidate waits for a provider to
// answer its lightweight connectivity check.
const pingTimeout = 5 * time.Second

// CreateAndValidate constructs a VisionModel for the given role settings
// and pings it before returning, so a bad credential fails fast at the
// start of a run rather than mid-loop (spec §7, ErrCredential propagation).
// When recorder is non-nil, every Complete call is recorded against role
// for the end-of-run cost summary.
func CreateAndValidate(settings domain.VisionSettings, role string, recorder CostRecorder) (driven.VisionModel, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: no provider configured", domain.ErrCredential)
	}

	model, err := Create(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCredential, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := model.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s provider unreachable: %w", domain.ErrCredential, settings.Provider, err)
	}

	wrapped := driven.VisionModel(NewRateLimited(NewWithRetry(model), settings.Provider))
	if recorder != nil {
		wrapped = NewCostTracking(wrapped, role, recorder)
	}
	return wrapped, nil
}

// Create constructs a VisionModel for the given settings without pinging
// it. Used by the `check` command, which wants to report reachability
// itself rather than fail construction.
func Create(settings domain.VisionSettings) (driven.VisionModel, error) {
	switch settings.Provider {
	case domain.VisionProviderAnthropic:
		return anthropic.NewClient(anthropic.Config{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})
	case domain.VisionProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})
	case domain.VisionProviderOllama:
		return ollama.NewClient(ollama.Config{BaseURL: settings.BaseURL, Model: settings.Model}), nil
	default:
		return nil, fmt.Errorf("unsupported vision provider: %s", settings.Provider)
	}
}

// ValidateConfig pings a candidate configuration without keeping the
// client around; used by `pageconv check` to report per-role reachability.
func ValidateConfig(settings domain.VisionSettings) error {
	model, err := Create(settings)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return model.Ping(ctx)
}
