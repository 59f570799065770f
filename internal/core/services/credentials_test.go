package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageconv/pageconv/internal/core/domain"
)

func TestCredentialChecker_ChecksOnlyConfiguredRoles(t *testing.T) {
	settings := domain.ConvertSettings{
		Generator: domain.VisionSettings{Provider: domain.VisionProviderAnthropic, APIKey: "k"},
		JudgeA:    domain.VisionSettings{Provider: domain.VisionProviderOpenAI, APIKey: "k"},
		// JudgeB left unconfigured.
		MultiJudge: domain.MultiJudgeSettings{UseCrossModel: true},
	}
	checker := NewCredentialChecker(settings, func(domain.VisionSettings) error { return nil })

	results := checker.CheckAll(context.Background())

	require.Len(t, results, 2)
	assert.Equal(t, "generator", results[0].Role)
	assert.Equal(t, "judge_a", results[1].Role)
	assert.True(t, results[0].Reachable)
}

func TestCredentialChecker_SkipsJudgeBWhenCrossModelDisabled(t *testing.T) {
	settings := domain.ConvertSettings{
		Generator:  domain.VisionSettings{Provider: domain.VisionProviderAnthropic, APIKey: "k"},
		JudgeA:     domain.VisionSettings{Provider: domain.VisionProviderAnthropic, APIKey: "k"},
		JudgeB:     domain.VisionSettings{Provider: domain.VisionProviderOpenAI, APIKey: "k"},
		MultiJudge: domain.MultiJudgeSettings{UseCrossModel: false},
	}
	checker := NewCredentialChecker(settings, func(domain.VisionSettings) error { return nil })

	results := checker.CheckAll(context.Background())

	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "judge_b", r.Role)
	}
}

func TestCredentialChecker_ReportsUnreachableProvider(t *testing.T) {
	settings := domain.ConvertSettings{
		Generator: domain.VisionSettings{Provider: domain.VisionProviderOllama, BaseURL: "http://localhost:1"},
	}
	checker := NewCredentialChecker(settings, func(domain.VisionSettings) error {
		return errors.New("connection refused")
	})

	results := checker.CheckAll(context.Background())

	require.Len(t, results, 1)
	assert.False(t, results[0].Reachable)
	assert.Error(t, results[0].Err)
}
