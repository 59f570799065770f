package env

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageconv/pageconv/internal/core/domain"
)

func TestResolve_EnvOverridesBase(t *testing.T) {
	t.Setenv("PAGECONV_GENERATOR_PROVIDER", "anthropic")
	t.Setenv("PAGECONV_GENERATOR_API_KEY", "sk-test")
	t.Setenv("PAGECONV_DPI", "450")
	t.Setenv("PAGECONV_TARGET", "90")

	base := domain.DefaultConvertSettings()
	resolved := Resolve(base)

	assert.Equal(t, domain.VisionProviderAnthropic, resolved.Generator.Provider)
	assert.Equal(t, "sk-test", resolved.Generator.APIKey)
	assert.Equal(t, 450, resolved.DPI)
	assert.Equal(t, 90, resolved.Target)
	assert.True(t, resolved.Generator.IsConfigured())
}

func TestResolve_KeepsBaseWhenUnset(t *testing.T) {
	base := domain.DefaultConvertSettings()
	base.Target = 77

	resolved := Resolve(base)

	assert.Equal(t, 77, resolved.Target)
	assert.Equal(t, domain.DefaultDPI, resolved.DPI)
}

func TestResolve_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("PAGECONV_DPI", "not-a-number")
	t.Setenv("PAGECONV_DIRECTION", "sideways")

	base := domain.DefaultConvertSettings()
	resolved := Resolve(base)

	assert.Equal(t, domain.DefaultDPI, resolved.DPI)
	assert.Equal(t, domain.TextDirection(""), resolved.DirectionOverride)
}

func TestResolve_JudgeBOnlyWhenSet(t *testing.T) {
	t.Setenv("PAGECONV_JUDGE_B_PROVIDER", "openai")
	t.Setenv("PAGECONV_JUDGE_B_API_KEY", "sk-judge-b")

	resolved := Resolve(domain.DefaultConvertSettings())

	assert.True(t, resolved.JudgeB.IsConfigured())
	assert.False(t, resolved.JudgeA.IsConfigured())
}
