// Package env resolves domain.ConvertSettings from environment variables,
// layered over whatever config/file.LoadConvertSettings already read from
// disk: an env var always wins when set. API keys are env-only — the file
// store never persists them — so Resolve is also the only place an
// Anthropic or OpenAI generator/judge becomes IsConfigured (an Ollama role
// needs no key and is configured by its provider setting alone).
package env

import (
	"os"
	"strconv"

	"github.com/pageconv/pageconv/internal/core/domain"
)

// Resolve overlays environment variables onto base, returning the final
// settings a `convert`/`check` run uses.
func Resolve(base domain.ConvertSettings) domain.ConvertSettings {
	settings := base

	settings.Generator = resolveVisionSettings(settings.Generator, "PAGECONV_GENERATOR")
	settings.JudgeA = resolveVisionSettings(settings.JudgeA, "PAGECONV_JUDGE_A")
	settings.JudgeB = resolveVisionSettings(settings.JudgeB, "PAGECONV_JUDGE_B")

	settings.DPI = intFromEnv("PAGECONV_DPI", settings.DPI)
	settings.Target = intFromEnv("PAGECONV_TARGET", settings.Target)
	settings.MaxRetries = intFromEnv("PAGECONV_MAX_RETRIES", settings.MaxRetries)

	settings.MultiJudge.UseCrossModel = boolFromEnv("PAGECONV_USE_CROSS_MODEL", settings.MultiJudge.UseCrossModel)
	settings.MultiJudge.UseEquationSpecialist = boolFromEnv("PAGECONV_USE_EQUATION_SPECIALIST", settings.MultiJudge.UseEquationSpecialist)
	settings.MultiJudge.UseVerification = boolFromEnv("PAGECONV_USE_VERIFICATION", settings.MultiJudge.UseVerification)
	settings.MultiJudge.EquationWeight = floatFromEnv("PAGECONV_EQUATION_WEIGHT", settings.MultiJudge.EquationWeight)

	if v := os.Getenv("PAGECONV_LANGUAGE"); v != "" {
		settings.LanguageOverride = v
	}
	if v := domain.TextDirection(os.Getenv("PAGECONV_DIRECTION")); v.IsValid() {
		settings.DirectionOverride = v
	}

	return settings
}

// resolveVisionSettings reads PROVIDER/API_KEY/BASE_URL/MODEL for one role
// from env vars prefixed with prefix, e.g. PAGECONV_GENERATOR_PROVIDER.
func resolveVisionSettings(base domain.VisionSettings, prefix string) domain.VisionSettings {
	settings := base
	if v := domain.VisionProvider(os.Getenv(prefix + "_PROVIDER")); v.IsValid() {
		settings.Provider = v
	}
	if v := os.Getenv(prefix + "_API_KEY"); v != "" {
		settings.APIKey = v
	}
	if v := os.Getenv(prefix + "_BASE_URL"); v != "" {
		settings.BaseURL = v
	}
	if v := os.Getenv(prefix + "_MODEL"); v != "" {
		settings.Model = v
	}
	return settings
}

func intFromEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func boolFromEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func floatFromEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
