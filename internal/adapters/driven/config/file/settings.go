package file

import (
	"github.com/pageconv/pageconv/internal/core/domain"
)

// LoadConvertSettings reads run defaults persisted under dot-notation
// keys ("generator.provider", "dpi", "multijudge.use_cross_model", ...)
// into a domain.ConvertSettings, starting from domain.DefaultConvertSettings
// so unset keys keep spec defaults. Callers apply env.Resolve over the
// result so environment variables win (see config/env).
func LoadConvertSettings(store *ConfigStore) domain.ConvertSettings {
	settings := domain.DefaultConvertSettings()

	settings.Generator = visionSettingsFrom(store, "generator")
	settings.JudgeA = visionSettingsFrom(store, "judge_a")
	settings.JudgeB = visionSettingsFrom(store, "judge_b")

	if v, ok := store.Get("dpi"); ok {
		settings.DPI = toInt(v, settings.DPI)
	}
	if v, ok := store.Get("target"); ok {
		settings.Target = toInt(v, settings.Target)
	}
	if v, ok := store.Get("max_retries"); ok {
		settings.MaxRetries = toInt(v, settings.MaxRetries)
	}

	if _, ok := store.Get("multijudge.use_cross_model"); ok {
		settings.MultiJudge.UseCrossModel = store.GetBool("multijudge.use_cross_model")
	}
	if _, ok := store.Get("multijudge.use_equation_specialist"); ok {
		settings.MultiJudge.UseEquationSpecialist = store.GetBool("multijudge.use_equation_specialist")
	}
	if _, ok := store.Get("multijudge.use_verification"); ok {
		settings.MultiJudge.UseVerification = store.GetBool("multijudge.use_verification")
	}

	return settings
}

// SaveConvertSettings persists the provided settings back under the same
// key namespace LoadConvertSettings reads, for `pageconv settings wizard`
// style flows to round-trip through.
func SaveConvertSettings(store *ConfigStore, settings domain.ConvertSettings) error {
	pairs := map[string]any{
		"generator.provider":                 string(settings.Generator.Provider),
		"generator.base_url":                 settings.Generator.BaseURL,
		"generator.model":                    settings.Generator.Model,
		"judge_a.provider":                   string(settings.JudgeA.Provider),
		"judge_a.base_url":                   settings.JudgeA.BaseURL,
		"judge_a.model":                      settings.JudgeA.Model,
		"judge_b.provider":                   string(settings.JudgeB.Provider),
		"judge_b.base_url":                   settings.JudgeB.BaseURL,
		"judge_b.model":                      settings.JudgeB.Model,
		"dpi":                                settings.DPI,
		"target":                             settings.Target,
		"max_retries":                        settings.MaxRetries,
		"multijudge.use_cross_model":         settings.MultiJudge.UseCrossModel,
		"multijudge.use_equation_specialist": settings.MultiJudge.UseEquationSpecialist,
		"multijudge.use_verification":        settings.MultiJudge.UseVerification,
	}
	for key, value := range pairs {
		if err := store.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

func visionSettingsFrom(store *ConfigStore, prefix string) domain.VisionSettings {
	return domain.VisionSettings{
		Provider: domain.VisionProvider(store.GetString(prefix + ".provider")),
		BaseURL:  store.GetString(prefix + ".base_url"),
		Model:    store.GetString(prefix + ".model"),
	}
}

func toInt(v any, fallback int) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	default:
		return fallback
	}
}
