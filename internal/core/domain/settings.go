package domain

const unknownDescription = "Unknown"

// VisionProvider identifies a vision-capable model provider usable by the
// Generator, Analyzer, or a Judge.
type VisionProvider string

// Available vision providers.
const (
	VisionProviderAnthropic VisionProvider = "anthropic"
	VisionProviderOpenAI    VisionProvider = "openai"
	VisionProviderOllama    VisionProvider = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p VisionProvider) IsValid() bool {
	switch p {
	case VisionProviderAnthropic, VisionProviderOpenAI, VisionProviderOllama:
		return true
	default:
		return false
	}
}

// Description returns a human-readable label.
func (p VisionProvider) Description() string {
	switch p {
	case VisionProviderAnthropic:
		return "Anthropic (Claude)"
	case VisionProviderOpenAI:
		return "OpenAI (GPT-4o)"
	case VisionProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// VisionSettings configures a single vision-model client.
type VisionSettings struct {
	Provider VisionProvider
	APIKey   string
	BaseURL  string
	Model    string
}

// IsConfigured reports whether enough information is present to construct
// a client: Ollama needs only the provider (its client falls back to a
// default base URL), the hosted providers also need a key.
func (s VisionSettings) IsConfigured() bool {
	if s.Provider == "" {
		return false
	}
	if s.Provider == VisionProviderOllama {
		return true
	}
	return s.APIKey != ""
}

// MultiJudgeSettings configures MultiJudge's optional sub-operations and
// their weights (spec §4.6).
type MultiJudgeSettings struct {
	UseCrossModel         bool
	UseEquationSpecialist bool
	UseVerification       bool

	// WeightA and WeightB weight judge A's and judge B's subscores in the
	// combined feedback; must sum to 1 when both are set.
	WeightA float64
	WeightB float64

	// EquationWeight is carried over from the original configuration
	// surface (EQUATION_WEIGHT / DualJudge.equation_weight), which itself
	// never reads it anywhere — same here: MultiJudge's equation-score
	// cap uses the fixed domain.EquationSpecialistCap constant regardless
	// of this value. Only PAGECONV_EQUATION_WEIGHT sets it; the config
	// file store neither loads nor saves it; see DESIGN.md.
	EquationWeight float64
}

// DefaultMultiJudgeSettings mirrors the original pipeline's defaults.
func DefaultMultiJudgeSettings() MultiJudgeSettings {
	return MultiJudgeSettings{
		UseCrossModel:         true,
		UseEquationSpecialist: true,
		UseVerification:       true,
		WeightA:               0.5,
		WeightB:               0.5,
		EquationWeight:        0.3,
	}
}

// ConvertSettings configures one `convert` run end to end.
type ConvertSettings struct {
	Generator VisionSettings
	JudgeA    VisionSettings
	JudgeB    VisionSettings // zero value when cross-model judging is disabled.

	MultiJudge MultiJudgeSettings

	DPI        int
	Target     int
	MaxRetries int

	LanguageOverride  string
	DirectionOverride TextDirection

	OutputDir string
	Verbose   bool
	Quiet     bool
	Force     bool
}

// DefaultDPI, DefaultTarget, and DefaultMaxRetries mirror spec §6's CLI
// flag defaults.
const (
	DefaultDPI        = 300
	DefaultTarget     = 85
	DefaultMaxRetries = 5
)

// DefaultConvertSettings returns spec-mandated defaults with no provider
// configured; callers fill in credentials from the environment.
func DefaultConvertSettings() ConvertSettings {
	return ConvertSettings{
		DPI:        DefaultDPI,
		Target:     DefaultTarget,
		MaxRetries: DefaultMaxRetries,
		MultiJudge: DefaultMultiJudgeSettings(),
	}
}
