package domain

// TextDirection is the dominant reading direction of a document.
type TextDirection string

const (
	DirectionLTR  TextDirection = "ltr"
	DirectionRTL  TextDirection = "rtl"
	DirectionAuto TextDirection = "auto"
)

// IsValid reports whether the direction is one of the recognised values.
func (d TextDirection) IsValid() bool {
	switch d {
	case DirectionLTR, DirectionRTL, DirectionAuto:
		return true
	default:
		return false
	}
}

// EquationComplexity buckets how demanding a document's math typesetting is.
type EquationComplexity string

const (
	EquationNone    EquationComplexity = "none"
	EquationSimple  EquationComplexity = "simple"
	EquationComplex EquationComplexity = "complex"
)

// LayoutType describes the page's column structure.
type LayoutType string

const (
	LayoutSingleColumn LayoutType = "single-column"
	LayoutMultiColumn  LayoutType = "multi-column"
	LayoutMixed        LayoutType = "mixed"
)

// FontFamilyClass is a coarse typography bucket used by the addendum to
// pick a font stack, not a literal font name.
type FontFamilyClass string

const (
	FontSerif     FontFamilyClass = "serif"
	FontSansSerif FontFamilyClass = "sans-serif"
	FontMonospace FontFamilyClass = "monospace"
	FontScript    FontFamilyClass = "script"
)

// DocumentAnalysis is produced once per document by the Analyzer, from a
// small sample of page images.
type DocumentAnalysis struct {
	// Language and direction.
	PrimaryLanguage string
	TextDirection   TextDirection
	MixedDirections bool

	// Content flags.
	HasEquations       bool
	EquationComplexity EquationComplexity
	HasTables          bool
	HasFigures         bool
	HasCodeBlocks      bool

	// Layout.
	LayoutType   LayoutType
	ColumnCount  int
	HasHeaders   bool
	HasFooters   bool
	HasFootnotes bool

	// Typography.
	FontFamilies []FontFamilyClass
	HasBold      bool
	HasItalic    bool
	HasUnderline bool

	// DocumentType is a free-form tag: academic, legal, technical, letter...
	DocumentType string

	// StyleGuide records cross-page consistency hints (title/body fonts
	// and sizes, header banner colour) so that every page of a multi-page
	// document is generated against the same visual vocabulary instead of
	// re-deriving it per page.
	StyleGuide StyleGuide

	// RepeatingElements records running headers/footers and divider lines
	// that recur at the same position on every page, so the addendum can
	// instruct the Generator to reproduce them identically page to page.
	RepeatingElements RepeatingElements

	// ConfidenceDegraded is set when the model reply could not be parsed
	// and a conservative default analysis was substituted.
	ConfidenceDegraded bool
}

// RepeatingElement is one cross-page element the Analyzer detected at a
// fixed position (a running header, footer, or divider line).
type RepeatingElement struct {
	Present     bool
	Content     string // literal text, for headers/footers; empty for dividers.
	Description string // freeform styling description, not CSS.
}

// RepeatingElements groups the cross-page elements the Analyzer looks for.
type RepeatingElements struct {
	PageHeader     RepeatingElement
	PageFooter     RepeatingElement
	ColumnDivider  RepeatingElement
	SectionDivider RepeatingElement
	PageBorder     RepeatingElement
}

// AnyPresent reports whether at least one repeating element was detected,
// so the addendum builder can skip the section entirely otherwise.
func (r RepeatingElements) AnyPresent() bool {
	return r.PageHeader.Present || r.PageFooter.Present || r.ColumnDivider.Present ||
		r.SectionDivider.Present || r.PageBorder.Present
}

// StyleGuide is the document-wide typographic baseline the Analyzer
// derives once and the addendum repeats on every page.
type StyleGuide struct {
	TitleFont       string
	BodyFont        string
	HeaderFont      string
	TitleSizePx     int
	HeaderSizePx    int
	BodySizePx      int
	LineHeight      float64
	HeaderBgColor   string
	HeaderTextColor string
	BodyTextColor   string
	BackgroundColor string
}

// DefaultStyleGuide is used when the Analyzer falls back to a conservative
// default analysis.
func DefaultStyleGuide() StyleGuide {
	return StyleGuide{
		TitleFont:       "Georgia, 'Times New Roman', serif",
		BodyFont:        "Georgia, 'Times New Roman', serif",
		HeaderFont:      "Georgia, 'Times New Roman', serif",
		TitleSizePx:     24,
		HeaderSizePx:    18,
		BodySizePx:      12,
		LineHeight:      1.5,
		HeaderTextColor: "#000000",
		BodyTextColor:   "#000000",
		BackgroundColor: "#FFFFFF",
	}
}

// DefaultAnalysis is the conservative fallback emitted when the Analyzer's
// model reply cannot be parsed.
func DefaultAnalysis() DocumentAnalysis {
	return DocumentAnalysis{
		PrimaryLanguage:    "English",
		TextDirection:      DirectionLTR,
		EquationComplexity: EquationNone,
		LayoutType:         LayoutSingleColumn,
		ColumnCount:        1,
		FontFamilies:       []FontFamilyClass{FontSerif},
		DocumentType:       "general",
		StyleGuide:         DefaultStyleGuide(),
		ConfidenceDegraded: true,
	}
}

// Validate enforces the invariant that a non-none equation complexity
// implies HasEquations.
func (a *DocumentAnalysis) Validate() {
	if a.EquationComplexity != EquationNone {
		a.HasEquations = true
	}
}

// Overrides carries explicit user-supplied language/direction overrides
// that win over whatever the vision model inferred.
type Overrides struct {
	Language  string
	Direction TextDirection
}

// Apply overwrites the analysis fields the caller explicitly set.
func (o Overrides) Apply(a *DocumentAnalysis) {
	if o.Language != "" {
		a.PrimaryLanguage = o.Language
	}
	if o.Direction.IsValid() && o.Direction != "" {
		a.TextDirection = o.Direction
	}
}
