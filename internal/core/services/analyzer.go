package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// SampleSize is the maximum number of page images the Analyzer samples
// before calling the vision model once per document (spec §4.2, "K=3").
const SampleSize = 3

// analyzerSystemPrompt asks for a strictly-structured JSON reply so the
// Analyzer's parse step can stay simple and deterministic.
const analyzerSystemPrompt = `You are analysing the first few pages of a scanned document to profile
its layout and typography before it gets recreated as HTML.

Reply with ONLY a JSON object matching exactly this shape:
{
  "primary_language": "English",
  "text_direction": "ltr",
  "mixed_directions": false,
  "has_equations": false,
  "equation_complexity": "none",
  "has_tables": false,
  "has_figures": false,
  "has_code_blocks": false,
  "layout_type": "single-column",
  "column_count": 1,
  "has_headers": false,
  "has_footers": false,
  "has_footnotes": false,
  "font_families": ["serif"],
  "has_bold": false,
  "has_italic": false,
  "has_underline": false,
  "document_type": "general",
  "style_guide": {
    "title_font": "Georgia, serif", "body_font": "Georgia, serif", "header_font": "Georgia, serif",
    "title_size_px": 24, "header_size_px": 18, "body_size_px": 12, "line_height": 1.5,
    "header_bg_color": "", "header_text_color": "#000000", "body_text_color": "#000000",
    "background_color": "#FFFFFF"
  },
  "repeating_elements": {
    "page_header": {"present": false, "content": "", "description": ""},
    "page_footer": {"present": false, "content": "", "description": ""},
    "column_divider": {"present": false, "content": "", "description": ""},
    "section_divider": {"present": false, "content": "", "description": ""},
    "page_border": {"present": false, "content": "", "description": ""}
  }
}

text_direction must be one of "ltr", "rtl", "auto". equation_complexity
must be one of "none", "simple", "complex". layout_type must be one of
"single-column", "multi-column", "mixed". font_families entries must be
one of "serif", "sans-serif", "monospace", "script".`

// analyzerReply mirrors analyzerSystemPrompt's JSON shape.
type analyzerReply struct {
	PrimaryLanguage    string   `json:"primary_language"`
	TextDirection      string   `json:"text_direction"`
	MixedDirections    bool     `json:"mixed_directions"`
	HasEquations       bool     `json:"has_equations"`
	EquationComplexity string   `json:"equation_complexity"`
	HasTables          bool     `json:"has_tables"`
	HasFigures         bool     `json:"has_figures"`
	HasCodeBlocks      bool     `json:"has_code_blocks"`
	LayoutType         string   `json:"layout_type"`
	ColumnCount        int      `json:"column_count"`
	HasHeaders         bool     `json:"has_headers"`
	HasFooters         bool     `json:"has_footers"`
	HasFootnotes       bool     `json:"has_footnotes"`
	FontFamilies       []string `json:"font_families"`
	HasBold            bool     `json:"has_bold"`
	HasItalic          bool     `json:"has_italic"`
	HasUnderline       bool     `json:"has_underline"`
	DocumentType       string   `json:"document_type"`
	StyleGuide         struct {
		TitleFont       string  `json:"title_font"`
		BodyFont        string  `json:"body_font"`
		HeaderFont      string  `json:"header_font"`
		TitleSizePx     int     `json:"title_size_px"`
		HeaderSizePx    int     `json:"header_size_px"`
		BodySizePx      int     `json:"body_size_px"`
		LineHeight      float64 `json:"line_height"`
		HeaderBgColor   string  `json:"header_bg_color"`
		HeaderTextColor string  `json:"header_text_color"`
		BodyTextColor   string  `json:"body_text_color"`
		BackgroundColor string  `json:"background_color"`
	} `json:"style_guide"`
	RepeatingElements struct {
		PageHeader     analyzerReplyElement `json:"page_header"`
		PageFooter     analyzerReplyElement `json:"page_footer"`
		ColumnDivider  analyzerReplyElement `json:"column_divider"`
		SectionDivider analyzerReplyElement `json:"section_divider"`
		PageBorder     analyzerReplyElement `json:"page_border"`
	} `json:"repeating_elements"`
}

type analyzerReplyElement struct {
	Present     bool   `json:"present"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// Analyzer infers a DocumentAnalysis from a small sample of page images,
// calling the vision model once per document (spec §4.2).
type Analyzer struct {
	model driven.VisionModel
}

// NewAnalyzer constructs an Analyzer bound to the given vision model.
func NewAnalyzer(model driven.VisionModel) *Analyzer {
	return &Analyzer{model: model}
}

// Sample picks up to SampleSize representative pages (evenly spaced
// across the document) for the Analyzer's single model call.
func Sample(pages []domain.PageAssets, n int) []domain.PageAssets {
	if len(pages) <= n {
		return pages
	}
	out := make([]domain.PageAssets, 0, n)
	step := float64(len(pages)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		out = append(out, pages[int(float64(i)*step)])
	}
	return out
}

// Analyze calls the vision model once on the sampled pages and parses its
// reply into a DocumentAnalysis. On parse failure it returns
// domain.DefaultAnalysis() with ConfidenceDegraded set, never an error
// (spec §4.2). Overrides are applied after parsing/defaulting either way.
func (a *Analyzer) Analyze(ctx context.Context, sample []domain.PageAssets, overrides domain.Overrides) domain.DocumentAnalysis {
	images := make([]driven.ImagePart, 0, len(sample))
	for i, p := range sample {
		images = append(images, driven.ImagePart{
			Bytes:    p.PageImage.Bytes,
			MimeType: p.PageImage.MimeType,
			Label:    fmt.Sprintf("page %d", i+1),
		})
	}

	reply, err := a.model.Complete(ctx, driven.VisionRequest{
		SystemPrompt: analyzerSystemPrompt,
		UserText:     "Analyze the attached sample pages and reply with the JSON object only.",
		Images:       images,
		MaxTokens:    2048,
		Temperature:  0,
	})

	var analysis domain.DocumentAnalysis
	if err != nil {
		analysis = domain.DefaultAnalysis()
	} else {
		analysis = parseAnalyzerReply(reply)
	}

	overrides.Apply(&analysis)
	analysis.Validate()
	return analysis
}

func parseAnalyzerReply(reply string) domain.DocumentAnalysis {
	body := jsonObjectPattern.FindString(reply)
	if body == "" {
		def := domain.DefaultAnalysis()
		def.ConfidenceDegraded = true
		return def
	}

	var decoded analyzerReply
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		def := domain.DefaultAnalysis()
		def.ConfidenceDegraded = true
		return def
	}

	fonts := make([]domain.FontFamilyClass, 0, len(decoded.FontFamilies))
	for _, f := range decoded.FontFamilies {
		fonts = append(fonts, domain.FontFamilyClass(f))
	}
	if len(fonts) == 0 {
		fonts = []domain.FontFamilyClass{domain.FontSerif}
	}

	sg := decoded.StyleGuide
	analysis := domain.DocumentAnalysis{
		PrimaryLanguage:    decoded.PrimaryLanguage,
		TextDirection:      domain.TextDirection(decoded.TextDirection),
		MixedDirections:    decoded.MixedDirections,
		HasEquations:       decoded.HasEquations,
		EquationComplexity: domain.EquationComplexity(decoded.EquationComplexity),
		HasTables:          decoded.HasTables,
		HasFigures:         decoded.HasFigures,
		HasCodeBlocks:      decoded.HasCodeBlocks,
		LayoutType:         domain.LayoutType(decoded.LayoutType),
		ColumnCount:        maxInt(decoded.ColumnCount, 1),
		HasHeaders:         decoded.HasHeaders,
		HasFooters:         decoded.HasFooters,
		HasFootnotes:       decoded.HasFootnotes,
		FontFamilies:       fonts,
		HasBold:            decoded.HasBold,
		HasItalic:          decoded.HasItalic,
		HasUnderline:       decoded.HasUnderline,
		DocumentType:       decoded.DocumentType,
		StyleGuide: domain.StyleGuide{
			TitleFont:       orDefault(sg.TitleFont, "Georgia, serif"),
			BodyFont:        orDefault(sg.BodyFont, "Georgia, serif"),
			HeaderFont:      orDefault(sg.HeaderFont, "Georgia, serif"),
			TitleSizePx:     orDefaultInt(sg.TitleSizePx, 24),
			HeaderSizePx:    orDefaultInt(sg.HeaderSizePx, 18),
			BodySizePx:      orDefaultInt(sg.BodySizePx, 12),
			LineHeight:      orDefaultFloat(sg.LineHeight, 1.5),
			HeaderBgColor:   sg.HeaderBgColor,
			HeaderTextColor: orDefault(sg.HeaderTextColor, "#000000"),
			BodyTextColor:   orDefault(sg.BodyTextColor, "#000000"),
			BackgroundColor: orDefault(sg.BackgroundColor, "#FFFFFF"),
		},
		RepeatingElements: domain.RepeatingElements{
			PageHeader:     toRepeatingElement(decoded.RepeatingElements.PageHeader),
			PageFooter:     toRepeatingElement(decoded.RepeatingElements.PageFooter),
			ColumnDivider:  toRepeatingElement(decoded.RepeatingElements.ColumnDivider),
			SectionDivider: toRepeatingElement(decoded.RepeatingElements.SectionDivider),
			PageBorder:     toRepeatingElement(decoded.RepeatingElements.PageBorder),
		},
	}

	if !analysis.TextDirection.IsValid() {
		analysis.TextDirection = domain.DirectionLTR
	}
	return analysis
}

func toRepeatingElement(e analyzerReplyElement) domain.RepeatingElement {
	return domain.RepeatingElement{Present: e.Present, Content: e.Content, Description: e.Description}
}

func maxInt(v, min int) int {
	if v < min {
		return min
	}
	return v
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
