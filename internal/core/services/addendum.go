package services

import (
	"fmt"
	"strings"

	"github.com/pageconv/pageconv/internal/core/domain"
)

// BuildPromptAddendum composes a document-specific addendum for the
// Generator's prompt out of the Analyzer's findings: RTL handling,
// equation guidance, column layout, the style guide, and any repeating
// header/footer/divider elements. It is a pure function so it can be
// tested independently of any vision model call.
func BuildPromptAddendum(analysis domain.DocumentAnalysis) domain.PromptAddendum {
	var b strings.Builder

	fmt.Fprintf(&b, "## Document Analysis Results\n\nDocument type: %s\nPrimary language: %s\nText direction: %s\n",
		analysis.DocumentType, analysis.PrimaryLanguage, strings.ToUpper(string(analysis.TextDirection)))

	if analysis.TextDirection == domain.DirectionRTL {
		b.WriteString("\n## CRITICAL: Right-to-Left (RTL) Document\n\n")
		b.WriteString("Add dir=\"rtl\" to the <html> tag, direction: rtl; to the body, and text-align: right for text blocks.\n")
		if analysis.MixedDirections || analysis.HasEquations {
			b.WriteString("Mathematical equations and embedded Latin text use Latin/Greek symbols; wrap them in <span dir=\"ltr\"> while the surrounding prose stays RTL.\n")
		}
	}

	if analysis.HasEquations {
		fmt.Fprintf(&b, "\n## Mathematical Equations\n\nThis document contains %s equations. Use MathJax with \\( ... \\) for inline and $$ ... $$ for display math. Never render equations as ASCII art.\n",
			analysis.EquationComplexity)
	}

	if analysis.ColumnCount > 1 || analysis.LayoutType == domain.LayoutMultiColumn {
		fmt.Fprintf(&b, "\n## Multi-Column Layout\n\nThis document has %d columns (%s). Use CSS Grid or Flexbox to match the column structure.\n",
			analysis.ColumnCount, analysis.LayoutType)
	}

	if analysis.HasTables {
		b.WriteString("\n## Tables\n\nRecreate table structure with <table>, <thead>, <tbody>, matching borders and cell padding.\n")
	}

	var typography []string
	if analysis.HasBold {
		typography = append(typography, "Use <strong> or font-weight: bold for bold text")
	}
	if analysis.HasItalic {
		typography = append(typography, "Use <em> or font-style: italic for italic text")
	}
	if analysis.HasUnderline {
		typography = append(typography, "Use text-decoration: underline for underlined text")
	}
	if len(typography) > 0 {
		b.WriteString("\n## Typography\n\n")
		for _, t := range typography {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}

	sg := analysis.StyleGuide
	fmt.Fprintf(&b, `
## Document Style Guide (use exactly on every page)

.title, h1 { font-family: %s; font-size: %dpx; }
h2, h3, .section-header { font-family: %s; font-size: %dpx; }
body, p { font-family: %s; font-size: %dpx; line-height: %.2f; color: %s; }

Background: %s. Header text: %s.
`,
		sg.TitleFont, sg.TitleSizePx,
		sg.HeaderFont, sg.HeaderSizePx,
		sg.BodyFont, sg.BodySizePx, sg.LineHeight, sg.BodyTextColor,
		sg.BackgroundColor, sg.HeaderTextColor)
	if sg.HeaderBgColor != "" {
		fmt.Fprintf(&b, "Header/banner background: %s.\n", sg.HeaderBgColor)
	}
	b.WriteString("Do not deviate from these styles; consistency across pages is essential.\n")

	if analysis.RepeatingElements.AnyPresent() {
		b.WriteString("\n## Repeating Elements (must be identical on every page)\n\n")
		re := analysis.RepeatingElements
		if re.PageHeader.Present {
			fmt.Fprintf(&b, "Page header: %q — %s\n", re.PageHeader.Content, re.PageHeader.Description)
		}
		if re.PageFooter.Present {
			fmt.Fprintf(&b, "Page footer: %q — %s\n", re.PageFooter.Content, re.PageFooter.Description)
		}
		if re.ColumnDivider.Present {
			fmt.Fprintf(&b, "Column divider: %s\n", re.ColumnDivider.Description)
		}
		if re.SectionDivider.Present {
			fmt.Fprintf(&b, "Section divider: %s\n", re.SectionDivider.Description)
		}
		if re.PageBorder.Present {
			fmt.Fprintf(&b, "Page border: %s\n", re.PageBorder.Description)
		}
	}

	return domain.PromptAddendum{Text: b.String()}
}
