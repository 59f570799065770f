package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageconv/pageconv/internal/core/domain"
)

func TestBuildPromptAddendum_RTLIncludesDirectionGuidance(t *testing.T) {
	analysis := domain.DefaultAnalysis()
	analysis.TextDirection = domain.DirectionRTL
	analysis.PrimaryLanguage = "Arabic"

	addendum := BuildPromptAddendum(analysis)

	assert.Contains(t, addendum.Text, "Right-to-Left")
	assert.Contains(t, addendum.Text, "dir=\"rtl\"")
}

func TestBuildPromptAddendum_LTRSkipsRTLSection(t *testing.T) {
	analysis := domain.DefaultAnalysis()

	addendum := BuildPromptAddendum(analysis)

	assert.NotContains(t, addendum.Text, "Right-to-Left")
}

func TestBuildPromptAddendum_EquationsMentionComplexity(t *testing.T) {
	analysis := domain.DefaultAnalysis()
	analysis.HasEquations = true
	analysis.EquationComplexity = domain.EquationComplex

	addendum := BuildPromptAddendum(analysis)

	assert.Contains(t, addendum.Text, "complex")
	assert.Contains(t, addendum.Text, "MathJax")
}

func TestBuildPromptAddendum_MultiColumnLayout(t *testing.T) {
	analysis := domain.DefaultAnalysis()
	analysis.ColumnCount = 2
	analysis.LayoutType = domain.LayoutMultiColumn

	addendum := BuildPromptAddendum(analysis)

	assert.Contains(t, addendum.Text, "2 columns")
}

func TestBuildPromptAddendum_RepeatingElementsIncludedWhenPresent(t *testing.T) {
	analysis := domain.DefaultAnalysis()
	analysis.RepeatingElements.PageHeader = domain.RepeatingElement{
		Present:     true,
		Content:     "Document Title",
		Description: "blue banner, white text",
	}

	addendum := BuildPromptAddendum(analysis)

	assert.Contains(t, addendum.Text, "Repeating Elements")
	assert.Contains(t, addendum.Text, "Document Title")
}

func TestBuildPromptAddendum_RepeatingElementsSkippedWhenAbsent(t *testing.T) {
	analysis := domain.DefaultAnalysis()

	addendum := BuildPromptAddendum(analysis)

	assert.NotContains(t, addendum.Text, "Repeating Elements")
}

func TestBuildPromptAddendum_AlwaysIncludesStyleGuide(t *testing.T) {
	analysis := domain.DefaultAnalysis()

	addendum := BuildPromptAddendum(analysis)

	assert.Contains(t, addendum.Text, "Document Style Guide")
	assert.Contains(t, addendum.Text, analysis.StyleGuide.BodyFont)
}
