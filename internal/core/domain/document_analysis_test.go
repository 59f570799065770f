package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentAnalysis_ValidateEquationInvariant(t *testing.T) {
	a := DocumentAnalysis{EquationComplexity: EquationSimple}
	assert.False(t, a.HasEquations)

	a.Validate()

	assert.True(t, a.HasEquations)
}

func TestDocumentAnalysis_ValidateLeavesNoneAlone(t *testing.T) {
	a := DocumentAnalysis{EquationComplexity: EquationNone}
	a.Validate()
	assert.False(t, a.HasEquations)
}

func TestOverrides_ApplyWinsOverInferred(t *testing.T) {
	a := DefaultAnalysis()
	a.PrimaryLanguage = "Arabic"
	a.TextDirection = DirectionRTL

	o := Overrides{Language: "French", Direction: DirectionLTR}
	o.Apply(&a)

	assert.Equal(t, "French", a.PrimaryLanguage)
	assert.Equal(t, DirectionLTR, a.TextDirection)
}

func TestOverrides_ApplyLeavesUnsetFieldsAlone(t *testing.T) {
	a := DefaultAnalysis()
	a.PrimaryLanguage = "Arabic"

	o := Overrides{}
	o.Apply(&a)

	assert.Equal(t, "Arabic", a.PrimaryLanguage)
}
