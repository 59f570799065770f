package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageconv/pageconv/internal/core/domain"
)

func TestParseJudgeReply_WellFormedJSON(t *testing.T) {
	reply := `{"fidelity_score": 99, "layout_score": 90, "text_accuracy_score": 95, "color_match_score": 80, "equation_score": 70, "critical_errors": ["fix the header color"]}`

	fb := ParseJudgeReply(reply)

	assert.Equal(t, 90, fb.LayoutScore)
	assert.Equal(t, 95, fb.TextAccuracyScore)
	assert.Equal(t, 80, fb.ColorMatchScore)
	assert.Equal(t, 70, fb.EquationScore)
	assert.Equal(t, domain.Composite(95, 90, 70, 80), fb.FidelityScore)
	assert.Equal(t, []string{"fix the header color"}, fb.CriticalErrors)
}

func TestParseJudgeReply_IgnoresSurroundingProse(t *testing.T) {
	reply := "Sure, here you go:\n```json\n{\"layout_score\": 50, \"text_accuracy_score\": 50, \"color_match_score\": 50, \"equation_score\": 50}\n```\nHope that helps!"

	fb := ParseJudgeReply(reply)

	assert.Equal(t, 50, fb.LayoutScore)
}

func TestParseJudgeReply_MissingKeysDefaultToZero(t *testing.T) {
	fb := ParseJudgeReply(`{"layout_score": 80}`)

	assert.Equal(t, 80, fb.LayoutScore)
	assert.Equal(t, 0, fb.TextAccuracyScore)
	assert.Equal(t, 0, fb.EquationScore)
	assert.Equal(t, 0, fb.ColorMatchScore)
}

func TestParseJudgeReply_UnparseableYieldsZeroScoreFeedback(t *testing.T) {
	fb := ParseJudgeReply("the model just refused to answer")

	assert.Equal(t, 0, fb.FidelityScore)
	assert.Len(t, fb.CriticalErrors, 1)
	assert.Contains(t, fb.CriticalErrors[0], "judge error")
}

func TestParseJudgeReply_ClampsOutOfRangeScores(t *testing.T) {
	fb := ParseJudgeReply(`{"layout_score": 150, "text_accuracy_score": -10, "color_match_score": 50, "equation_score": 50}`)

	assert.Equal(t, 100, fb.LayoutScore)
	assert.Equal(t, 0, fb.TextAccuracyScore)
}
