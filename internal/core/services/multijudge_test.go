package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// scriptedVisionModel returns a fixed sequence of replies, one per call,
// repeating the last reply once the script is exhausted. It does not record
// the requests it receives; calls only counts them.
type scriptedVisionModel struct {
	replies []string
	calls   int
	name    string
}

func (s *scriptedVisionModel) Complete(_ context.Context, _ driven.VisionRequest) (string, error) {
	reply := s.replies[s.calls]
	if s.calls < len(s.replies)-1 {
		s.calls++
	}
	return reply, nil
}

func (s *scriptedVisionModel) ModelName() string            { return s.name }
func (s *scriptedVisionModel) Ping(_ context.Context) error { return nil }

func feedbackJSON(layout, text, color, equation int) string {
	return `{"layout_score": ` + itoa(layout) + `, "text_accuracy_score": ` + itoa(text) +
		`, "color_match_score": ` + itoa(color) + `, "equation_score": ` + itoa(equation) + `}`
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	digits := ""
	neg := v < 0
	if neg {
		v = -v
	}
	for v > 0 {
		digits = string(rune('0'+v%10)) + digits
		v /= 10
	}
	if neg {
		digits = "-" + digits
	}
	return digits
}

func TestMultiJudge_SingleJudgeWhenCrossModelDisabled(t *testing.T) {
	a := &scriptedVisionModel{replies: []string{feedbackJSON(80, 90, 70, 60)}}
	mj := NewMultiJudge(NewJudge(a), nil, domain.MultiJudgeSettings{})

	fb, err := mj.Score(context.Background(), domain.ImageInput{}, domain.ImageInput{}, false, 85)

	require.NoError(t, err)
	assert.Equal(t, 90, fb.TextAccuracyScore)
	assert.False(t, fb.JudgesDisagree)
}

func TestMultiJudge_WeightedCombination(t *testing.T) {
	a := &scriptedVisionModel{replies: []string{feedbackJSON(100, 100, 100, 100)}}
	b := &scriptedVisionModel{replies: []string{feedbackJSON(0, 0, 0, 0)}}
	mj := NewMultiJudge(NewJudge(a), NewJudge(b), domain.MultiJudgeSettings{
		UseCrossModel: true, WeightA: 0.5, WeightB: 0.5,
	})

	fb, err := mj.Score(context.Background(), domain.ImageInput{}, domain.ImageInput{}, false, 85)

	require.NoError(t, err)
	assert.Equal(t, 50, fb.LayoutScore)
	assert.Equal(t, 50, fb.TextAccuracyScore)
}

func TestMultiJudge_ConsensusFlagWhenJudgesDisagree(t *testing.T) {
	a := &scriptedVisionModel{replies: []string{feedbackJSON(95, 95, 95, 95)}}
	b := &scriptedVisionModel{replies: []string{feedbackJSON(40, 40, 40, 40)}}
	mj := NewMultiJudge(NewJudge(a), NewJudge(b), domain.MultiJudgeSettings{
		UseCrossModel: true, WeightA: 0.5, WeightB: 0.5,
	})

	fb, err := mj.Score(context.Background(), domain.ImageInput{}, domain.ImageInput{}, false, 85)

	require.NoError(t, err)
	assert.True(t, fb.JudgesDisagree)
}

func TestMultiJudge_EquationSpecialistCapsASCIIArt(t *testing.T) {
	a := &scriptedVisionModel{replies: []string{feedbackJSON(90, 90, 90, 95)}}
	specialist := &scriptedVisionModel{replies: []string{`{"ascii_art_detected": true, "equation_score": 10}`}}
	mj := NewMultiJudge(NewJudge(a), nil, domain.MultiJudgeSettings{UseEquationSpecialist: true})
	mj.EquationSpecialist = specialist

	fb, err := mj.Score(context.Background(), domain.ImageInput{}, domain.ImageInput{}, true, 85)

	require.NoError(t, err)
	assert.LessOrEqual(t, fb.EquationScore, domain.EquationSpecialistCap)
	assert.True(t, fb.EquationASCIIArtDetected)
}

func TestMultiJudge_EquationSpecialistSkippedWithoutEquations(t *testing.T) {
	a := &scriptedVisionModel{replies: []string{feedbackJSON(90, 90, 90, 95)}}
	specialist := &scriptedVisionModel{replies: []string{`{"ascii_art_detected": true, "equation_score": 10}`}}
	mj := NewMultiJudge(NewJudge(a), nil, domain.MultiJudgeSettings{UseEquationSpecialist: true})
	mj.EquationSpecialist = specialist

	fb, err := mj.Score(context.Background(), domain.ImageInput{}, domain.ImageInput{}, false, 85)

	require.NoError(t, err)
	assert.Equal(t, 95, fb.EquationScore)
}

func TestMultiJudge_VerificationGateRunsOnlyAboveTarget(t *testing.T) {
	a := &scriptedVisionModel{replies: []string{feedbackJSON(50, 50, 50, 50)}}
	verifier := &scriptedVisionModel{replies: []string{`{"verdict": "reject", "reason": "x"}`}}
	mj := NewMultiJudge(NewJudge(a), nil, domain.MultiJudgeSettings{UseVerification: true})
	mj.Verifier = verifier

	fb, err := mj.Score(context.Background(), domain.ImageInput{}, domain.ImageInput{}, false, 85)

	require.NoError(t, err)
	assert.False(t, fb.GateFailed)
	assert.Empty(t, fb.GateRecommendation)
}

func TestMultiJudge_VerificationGateRejectSetsFlag(t *testing.T) {
	a := &scriptedVisionModel{replies: []string{feedbackJSON(95, 95, 95, 95)}}
	verifier := &scriptedVisionModel{replies: []string{`{"verdict": "needs_refinement", "reason": "x"}`}}
	mj := NewMultiJudge(NewJudge(a), nil, domain.MultiJudgeSettings{UseVerification: true})
	mj.Verifier = verifier

	fb, err := mj.Score(context.Background(), domain.ImageInput{}, domain.ImageInput{}, false, 85)

	require.NoError(t, err)
	assert.True(t, fb.GateFailed)
	assert.Equal(t, GateNeedsRefinement, fb.GateRecommendation)
}

func TestMultiJudge_VerificationGateAcceptLeavesGateUnset(t *testing.T) {
	a := &scriptedVisionModel{replies: []string{feedbackJSON(95, 95, 95, 95)}}
	verifier := &scriptedVisionModel{replies: []string{`{"verdict": "accept", "reason": "x"}`}}
	mj := NewMultiJudge(NewJudge(a), nil, domain.MultiJudgeSettings{UseVerification: true})
	mj.Verifier = verifier

	fb, err := mj.Score(context.Background(), domain.ImageInput{}, domain.ImageInput{}, false, 85)

	require.NoError(t, err)
	assert.False(t, fb.GateFailed)
	assert.Equal(t, GateAccept, fb.GateRecommendation)
}
