package domain

import "math"

// Composite weights for the fidelity score law: text is the dominant
// signal, layout next, then equations, then colour. See Composite.
const (
	WeightText     = 0.50
	WeightLayout   = 0.30
	WeightEquation = 0.15
	WeightColor    = 0.05

	// EquationSpecialistCap is the ceiling MultiJudge's equation
	// specialist imposes on EquationScore when it detects ASCII-art math
	// in the rendered page, regardless of what the general judges scored.
	EquationSpecialistCap = 40
)

// JudgeFeedback is the value object exchanged between judges, MultiJudge,
// Loop, and Generator.
type JudgeFeedback struct {
	FidelityScore     int
	LayoutScore       int
	TextAccuracyScore int
	ColorMatchScore   int
	EquationScore     int

	// CriticalErrors is an ordered list of short imperative strings, each
	// naming one defect and, where possible, a fix.
	CriticalErrors []string

	// PreservedCorrectly lists elements the judge confirms are correct;
	// empty if the judge does not report it. Used by refine() to build a
	// "do not change" list.
	PreservedCorrectly []string

	// RawResponse is the original model reply, retained for diagnostics.
	RawResponse string

	// JudgesDisagree is set by MultiJudge when the two cross-model judges'
	// composites differ by more than 15 points. Warning only; it never
	// changes the Loop's decision.
	JudgesDisagree bool

	// EquationASCIIArtDetected is set by the equation specialist when it
	// finds ASCII-math patterns in the rendered page.
	EquationASCIIArtDetected bool

	// GateFailed is set when the verification gate ran and returned
	// "reject" or "needs_refinement" even though the composite met target.
	GateFailed bool

	// GateRecommendation is the verification gate's verdict when it ran:
	// "accept", "reject", or "needs_refinement". Empty if the gate did
	// not run.
	GateRecommendation string
}

// Composite recomputes FidelityScore from the subscores per the
// composite score law: round(0.50*text + 0.30*layout + 0.15*equation +
// 0.05*color). Call this any time a subscore changes (weighted
// combination, specialist cap) so FidelityScore never drifts from its
// inputs.
func Composite(text, layout, equation, color int) int {
	v := WeightText*float64(text) +
		WeightLayout*float64(layout) +
		WeightEquation*float64(equation) +
		WeightColor*float64(color)
	return int(math.Round(v))
}

// Recompute sets FidelityScore from the current subscores.
func (f *JudgeFeedback) Recompute() {
	f.FidelityScore = Composite(f.TextAccuracyScore, f.LayoutScore, f.EquationScore, f.ColorMatchScore)
}

// CapEquation clamps EquationScore to at most cap and recomputes the
// composite. Used by the equation specialist when ASCII-art math is
// detected in the rendered page (spec §4.6 step 3).
func (f *JudgeFeedback) CapEquation(cap int) {
	if f.EquationScore > cap {
		f.EquationScore = cap
	}
	f.Recompute()
}

// clampScore keeps a subscore within the documented [0,100] range.
func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
