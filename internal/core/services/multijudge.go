package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// consensusThreshold is the composite-score gap between judge A and judge
// B above which MultiJudge flags judges_disagree (spec §4.6 consensus
// check). A warning only; it never changes the Loop's decision.
const consensusThreshold = 15

// GateAccept, GateReject, and GateNeedsRefinement are the verification
// gate's three possible verdicts (spec §4.6 step 4).
const (
	GateAccept          = "accept"
	GateReject          = "reject"
	GateNeedsRefinement = "needs_refinement"
)

// MultiJudge orchestrates up to four sub-operations over a single
// (original, rendered) page pair: cross-model parallel scoring, weighted
// combination, an equation specialist cap, and a terminal verification
// gate (spec §4.6). Each sub-operation is independently toggled by
// MultiJudgeSettings.
type MultiJudge struct {
	JudgeA *Judge
	JudgeB *Judge // nil disables cross-model scoring regardless of settings.

	// EquationSpecialist and Verifier default to JudgeA's model when nil;
	// the spec treats them as "a dedicated judge prompt", not necessarily
	// a distinct provider.
	EquationSpecialist driven.VisionModel
	Verifier           driven.VisionModel

	Settings domain.MultiJudgeSettings
}

// NewMultiJudge constructs a MultiJudge from its sub-judges and settings.
func NewMultiJudge(judgeA, judgeB *Judge, settings domain.MultiJudgeSettings) *MultiJudge {
	return &MultiJudge{JudgeA: judgeA, JudgeB: judgeB, Settings: settings}
}

// Score runs the full MultiJudge pipeline for one iteration's rendered
// page against the original, given the target fidelity score and whether
// the document analysis flagged equations.
func (m *MultiJudge) Score(ctx context.Context, original, rendered domain.ImageInput, hasEquations bool, target int) (domain.JudgeFeedback, error) {
	feedback, err := m.crossModelScore(ctx, original, rendered)
	if err != nil {
		return domain.JudgeFeedback{}, err
	}

	if m.Settings.UseEquationSpecialist && hasEquations {
		m.applyEquationSpecialist(ctx, rendered, &feedback)
	}

	if m.Settings.UseVerification && feedback.FidelityScore >= target {
		m.applyVerificationGate(ctx, original, rendered, &feedback)
	}

	return feedback, nil
}

// crossModelScore runs step 1 and 2: judge A and (if configured) judge B
// concurrently, then combines their subscores by the configured weights.
// When cross-model scoring is disabled or judge B is absent, judge A's
// feedback is returned unchanged.
func (m *MultiJudge) crossModelScore(ctx context.Context, original, rendered domain.ImageInput) (domain.JudgeFeedback, error) {
	if !m.Settings.UseCrossModel || m.JudgeB == nil {
		return m.JudgeA.Compare(ctx, original, rendered), nil
	}

	var a, b domain.JudgeFeedback
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a = m.JudgeA.Compare(gctx, original, rendered)
		return nil
	})
	g.Go(func() error {
		b = m.JudgeB.Compare(gctx, original, rendered)
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.JudgeFeedback{}, err
	}

	return combineFeedback(a, b, m.Settings.WeightA, m.Settings.WeightB), nil
}

// combineFeedback implements spec §4.6 step 2: weighted subscores,
// deduplicated union of critical errors and preserved-correctly lists,
// and the consensus annotation of step "Consensus check".
func combineFeedback(a, b domain.JudgeFeedback, weightA, weightB float64) domain.JudgeFeedback {
	combined := domain.JudgeFeedback{
		LayoutScore:       weightedRound(a.LayoutScore, b.LayoutScore, weightA, weightB),
		TextAccuracyScore: weightedRound(a.TextAccuracyScore, b.TextAccuracyScore, weightA, weightB),
		ColorMatchScore:   weightedRound(a.ColorMatchScore, b.ColorMatchScore, weightA, weightB),
		EquationScore:     weightedRound(a.EquationScore, b.EquationScore, weightA, weightB),

		CriticalErrors:     dedupeStrings(a.CriticalErrors, b.CriticalErrors),
		PreservedCorrectly: dedupeStrings(a.PreservedCorrectly, b.PreservedCorrectly),
		RawResponse:        a.RawResponse + "\n---\n" + b.RawResponse,
	}
	combined.Recompute()

	if math.Abs(float64(a.FidelityScore-b.FidelityScore)) > consensusThreshold {
		combined.JudgesDisagree = true
	}
	return combined
}

func weightedRound(a, b int, weightA, weightB float64) int {
	return int(math.Round(weightA*float64(a) + weightB*float64(b)))
}

// dedupeStrings unions two string lists, deduplicating by a normalized
// (lowercased, whitespace-collapsed) comparison while preserving the
// first-seen original casing and order.
func dedupeStrings(a, b []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		key := strings.Join(strings.Fields(strings.ToLower(s)), " ")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// equationSpecialistPrompt asks the model to look specifically for
// ASCII-art math (x^2, a/b, missing Greek letters) rather than properly
// typeset equations, per spec §4.6 step 3.
const equationSpecialistPrompt = `Look only at how mathematical notation is rendered in the attached image.
Reply with ONLY a JSON object of this shape:
{"ascii_art_detected": false, "equation_score": 0}

Set ascii_art_detected to true if you see patterns like "x^2", "a/b", or
missing Greek letters instead of properly typeset math (fractions,
superscripts, Greek symbols rendered as glyphs). equation_score is your
own 0-100 assessment of the math typesetting quality.`

type equationSpecialistReply struct {
	ASCIIArtDetected bool `json:"ascii_art_detected"`
	EquationScore    int  `json:"equation_score"`
}

// applyEquationSpecialist runs spec §4.6 step 3: if ASCII-art math is
// detected in the rendered page, cap the combined equation_score at
// domain.EquationSpecialistCap regardless of what the general judges
// scored, and recompute the composite. Modeled as a transformation over
// the already-combined feedback, not as a peer judge (spec §9).
func (m *MultiJudge) applyEquationSpecialist(ctx context.Context, rendered domain.ImageInput, feedback *domain.JudgeFeedback) {
	model := m.EquationSpecialist
	if model == nil {
		model = m.JudgeA.model
	}

	reply, err := model.Complete(ctx, driven.VisionRequest{
		SystemPrompt: equationSpecialistPrompt,
		UserText:     "Evaluate the math typesetting in the attached rendered page.",
		Images:       []driven.ImagePart{{Bytes: rendered.Bytes, MimeType: rendered.MimeType, Label: "rendered page"}},
		MaxTokens:    256,
		Temperature:  0,
	})
	if err != nil {
		return
	}

	body := jsonObjectPattern.FindString(reply)
	if body == "" {
		return
	}
	var decoded equationSpecialistReply
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return
	}

	if decoded.ASCIIArtDetected {
		feedback.EquationASCIIArtDetected = true
		feedback.CriticalErrors = append(feedback.CriticalErrors, "render equations with MathJax, not ASCII art")
		feedback.CapEquation(domain.EquationSpecialistCap)
	}
}

// verificationGatePrompt asks for a lenient terminal accept/reject
// judgment once the composite has already cleared target (spec §4.6
// step 4, "Verification gate").
const verificationGatePrompt = `The rendered page has already scored well against the original on a
strict rubric. Take one more, lenient look: would a human reviewer be
satisfied with this as a faithful reproduction, or is there an obvious
remaining defect?

Reply with ONLY a JSON object:
{"verdict": "accept", "reason": ""}

verdict must be exactly one of: "accept", "reject", "needs_refinement".`

type verificationReply struct {
	Verdict string `json:"verdict"`
	Reason  string `json:"reason"`
}

var verdictPattern = regexp.MustCompile(`accept|reject|needs_refinement`)

// applyVerificationGate runs spec §4.6 step 4. It never changes
// FidelityScore; it only annotates GateRecommendation/GateFailed so the
// Loop's DECIDE step can veto an otherwise-accepting iteration.
func (m *MultiJudge) applyVerificationGate(ctx context.Context, original, rendered domain.ImageInput, feedback *domain.JudgeFeedback) {
	model := m.Verifier
	if model == nil {
		model = m.JudgeA.model
	}

	reply, err := model.Complete(ctx, driven.VisionRequest{
		SystemPrompt: verificationGatePrompt,
		UserText:     "First image: original. Second image: rendered. Give your lenient final verdict.",
		Images: []driven.ImagePart{
			{Bytes: original.Bytes, MimeType: original.MimeType, Label: "original page"},
			{Bytes: rendered.Bytes, MimeType: rendered.MimeType, Label: "rendered page"},
		},
		MaxTokens:   128,
		Temperature: 0,
	})
	if err != nil {
		// A failed verification call is not itself a judge error; the
		// gate simply did not run, and the composite score decides alone.
		return
	}

	verdict := ""
	body := jsonObjectPattern.FindString(reply)
	if body != "" {
		var decoded verificationReply
		if err := json.Unmarshal([]byte(body), &decoded); err == nil {
			verdict = decoded.Verdict
		}
	}
	if verdict == "" {
		verdict = verdictPattern.FindString(strings.ToLower(reply))
	}
	if verdict == "" {
		return
	}

	feedback.GateRecommendation = verdict
	if verdict != GateAccept {
		feedback.GateFailed = true
		feedback.CriticalErrors = append(feedback.CriticalErrors,
			fmt.Sprintf("verification gate returned %q despite meeting target", verdict))
	}
}
