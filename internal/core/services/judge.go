package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// judgeSystemPrompt fixes the comparison rubric every single-model judge
// call uses (spec §4.5).
const judgeSystemPrompt = `You are a meticulous visual QA reviewer comparing a rendered HTML page
against the scanned page it is meant to reproduce.

Score each dimension from 0 to 100 and reply with ONLY a JSON object, no
other text, matching exactly this shape:
{
  "fidelity_score": 0,
  "layout_score": 0,
  "text_accuracy_score": 0,
  "color_match_score": 0,
  "equation_score": 0,
  "critical_errors": ["short imperative fix", "..."]
}

layout_score: column structure, spacing, element placement.
text_accuracy_score: is the text itself correct and complete.
color_match_score: background, text, and accent colors.
equation_score: is math typeset properly, not rendered as ASCII art.
critical_errors: one short imperative sentence per defect, naming a fix where possible.`

// judgeReply is the wire shape a judge model is asked to reply with
// (spec §6, "Judge reply contract"). Missing numeric keys default to 0;
// extra keys are ignored by encoding/json already.
type judgeReply struct {
	FidelityScore      int      `json:"fidelity_score"`
	LayoutScore        int      `json:"layout_score"`
	TextAccuracyScore  int      `json:"text_accuracy_score"`
	ColorMatchScore    int      `json:"color_match_score"`
	EquationScore      int      `json:"equation_score"`
	CriticalErrors     []string `json:"critical_errors"`
	PreservedCorrectly []string `json:"preserved_correctly"`
}

// jsonObjectPattern extracts the span from the first '{' to the last '}' of
// a model reply that may have wrapped its JSON in prose or fences despite the
// system prompt's instruction not to.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Judge is a single vision-model comparator (spec §4.5): given the
// original and rendered page images, it returns a JudgeFeedback whose
// composite is always recomputed locally, never trusted from the model.
type Judge struct {
	model driven.VisionModel
}

// NewJudge constructs a Judge bound to the given vision model.
func NewJudge(model driven.VisionModel) *Judge {
	return &Judge{model: model}
}

// Compare scores a rendered page against its source image. It never
// returns an error to the caller: an unparseable reply yields a
// zero-score feedback naming the parse failure, per spec §4.5/§7.
func (j *Judge) Compare(ctx context.Context, original, rendered domain.ImageInput) domain.JudgeFeedback {
	reply, err := j.model.Complete(ctx, driven.VisionRequest{
		SystemPrompt: judgeSystemPrompt,
		UserText:     "First image: original scanned page. Second image: rendered HTML. Compare them and reply with the JSON object only.",
		Images: []driven.ImagePart{
			{Bytes: original.Bytes, MimeType: original.MimeType, Label: "original page"},
			{Bytes: rendered.Bytes, MimeType: rendered.MimeType, Label: "rendered page"},
		},
		MaxTokens:   1024,
		Temperature: 0,
	})
	if err != nil {
		return domain.JudgeFeedback{
			CriticalErrors: []string{fmt.Sprintf("judge call failed: %s", err)},
			RawResponse:    err.Error(),
		}
	}
	return ParseJudgeReply(reply)
}

// ParseJudgeReply decodes a judge model's reply into a JudgeFeedback,
// recomputing the composite from the reported subscores (spec §3
// composite score law). On parse failure it returns the documented
// fallback: fidelity_score=0 and one critical error naming the failure
// (spec §4.5, §7 JudgeError).
func ParseJudgeReply(reply string) domain.JudgeFeedback {
	body := jsonObjectPattern.FindString(reply)
	if body == "" {
		body = strings.TrimSpace(reply)
	}

	var decoded judgeReply
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return domain.JudgeFeedback{
			CriticalErrors: []string{fmt.Sprintf("%s: could not parse judge reply as JSON", domain.ErrJudge)},
			RawResponse:    reply,
		}
	}

	feedback := domain.JudgeFeedback{
		LayoutScore:        clampScore(decoded.LayoutScore),
		TextAccuracyScore:  clampScore(decoded.TextAccuracyScore),
		ColorMatchScore:    clampScore(decoded.ColorMatchScore),
		EquationScore:      clampScore(decoded.EquationScore),
		CriticalErrors:     decoded.CriticalErrors,
		PreservedCorrectly: decoded.PreservedCorrectly,
		RawResponse:        reply,
	}
	feedback.Recompute()
	return feedback
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
