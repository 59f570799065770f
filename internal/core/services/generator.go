package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// generatorSystemPrompt instructs the vision model to emit a complete,
// self-contained HTML document rather than a fragment or explanation.
const generatorSystemPrompt = `You are an expert at recreating scanned document pages as pixel-faithful HTML.
Reply with a single complete HTML document and nothing else: no explanation, no markdown fences.`

// Generator produces and refines per-page HTML against a single
// driven.VisionModel. Both operations wrap a model call with the same
// deterministic post-processing: fence stripping, then figure injection.
type Generator struct {
	model driven.VisionModel
}

// NewGenerator constructs a Generator bound to the given vision model.
// The same VisionModel port backs the Analyzer and every Judge, so which
// provider plays which role is a pure configuration choice (spec §4.3).
func NewGenerator(model driven.VisionModel) *Generator {
	return &Generator{model: model}
}

// GenerateInitial produces a self-contained HTML document from the page
// image alone, conditioned by the addendum (spec §4.3).
func (g *Generator) GenerateInitial(ctx context.Context, page domain.PageAssets, addendum domain.PromptAddendum) (string, error) {
	prompt := buildInitialPrompt(page, addendum)
	images := []driven.ImagePart{{Bytes: page.PageImage.Bytes, MimeType: page.PageImage.MimeType, Label: "source page"}}
	images = append(images, figureImageParts(page)...)

	reply, err := g.model.Complete(ctx, driven.VisionRequest{
		SystemPrompt: generatorSystemPrompt,
		UserText:     prompt,
		Images:       images,
		MaxTokens:    8192,
		Temperature:  0.2,
	})
	if err != nil {
		return "", err
	}
	return PostProcessHTML(reply, page)
}

// Refine produces a revised HTML document given the previous iteration's
// HTML, the original page image, and the judge's feedback (spec §4.3).
func (g *Generator) Refine(ctx context.Context, previousHTML string, page domain.PageAssets, feedback domain.JudgeFeedback, addendum domain.PromptAddendum) (string, error) {
	prompt := buildRefinePrompt(previousHTML, feedback, addendum)
	images := []driven.ImagePart{{Bytes: page.PageImage.Bytes, MimeType: page.PageImage.MimeType, Label: "source page"}}
	images = append(images, figureImageParts(page)...)

	reply, err := g.model.Complete(ctx, driven.VisionRequest{
		SystemPrompt: generatorSystemPrompt,
		UserText:     prompt,
		Images:       images,
		MaxTokens:    8192,
		Temperature:  0.2,
	})
	if err != nil {
		return "", err
	}
	return PostProcessHTML(reply, page)
}

// figureImageParts attaches every extracted figure as a labeled image part
// so the model can see what it is meant to place, not merely describe.
func figureImageParts(page domain.PageAssets) []driven.ImagePart {
	parts := make([]driven.ImagePart, 0, len(page.Figures))
	for _, f := range page.Figures {
		parts = append(parts, driven.ImagePart{
			Bytes:    f.ImageBytes,
			MimeType: f.MimeType,
			Label:    fmt.Sprintf("figure %d", f.Index),
		})
	}
	return parts
}

func buildInitialPrompt(page domain.PageAssets, addendum domain.PromptAddendum) string {
	var b strings.Builder
	b.WriteString("Recreate the attached page image as a single self-contained HTML document.\n\n")
	b.WriteString("Requirements:\n")
	b.WriteString("- Include the MathJax CDN script and configure inline delimiters \\( ... \\) and display delimiters $$ ... $$.\n")
	b.WriteString("- Use CSS grid or flexbox for any multi-column layout; never rely on a fixed pixel layout alone.\n")
	fmt.Fprintf(&b, "- Set dir and lang attributes on <html> to match the document's language and direction.\n")
	if len(page.Figures) > 0 {
		b.WriteString("- For every figure you place, emit <img data-figure-index=\"N\" alt=\"figure N\"> with the matching index below; leave src empty, it is substituted after generation.\n")
		for _, f := range page.Figures {
			fmt.Fprintf(&b, "  Figure %d: bounding box (%d,%d)-(%d,%d)\n", f.Index, f.BBox.X0, f.BBox.Y0, f.BBox.X1, f.BBox.Y1)
		}
	}
	b.WriteString("\n")
	b.WriteString(addendum.Text)
	return b.String()
}

func buildRefinePrompt(previousHTML string, feedback domain.JudgeFeedback, addendum domain.PromptAddendum) string {
	var b strings.Builder
	b.WriteString("Here is the previous HTML attempt at recreating the attached page image:\n\n")
	b.WriteString("```html\n")
	b.WriteString(previousHTML)
	b.WriteString("\n```\n\n")

	if len(feedback.CriticalErrors) > 0 {
		b.WriteString("A judge compared a rendering of that HTML against the source image and found these defects. Fix every one:\n")
		for _, e := range feedback.CriticalErrors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}
	if len(feedback.PreservedCorrectly) > 0 {
		b.WriteString("Do NOT change these elements; the judge confirmed they are already correct:\n")
		for _, p := range feedback.PreservedCorrectly {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}
	b.WriteString("Reply with the complete revised HTML document, not a diff.\n\n")
	b.WriteString(addendum.Text)
	return b.String()
}

// fencePattern matches a leading or trailing fenced-code block the model
// may have wrapped its reply in (``` or ```html), including the closing
// fence on its own line.
var fencePattern = regexp.MustCompile("(?s)^\\s*```(?:html|HTML)?\\s*\\n(.*?)\\n?```\\s*$")

// figurePlaceholder matches an <img> tag's data-figure-index attribute so
// InjectFigures can locate and rewrite its src.
var figurePlaceholder = regexp.MustCompile(`data-figure-index=["']?(\d+)["']?`)

// imgTagPattern matches a whole <img ...> opening tag.
var imgTagPattern = regexp.MustCompile(`<img\b[^>]*>`)

// PostProcessHTML runs the Generator's deterministic post-processing
// (spec §4.3): strip any fence markup, then inject figure data URIs. Pure
// function, independent of the model call, so it is directly testable.
func PostProcessHTML(reply string, page domain.PageAssets) (string, error) {
	html := StripFences(reply)
	if !strings.Contains(html, "<") {
		return "", fmt.Errorf("%w: model reply contained no HTML markup", domain.ErrGenerator)
	}
	return InjectFigures(html, page), nil
}

// StripFences removes a leading/trailing fenced-code block if the model
// wrapped its HTML reply in one, otherwise returns the input unchanged.
func StripFences(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// InjectFigures substitutes the src attribute of every
// <img data-figure-index="N"> placeholder with figure N's data URI.
// Indices the ingestor never exposed are left with a visible placeholder
// alt text instead of a broken src (spec §4.3, §8 figure round-trip).
func InjectFigures(html string, page domain.PageAssets) string {
	return imgTagPattern.ReplaceAllStringFunc(html, func(tag string) string {
		m := figurePlaceholder.FindStringSubmatch(tag)
		if m == nil {
			return tag
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return tag
		}
		figure, ok := page.FigureByIndex(index)
		if !ok {
			return setMissingFigurePlaceholder(tag, index)
		}
		return setImgSrc(tag, figure.DataURI)
	})
}

var srcAttrPattern = regexp.MustCompile(`\ssrc=["'][^"']*["']`)

func setImgSrc(tag string, dataURI string) string {
	replacement := fmt.Sprintf(` src="%s"`, dataURI)
	if srcAttrPattern.MatchString(tag) {
		return srcAttrPattern.ReplaceAllString(tag, replacement)
	}
	return strings.Replace(tag, "<img", "<img"+replacement, 1)
}

func setMissingFigurePlaceholder(tag string, index int) string {
	placeholder := fmt.Sprintf("[missing figure %d]", index)
	if srcAttrPattern.MatchString(tag) {
		tag = srcAttrPattern.ReplaceAllString(tag, "")
	}
	altReplacement := fmt.Sprintf(` alt="%s"`, placeholder)
	if strings.Contains(tag, "alt=") {
		return regexp.MustCompile(`\salt=["'][^"']*["']`).ReplaceAllString(tag, altReplacement)
	}
	return strings.Replace(tag, "<img", "<img"+altReplacement, 1)
}
