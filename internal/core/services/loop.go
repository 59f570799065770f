package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
	"github.com/pageconv/pageconv/internal/core/ports/driving"
	"github.com/pageconv/pageconv/internal/logger"
)

// Ensure Loop implements the driving port the CLI depends on.
var _ driving.Converter = (*Loop)(nil)

// Loop is the per-document orchestrator: ingest → analyze → (generate →
// render → judge → decide)* per page (spec §4.7). It walks pages
// sequentially, one iteration at a time; the only concurrency in a
// conversion run is MultiJudge's cross-model scoring inside a single
// iteration (spec §5).
type Loop struct {
	Ingestor   driven.Ingestor
	Store      driven.PageStore
	Generator  *Generator
	Analyzer   *Analyzer
	MultiJudge *MultiJudge
	Renderer   driven.Renderer

	// CostTracker is optional; when set, the Loop reads its accumulated
	// cost summary into the returned Summary (spec supplement, see
	// SPEC_FULL.md "Cost tracking"). Callers populate it by constructing
	// each VisionModel through visionmodel.NewCostTracking before
	// injecting the Generator/Analyzer/MultiJudge.
	CostTracker *CostTracker

	// ReviewIndexer is optional; when set, every committed page is also
	// recorded into a queryable catalog for the review viewer's
	// ReviewReader (see SPEC_FULL.md's DOMAIN STACK section).
	ReviewIndexer driven.ReviewIndexer

	Settings domain.ConvertSettings
}

// NewLoop constructs a Loop with its ports injected.
func NewLoop(ingestor driven.Ingestor, store driven.PageStore, generator *Generator, analyzer *Analyzer, mj *MultiJudge, renderer driven.Renderer, settings domain.ConvertSettings) *Loop {
	return &Loop{
		Ingestor: ingestor, Store: store, Generator: generator,
		Analyzer: analyzer, MultiJudge: mj, Renderer: renderer, Settings: settings,
	}
}

// Convert implements driving.Converter: it rasterizes every requested
// page, runs the Analyzer once, then processes each page's refinement
// loop in order. Generation, render and judge failures are recorded in the
// returned Summary and never abort the document; the errors returned here
// are the Ingestor's (ErrInput/ErrPageRange), PageStore read/write
// failures, and ctx.Err() once the context is cancelled.
func (l *Loop) Convert(ctx context.Context, job domain.ConversionJob) (domain.Summary, error) {
	requestedPages := job.RequestedPages
	if len(requestedPages) == 0 {
		count, err := l.Ingestor.PageCount()
		if err != nil {
			return domain.Summary{}, fmt.Errorf("counting pages: %w", err)
		}
		requestedPages = make([]int, count)
		for i := range requestedPages {
			requestedPages[i] = i
		}
	}

	pages := make([]domain.PageAssets, 0, len(requestedPages))
	for _, idx := range requestedPages {
		page, err := l.Ingestor.ExtractPage(idx, l.Settings.DPI)
		if err != nil {
			return domain.Summary{}, err
		}
		if err := l.Store.SavePageImage(idx, page.PageImage.Bytes); err != nil {
			return domain.Summary{}, fmt.Errorf("saving page %d raster: %w", idx, err)
		}
		pages = append(pages, page)
	}

	analysis, addendum, err := l.resolveAnalysis(ctx, pages)
	if err != nil {
		return domain.Summary{}, err
	}

	results := make([]domain.PageResult, 0, len(pages))
	for _, page := range pages {
		if ctx.Err() != nil {
			logger.Warn("conversion cancelled before page %d; stopping with partial results", page.PageIndex)
			break
		}
		result, err := l.processPage(ctx, page, analysis, addendum)
		if err != nil {
			return domain.Summary{}, err
		}
		if l.ReviewIndexer != nil {
			if err := l.ReviewIndexer.IndexPage(job.DocumentName, result); err != nil {
				logger.Warn("indexing page %d for review: %s", result.PageIndex, err)
			}
		}
		results = append(results, result)
	}

	summary := domain.BuildSummary(job.DocumentName, results)
	if l.CostTracker != nil {
		summary.Cost = l.CostTracker.Summary()
	}
	if err := l.Store.SaveSummary(summary); err != nil {
		return domain.Summary{}, fmt.Errorf("saving summary: %w", err)
	}
	return summary, ctx.Err()
}

// resolveAnalysis loads a previously persisted analysis when present
// (idempotent re-run), otherwise samples the pages and runs the Analyzer
// once (spec §4.2, §4.7 step 2).
func (l *Loop) resolveAnalysis(ctx context.Context, pages []domain.PageAssets) (domain.DocumentAnalysis, domain.PromptAddendum, error) {
	if existing, existingAddendum, ok, err := l.Store.LoadDocumentAnalysis(); err != nil {
		return domain.DocumentAnalysis{}, domain.PromptAddendum{}, fmt.Errorf("loading document analysis: %w", err)
	} else if ok && !l.Settings.Force {
		return existing, existingAddendum, nil
	}

	overrides := domain.Overrides{Language: l.Settings.LanguageOverride, Direction: l.Settings.DirectionOverride}
	sample := Sample(pages, SampleSize)
	analysis := l.Analyzer.Analyze(ctx, sample, overrides)
	addendum := BuildPromptAddendum(analysis)

	if err := l.Store.SaveDocumentAnalysis(analysis, addendum); err != nil {
		return domain.DocumentAnalysis{}, domain.PromptAddendum{}, fmt.Errorf("saving document analysis: %w", err)
	}
	return analysis, addendum, nil
}

// renderOptions are fixed per spec §4.4.
func renderOptions() driven.RenderOptions {
	return driven.RenderOptions{ViewportWidthPx: 1200, ViewportHeightPx: 1600, MathJaxTimeoutMs: 10_000}
}

// processPage runs the per-page state machine (spec §4.7) until an
// iteration's feedback clears the target (and, if enabled, the
// verification gate), or the retry bound is exhausted.
func (l *Loop) processPage(ctx context.Context, page domain.PageAssets, analysis domain.DocumentAnalysis, addendum domain.PromptAddendum) (domain.PageResult, error) {
	if done, err := l.Store.HasFinal(page.PageIndex); err != nil {
		return domain.PageResult{}, fmt.Errorf("checking page %d idempotence: %w", page.PageIndex, err)
	} else if done && !l.Settings.Force {
		logger.Info("page %d already has final.html; skipping (force not set)", page.PageIndex)
		return domain.PageResult{ID: uuid.New().String(), PageIndex: page.PageIndex, Success: true, IterationsRun: 0}, nil
	}

	var records []domain.IterationRecord
	var previousHTML string
	var previousFeedback domain.JudgeFeedback

	for iteration := 1; iteration <= l.Settings.MaxRetries; iteration++ {
		if ctx.Err() != nil {
			break
		}
		logger.Info("page %d: iteration %d/%d", page.PageIndex, iteration, l.Settings.MaxRetries)

		rec := domain.IterationRecord{IterationNumber: iteration}

		html, err := l.generate(ctx, page, addendum, iteration, previousHTML, previousFeedback)
		if err != nil {
			rec.GenerateFailed = true
			records = append(records, rec)
			logger.Warn("page %d iteration %d: generate failed: %s", page.PageIndex, iteration, err)
			continue
		}
		rec.HTMLPath = iterationHTMLPath(page.PageIndex, iteration)
		rec.HTML = html
		previousHTML = html

		feedback := l.renderAndJudge(ctx, html, page, analysis, iteration, &rec)
		previousFeedback = feedback
		records = append(records, rec)

		if err := l.Store.SaveIteration(page.PageIndex, rec); err != nil {
			return domain.PageResult{}, fmt.Errorf("saving iteration %d for page %d: %w", iteration, page.PageIndex, err)
		}

		if l.accepts(feedback) {
			return l.commit(page.PageIndex, iteration, records, true)
		}
	}

	return l.commit(page.PageIndex, 0, records, false)
}

// generate runs the GENERATE state: initial synthesis on iteration 1,
// refinement against the prior feedback otherwise.
func (l *Loop) generate(ctx context.Context, page domain.PageAssets, addendum domain.PromptAddendum, iteration int, previousHTML string, previousFeedback domain.JudgeFeedback) (string, error) {
	if iteration == 1 {
		return l.Generator.GenerateInitial(ctx, page, addendum)
	}
	return l.Generator.Refine(ctx, previousHTML, page, previousFeedback, addendum)
}

// renderAndJudge runs the RENDER and JUDGE states. A render failure is
// recorded as a zero-score feedback (spec §8 scenario 3) rather than
// aborting the iteration, so the retry budget accounting and persisted
// layout stay uniform whether an iteration failed at render or judge.
func (l *Loop) renderAndJudge(ctx context.Context, html string, page domain.PageAssets, analysis domain.DocumentAnalysis, iteration int, rec *domain.IterationRecord) domain.JudgeFeedback {
	rendered, err := l.Renderer.Render(ctx, html, renderOptions())
	if err != nil {
		rec.RenderFailed = true
		feedback := domain.JudgeFeedback{CriticalErrors: []string{fmt.Sprintf("%s", err)}}
		rec.Feedback = &feedback
		logger.Warn("page %d iteration %d: render failed: %s", page.PageIndex, iteration, err)
		return feedback
	}
	rec.RenderedImagePath = renderedImagePath(page.PageIndex, iteration)
	rec.RenderedImage = rendered.PNGBytes

	original := domain.ImageInput{Bytes: page.PageImage.Bytes, MimeType: page.PageImage.MimeType}
	renderedImg := domain.ImageInput{Bytes: rendered.PNGBytes, MimeType: "image/png"}

	feedback, err := l.MultiJudge.Score(ctx, original, renderedImg, analysis.HasEquations, l.Settings.Target)
	if err != nil {
		feedback = domain.JudgeFeedback{CriticalErrors: []string{fmt.Sprintf("%s: %s", domain.ErrJudge, err)}}
	}
	rec.Feedback = &feedback
	logger.Info("page %d iteration %d: fidelity=%d", page.PageIndex, iteration, feedback.FidelityScore)
	return feedback
}

// accepts implements the DECIDE state's accept branch: the composite met
// target and, if the verification gate ran, it did not veto.
func (l *Loop) accepts(feedback domain.JudgeFeedback) bool {
	return feedback.FidelityScore >= l.Settings.Target && !feedback.GateFailed
}

// commit implements the COMMIT state on success, or the best-effort
// promotion when the retry bound is exhausted without an accept
// (spec §4.7 tie-break: highest composite, latest iteration wins).
func (l *Loop) commit(pageIndex int, acceptedIteration int, records []domain.IterationRecord, success bool) (domain.PageResult, error) {
	chosen := acceptedIteration
	if !success {
		best, found := domain.BestIteration(records)
		if !found {
			return domain.PageResult{ID: uuid.New().String(), PageIndex: pageIndex, Success: false, IterationsRun: len(records), Iterations: records}, nil
		}
		chosen = best.IterationNumber
	}

	finalPath, err := l.Store.PromoteFinal(pageIndex, chosen)
	if err != nil {
		return domain.PageResult{}, fmt.Errorf("promoting final for page %d: %w", pageIndex, err)
	}

	score := 0
	for _, r := range records {
		if r.IterationNumber == chosen && r.Feedback != nil {
			score = r.Feedback.FidelityScore
		}
	}

	return domain.PageResult{
		ID:            uuid.New().String(),
		PageIndex:     pageIndex,
		Success:       success,
		FinalScore:    score,
		IterationsRun: len(records),
		FinalHTMLPath: finalPath,
		Iterations:    records,
	}, nil
}

func iterationHTMLPath(pageIndex, iteration int) string {
	return fmt.Sprintf("page_%03d/iteration_%02d.html", pageIndex, iteration)
}

func renderedImagePath(pageIndex, iteration int) string {
	return fmt.Sprintf("page_%03d/rendered_%02d.png", pageIndex, iteration)
}
