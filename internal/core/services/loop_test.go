package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// loopFakeIngestor serves fixed PageAssets keyed by page index.
type loopFakeIngestor struct {
	pages map[int]domain.PageAssets
}

func (f *loopFakeIngestor) PageCount() (int, error) { return len(f.pages), nil }

func (f *loopFakeIngestor) ExtractPage(pageIndex int, _ int) (domain.PageAssets, error) {
	p, ok := f.pages[pageIndex]
	if !ok {
		return domain.PageAssets{}, domain.ErrPageRange
	}
	return p, nil
}

func (f *loopFakeIngestor) Close() error { return nil }

// loopFakeStore is an in-memory driven.PageStore.
type loopFakeStore struct {
	analysis    domain.DocumentAnalysis
	addendum    domain.PromptAddendum
	hasAnalysis bool
	iterations  map[int][]domain.IterationRecord
	finals      map[int]string
	summary     domain.Summary
}

func newLoopFakeStore() *loopFakeStore {
	return &loopFakeStore{iterations: map[int][]domain.IterationRecord{}, finals: map[int]string{}}
}

func (s *loopFakeStore) SaveDocumentAnalysis(a domain.DocumentAnalysis, addendum domain.PromptAddendum) error {
	s.analysis, s.addendum, s.hasAnalysis = a, addendum, true
	return nil
}

func (s *loopFakeStore) LoadDocumentAnalysis() (domain.DocumentAnalysis, domain.PromptAddendum, bool, error) {
	return s.analysis, s.addendum, s.hasAnalysis, nil
}

func (s *loopFakeStore) SavePageImage(int, []byte) error { return nil }

func (s *loopFakeStore) HasFinal(pageIndex int) (bool, error) {
	_, ok := s.finals[pageIndex]
	return ok, nil
}

func (s *loopFakeStore) SaveIteration(pageIndex int, rec domain.IterationRecord) error {
	s.iterations[pageIndex] = append(s.iterations[pageIndex], rec)
	return nil
}

func (s *loopFakeStore) PromoteFinal(pageIndex int, iterationNumber int) (string, error) {
	path := fmt.Sprintf("page_%03d/final.html", pageIndex)
	s.finals[pageIndex] = fmt.Sprintf("iteration_%02d", iterationNumber)
	return path, nil
}

func (s *loopFakeStore) SaveSummary(summary domain.Summary) error {
	s.summary = summary
	return nil
}

// loopFakeRenderer either always succeeds or fails a fixed number of times
// before succeeding, to exercise the render-failure-then-recover scenario.
type loopFakeRenderer struct {
	failFirstN int
	calls      int
}

func (r *loopFakeRenderer) Render(_ context.Context, _ string, _ driven.RenderOptions) (driven.RenderedPage, error) {
	r.calls++
	if r.calls <= r.failFirstN {
		return driven.RenderedPage{}, fmt.Errorf("%w: navigation timed out", domain.ErrRender)
	}
	return driven.RenderedPage{PNGBytes: []byte("rendered"), WidthPx: 1200, HeightPx: 1600}, nil
}

func newTestPage(index int) domain.PageAssets {
	return domain.PageAssets{
		PageIndex: index,
		PageImage: domain.PageImage{Bytes: []byte("page"), MimeType: "image/png"},
	}
}

func newTestLoop(t *testing.T, ingestor *loopFakeIngestor, store *loopFakeStore, renderer driven.Renderer, generatorModel, judgeModel *scriptedVisionModel, settings domain.ConvertSettings) *Loop {
	t.Helper()
	generator := NewGenerator(generatorModel)
	analyzer := NewAnalyzer(judgeModel)
	mj := NewMultiJudge(NewJudge(judgeModel), nil, settings.MultiJudge)
	return NewLoop(ingestor, store, generator, analyzer, mj, renderer, settings)
}

func acceptingHTML() string { return "<html><body>ok</body></html>" }

func TestLoop_AcceptsFirstIterationWhenTargetIsZero(t *testing.T) {
	ingestor := &loopFakeIngestor{pages: map[int]domain.PageAssets{0: newTestPage(0)}}
	store := newLoopFakeStore()
	generatorModel := &scriptedVisionModel{replies: []string{acceptingHTML()}}
	judgeModel := &scriptedVisionModel{replies: []string{feedbackJSON(50, 50, 50, 50)}}
	settings := domain.DefaultConvertSettings()
	settings.Target = 0
	settings.MaxRetries = 3
	settings.MultiJudge = domain.MultiJudgeSettings{}

	loop := newTestLoop(t, ingestor, store, &loopFakeRenderer{}, generatorModel, judgeModel, settings)

	summary, err := loop.Convert(context.Background(), domain.ConversionJob{DocumentName: "doc", RequestedPages: []int{0}})

	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.True(t, summary.Results[0].Success)
	assert.Equal(t, 1, summary.Results[0].IterationsRun)
}

func TestLoop_EmptyRequestedPagesDefaultsToAllPages(t *testing.T) {
	ingestor := &loopFakeIngestor{pages: map[int]domain.PageAssets{
		0: newTestPage(0),
		1: newTestPage(1),
	}}
	store := newLoopFakeStore()
	generatorModel := &scriptedVisionModel{replies: []string{acceptingHTML(), acceptingHTML()}}
	judgeModel := &scriptedVisionModel{replies: []string{feedbackJSON(90, 90, 90, 90), feedbackJSON(90, 90, 90, 90)}}
	settings := domain.DefaultConvertSettings()
	settings.Target = 0
	settings.MaxRetries = 3
	settings.MultiJudge = domain.MultiJudgeSettings{}

	loop := newTestLoop(t, ingestor, store, &loopFakeRenderer{}, generatorModel, judgeModel, settings)

	summary, err := loop.Convert(context.Background(), domain.ConversionJob{DocumentName: "doc"})

	require.NoError(t, err)
	assert.Len(t, summary.Results, 2)
}

func TestLoop_MaxRetriesOneAlwaysCommitsFirstIteration(t *testing.T) {
	ingestor := &loopFakeIngestor{pages: map[int]domain.PageAssets{0: newTestPage(0)}}
	store := newLoopFakeStore()
	generatorModel := &scriptedVisionModel{replies: []string{acceptingHTML()}}
	judgeModel := &scriptedVisionModel{replies: []string{feedbackJSON(10, 10, 10, 10)}}
	settings := domain.DefaultConvertSettings()
	settings.Target = 100
	settings.MaxRetries = 1
	settings.MultiJudge = domain.MultiJudgeSettings{}

	loop := newTestLoop(t, ingestor, store, &loopFakeRenderer{}, generatorModel, judgeModel, settings)

	summary, err := loop.Convert(context.Background(), domain.ConversionJob{DocumentName: "doc", RequestedPages: []int{0}})

	require.NoError(t, err)
	assert.False(t, summary.Results[0].Success)
	assert.Equal(t, 1, summary.Results[0].IterationsRun)
	assert.Equal(t, "iteration_01", store.finals[0])
}

func TestLoop_BestEffortWhenTargetNeverMet(t *testing.T) {
	ingestor := &loopFakeIngestor{pages: map[int]domain.PageAssets{0: newTestPage(0)}}
	store := newLoopFakeStore()
	generatorModel := &scriptedVisionModel{replies: []string{acceptingHTML()}}
	judgeModel := &scriptedVisionModel{replies: []string{
		"{}", // consumed by the Analyzer, which shares judgeModel in newTestLoop
		feedbackJSON(10, 10, 10, 10),
		feedbackJSON(90, 90, 90, 90),
		feedbackJSON(50, 50, 50, 50),
	}}
	settings := domain.DefaultConvertSettings()
	settings.Target = 100
	settings.MaxRetries = 3
	settings.MultiJudge = domain.MultiJudgeSettings{}

	loop := newTestLoop(t, ingestor, store, &loopFakeRenderer{}, generatorModel, judgeModel, settings)

	summary, err := loop.Convert(context.Background(), domain.ConversionJob{DocumentName: "doc", RequestedPages: []int{0}})

	require.NoError(t, err)
	assert.False(t, summary.Results[0].Success)
	assert.Equal(t, 3, summary.Results[0].IterationsRun)
	// Highest composite was iteration 2 (score 90).
	assert.Equal(t, "iteration_02", store.finals[0])
}

func TestLoop_RenderFailureThenRecovery(t *testing.T) {
	ingestor := &loopFakeIngestor{pages: map[int]domain.PageAssets{0: newTestPage(0)}}
	store := newLoopFakeStore()
	generatorModel := &scriptedVisionModel{replies: []string{acceptingHTML()}}
	judgeModel := &scriptedVisionModel{replies: []string{feedbackJSON(90, 90, 90, 90)}}
	settings := domain.DefaultConvertSettings()
	settings.Target = 85
	settings.MaxRetries = 3
	settings.MultiJudge = domain.MultiJudgeSettings{}

	loop := newTestLoop(t, ingestor, store, &loopFakeRenderer{failFirstN: 1}, generatorModel, judgeModel, settings)

	summary, err := loop.Convert(context.Background(), domain.ConversionJob{DocumentName: "doc", RequestedPages: []int{0}})

	require.NoError(t, err)
	result := summary.Results[0]
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.IterationsRun)
	assert.True(t, result.Iterations[0].RenderFailed)
	assert.Equal(t, 0, result.Iterations[0].Feedback.FidelityScore)
}

func TestLoop_IdempotentSkipsPageWithExistingFinal(t *testing.T) {
	ingestor := &loopFakeIngestor{pages: map[int]domain.PageAssets{0: newTestPage(0)}}
	store := newLoopFakeStore()
	store.finals[0] = "iteration_01"
	generatorModel := &scriptedVisionModel{replies: []string{acceptingHTML()}}
	judgeModel := &scriptedVisionModel{replies: []string{feedbackJSON(90, 90, 90, 90)}}
	settings := domain.DefaultConvertSettings()
	settings.MultiJudge = domain.MultiJudgeSettings{}

	loop := newTestLoop(t, ingestor, store, &loopFakeRenderer{}, generatorModel, judgeModel, settings)

	summary, err := loop.Convert(context.Background(), domain.ConversionJob{DocumentName: "doc", RequestedPages: []int{0}})

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Results[0].IterationsRun)
	assert.True(t, summary.Results[0].Success)
}

func TestLoop_ForceReprocessesPageWithExistingFinal(t *testing.T) {
	ingestor := &loopFakeIngestor{pages: map[int]domain.PageAssets{0: newTestPage(0)}}
	store := newLoopFakeStore()
	store.finals[0] = "iteration_01"
	generatorModel := &scriptedVisionModel{replies: []string{acceptingHTML()}}
	judgeModel := &scriptedVisionModel{replies: []string{feedbackJSON(90, 90, 90, 90)}}
	settings := domain.DefaultConvertSettings()
	settings.Target = 85
	settings.Force = true
	settings.MultiJudge = domain.MultiJudgeSettings{}

	loop := newTestLoop(t, ingestor, store, &loopFakeRenderer{}, generatorModel, judgeModel, settings)

	summary, err := loop.Convert(context.Background(), domain.ConversionJob{DocumentName: "doc", RequestedPages: []int{0}})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Results[0].IterationsRun)
}
