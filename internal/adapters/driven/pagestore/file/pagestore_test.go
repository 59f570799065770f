package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageconv/pageconv/internal/core/domain"
)

func TestNew_CreatesDirectory(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "doc")

	store, err := New(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPageStore_SaveAndLoadDocumentAnalysis(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	analysis := domain.DocumentAnalysis{PrimaryLanguage: "French", TextDirection: domain.DirectionLTR}
	addendum := domain.PromptAddendum{Text: "## Layout\nsingle column"}

	require.NoError(t, store.SaveDocumentAnalysis(analysis, addendum))

	loaded, loadedAddendum, ok, err := store.LoadDocumentAnalysis()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "French", loaded.PrimaryLanguage)
	assert.Equal(t, addendum.Text, loadedAddendum.Text)
}

func TestPageStore_LoadDocumentAnalysis_NotFound(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, _, ok, err := store.LoadDocumentAnalysis()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPageStore_SavePageImage(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.SavePageImage(3, []byte("fake-png")))

	data, err := os.ReadFile(store.pageImagePath(3))
	require.NoError(t, err)
	assert.Equal(t, "fake-png", string(data))
}

func TestPageStore_HasFinal(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	has, err := store.HasFinal(0)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.SaveIteration(0, domain.IterationRecord{IterationNumber: 1, HTML: "<html></html>"}))
	_, err = store.PromoteFinal(0, 1)
	require.NoError(t, err)

	has, err = store.HasFinal(0)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestPageStore_SaveIteration_WritesHTMLRenderAndFeedback(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	feedback := &domain.JudgeFeedback{FidelityScore: 91}
	rec := domain.IterationRecord{
		IterationNumber: 1,
		HTML:            "<html></html>",
		RenderedImage:   []byte("fake-render"),
		Feedback:        feedback,
	}

	require.NoError(t, store.SaveIteration(2, rec))

	html, err := os.ReadFile(store.iterationHTMLPath(2, 1))
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(html))

	render, err := os.ReadFile(filepath.Join(store.pageDir(2), "rendered_01.png"))
	require.NoError(t, err)
	assert.Equal(t, "fake-render", string(render))

	var loadedFeedback domain.JudgeFeedback
	found, err := readJSON(store.feedbackPath(2, 1), &loadedFeedback)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 91, loadedFeedback.FidelityScore)
}

func TestPageStore_SaveIteration_SkipsMissingArtifacts(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	rec := domain.IterationRecord{IterationNumber: 1, RenderFailed: true}
	require.NoError(t, store.SaveIteration(0, rec))

	_, err = os.Stat(store.iterationHTMLPath(0, 1))
	assert.True(t, os.IsNotExist(err))
}

func TestPageStore_PromoteFinal(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	rec := domain.IterationRecord{IterationNumber: 2, HTML: "<p>final</p>"}
	require.NoError(t, store.SaveIteration(1, rec))

	path, err := store.PromoteFinal(1, 2)
	require.NoError(t, err)
	assert.Equal(t, store.finalPath(1), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>final</p>", string(data))
}

func TestPageStore_PromoteFinal_MissingIteration(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.PromoteFinal(0, 5)
	assert.Error(t, err)
}

func TestPageStore_SaveSummary(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	summary := domain.Summary{DocumentName: "report.pdf", PagesProcessed: 2, PagesPassed: 2}
	require.NoError(t, store.SaveSummary(summary))

	var loaded domain.Summary
	found, err := readJSON(store.summaryPath(), &loaded)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "report.pdf", loaded.DocumentName)
}
