package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageconv/pageconv/internal/core/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_IndexAndListPages(t *testing.T) {
	store := setupTestStore(t)

	result := domain.PageResult{
		ID: "page-1", PageIndex: 0, Success: true, FinalScore: 92,
		IterationsRun: 2, FinalHTMLPath: "page_000/final.html",
		Iterations: []domain.IterationRecord{
			{IterationNumber: 1, Feedback: &domain.JudgeFeedback{FidelityScore: 70}},
			{IterationNumber: 2, Feedback: &domain.JudgeFeedback{FidelityScore: 92}},
		},
	}
	require.NoError(t, store.IndexPage("report.pdf", result))

	pages, err := store.ListPages(context.Background(), "report.pdf")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 92, pages[0].FinalScore)
	assert.True(t, pages[0].Success)
	assert.Len(t, pages[0].Iterations, 2)
}

func TestStore_IndexPage_UpsertsOnReprocess(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.IndexPage("doc.pdf", domain.PageResult{PageIndex: 0, FinalScore: 40}))
	require.NoError(t, store.IndexPage("doc.pdf", domain.PageResult{PageIndex: 0, FinalScore: 95}))

	pages, err := store.ListPages(context.Background(), "doc.pdf")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 95, pages[0].FinalScore)
}

func TestStore_GetIteration(t *testing.T) {
	store := setupTestStore(t)

	result := domain.PageResult{
		PageIndex: 1,
		Iterations: []domain.IterationRecord{
			{IterationNumber: 1, Feedback: &domain.JudgeFeedback{FidelityScore: 55}},
			{IterationNumber: 2, Feedback: &domain.JudgeFeedback{FidelityScore: 88}},
		},
	}
	require.NoError(t, store.IndexPage("doc.pdf", result))

	rec, err := store.GetIteration(context.Background(), "doc.pdf", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 88, rec.Feedback.FidelityScore)
}

func TestStore_GetIteration_NotFound(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.IndexPage("doc.pdf", domain.PageResult{PageIndex: 0}))

	_, err := store.GetIteration(context.Background(), "doc.pdf", 0, 99)
	assert.Error(t, err)
}

func TestStore_ListPages_MultiplePagesOrdered(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.IndexPage("doc.pdf", domain.PageResult{PageIndex: 2}))
	require.NoError(t, store.IndexPage("doc.pdf", domain.PageResult{PageIndex: 0}))
	require.NoError(t, store.IndexPage("doc.pdf", domain.PageResult{PageIndex: 1}))

	pages, err := store.ListPages(context.Background(), "doc.pdf")
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{pages[0].PageIndex, pages[1].PageIndex, pages[2].PageIndex})
}
