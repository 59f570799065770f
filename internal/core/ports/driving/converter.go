package driving

import (
	"context"

	"github.com/pageconv/pageconv/internal/core/domain"
)

// Converter drives the per-page refinement loop across a whole document.
// The `convert` CLI verb is its sole caller.
type Converter interface {
	// Convert runs the ingest → analyze → (generate → render → judge →
	// decide)* loop for every page in job.RequestedPages and returns the
	// end-of-run summary. A page-level failure never aborts the document;
	// it is recorded in the returned Summary and Convert keeps going.
	Convert(ctx context.Context, job domain.ConversionJob) (domain.Summary, error)
}

// CredentialChecker validates configured provider credentials without
// running a conversion. The `check` CLI verb is its sole caller.
type CredentialChecker interface {
	// CheckAll pings every configured VisionModel (generator, judge A,
	// judge B if cross-model judging is enabled) and returns one result
	// per role.
	CheckAll(ctx context.Context) []CredentialCheckResult
}

// CredentialCheckResult reports the reachability of one configured role.
type CredentialCheckResult struct {
	Role      string // "generator", "judge_a", "judge_b"
	Provider  domain.VisionProvider
	Reachable bool
	Err       error
}

// ReviewReader exposes a read-only view over a completed conversion run's
// stored pages and iterations, for an out-of-process review viewer to query.
// Implemented by the sqlite review catalog adapter; GetIteration's returned
// IterationRecord already carries the page's JudgeFeedback, so no separate
// GetFeedback method is needed.
type ReviewReader interface {
	// ListPages returns the PageResult for every page processed so far.
	ListPages(ctx context.Context, documentName string) ([]domain.PageResult, error)

	// GetIteration returns one page's Nth iteration record.
	GetIteration(ctx context.Context, documentName string, pageIndex, iterationNumber int) (domain.IterationRecord, error)
}
