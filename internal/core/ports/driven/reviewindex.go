package driven

import "github.com/pageconv/pageconv/internal/core/domain"

// ReviewIndexer records each committed page into a queryable catalog,
// supplementing the on-disk JSON/HTML layout PageStore writes with
// something a review viewer can query without re-walking the directory
// tree. Optional: the Loop works fine with this unset.
type ReviewIndexer interface {
	// IndexPage records or updates documentName's catalog row for result.
	IndexPage(documentName string, result domain.PageResult) error
}
