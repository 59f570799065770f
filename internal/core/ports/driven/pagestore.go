package driven

import "github.com/pageconv/pageconv/internal/core/domain"

// PageStore persists the on-disk layout a conversion run produces: the
// document-level analysis, the rasterized source pages, and each page's
// iteration history (see spec §6 for the exact directory layout).
type PageStore interface {
	// SaveDocumentAnalysis persists document_analysis.json and
	// custom_prompt.md at the document root.
	SaveDocumentAnalysis(analysis domain.DocumentAnalysis, addendum domain.PromptAddendum) error

	// LoadDocumentAnalysis reads back a previously saved analysis, if any.
	LoadDocumentAnalysis() (domain.DocumentAnalysis, domain.PromptAddendum, bool, error)

	// SavePageImage persists the rasterized source page (page_NNN.png).
	SavePageImage(pageIndex int, png []byte) error

	// HasFinal reports whether page_NNN/final.html already exists, for
	// idempotent re-runs that skip pages unless --force is given.
	HasFinal(pageIndex int) (bool, error)

	// SaveIteration writes one iteration's HTML, rendered screenshot, and
	// feedback JSON under page_NNN/.
	SaveIteration(pageIndex int, rec domain.IterationRecord) error

	// PromoteFinal copies the chosen iteration's HTML to page_NNN/final.html.
	PromoteFinal(pageIndex int, iterationNumber int) (string, error)

	// SaveSummary writes the end-of-run summary report.
	SaveSummary(summary domain.Summary) error
}
