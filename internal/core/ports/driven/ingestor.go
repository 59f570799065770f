package driven

import "github.com/pageconv/pageconv/internal/core/domain"

// Ingestor extracts per-page rasters and figure assets from a source PDF.
// It never makes a network or model call; all of its work is local file and
// image decoding.
type Ingestor interface {
	// PageCount returns the number of pages in the document.
	PageCount() (int, error)

	// ExtractPage rasterizes one page at the configured DPI and locates its
	// embedded Image XObjects, returning both as PageAssets. Returns
	// domain.ErrPageRange if pageIndex is out of bounds.
	ExtractPage(pageIndex int, dpi int) (domain.PageAssets, error)

	// Close releases the underlying document handle.
	Close() error
}
