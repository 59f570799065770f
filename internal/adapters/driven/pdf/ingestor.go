// Package pdf implements the driven.Ingestor port: go-fitz (MuPDF
// bindings) rasterizes each page, and a compact, purpose-built
// content-stream scanner locates embedded Image XObjects for figure
// extraction (go-fitz's Go API exposes only page rendering, not PDF
// object access — see DESIGN.md).
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
	"github.com/pageconv/pageconv/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driven.Ingestor = (*Ingestor)(nil)

// Ingestor rasterizes pages via MuPDF and scans the same file's raw bytes
// for embedded images, to crop figures out of the already-rendered page.
type Ingestor struct {
	doc      *fitz.Document
	raw      []byte
	pageRefs []pageObject // one entry per page, in document order
}

// Open parses path with go-fitz for rasterization and scans its raw bytes
// for the page tree (see figures.go) to locate per-page Image XObjects.
func Open(path string) (*Ingestor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrInput, path, err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", domain.ErrInput, path, err)
	}

	pages, err := scanPageObjects(raw)
	if err != nil {
		// Figure extraction degrades gracefully: a page tree this scanner
		// can't follow (object streams, encryption, unusual xref layout)
		// still rasterizes fine through MuPDF; it just yields no figures.
		logger.Warn("%s: scanning page tree for figures, continuing without them: %s", path, err)
		pages = nil
	}

	return &Ingestor{doc: doc, raw: raw, pageRefs: pages}, nil
}

// PageCount returns the number of pages MuPDF sees in the document.
func (ing *Ingestor) PageCount() (int, error) {
	return ing.doc.NumPage(), nil
}

// ExtractPage rasterizes pageIndex at dpi and locates its figures, if the
// page-tree scan in Open succeeded for this page.
func (ing *Ingestor) ExtractPage(pageIndex int, dpi int) (domain.PageAssets, error) {
	if pageIndex < 0 || pageIndex >= ing.doc.NumPage() {
		return domain.PageAssets{}, fmt.Errorf("%w: page %d out of range (document has %d pages)",
			domain.ErrPageRange, pageIndex, ing.doc.NumPage())
	}

	img, err := ing.doc.ImageDPI(pageIndex, float64(dpi))
	if err != nil {
		return domain.PageAssets{}, fmt.Errorf("%w: rasterizing page %d: %w", domain.ErrInput, pageIndex, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return domain.PageAssets{}, fmt.Errorf("%w: encoding page %d raster: %w", domain.ErrInput, pageIndex, err)
	}
	pngBytes := buf.Bytes()

	assets := domain.PageAssets{
		PageIndex: pageIndex,
		WidthPx:   img.Bounds().Dx(),
		HeightPx:  img.Bounds().Dy(),
		PageImage: domain.PageImage{Bytes: pngBytes, Base64: encodeBase64(pngBytes), MimeType: "image/png"},
	}

	if pageIndex < len(ing.pageRefs) {
		assets.Figures = ing.extractFigures(pageIndex, ing.pageRefs[pageIndex], img, dpi)
	}
	return assets, nil
}

// Close releases the MuPDF document handle.
func (ing *Ingestor) Close() error {
	return ing.doc.Close()
}

// extractFigures walks one page's content stream (via figures.go) for
// Image XObject placements. When an XObject's own stream already holds a
// complete encoded image (DCTDecode/JPXDecode), those bytes are used
// directly so the figure keeps its original mime type; otherwise the
// figure is cropped out of the already-rendered full-page raster and
// re-encoded as PNG, sidestepping color-space/filter edge cases the
// scanner doesn't decode.
func (ing *Ingestor) extractFigures(pageIndex int, page pageObject, rendered image.Image, dpi int) []domain.Figure {
	placements, err := locateImagePlacements(ing.raw, page, dpi)
	if err != nil {
		return nil
	}

	figures := make([]domain.Figure, 0, len(placements))
	for i, p := range placements {
		bbox := p.BBox.Intersect(rendered.Bounds())

		if len(p.SourceBytes) > 0 {
			figures = append(figures, domain.Figure{
				Index:      i,
				BBox:       domain.Rect{X0: bbox.Min.X, Y0: bbox.Min.Y, X1: bbox.Max.X, Y1: bbox.Max.Y},
				ImageBytes: p.SourceBytes,
				MimeType:   p.SourceMimeType,
				DataURI:    "data:" + p.SourceMimeType + ";base64," + encodeBase64(p.SourceBytes),
			})
			continue
		}

		if bbox.Dx() <= 0 || bbox.Dy() <= 0 {
			logger.Warn("page %d figure %d: bounding box %v falls outside the rendered page, omitting", pageIndex, i, p.BBox)
			continue
		}
		cropped := cropPNG(rendered, bbox)
		figures = append(figures, domain.Figure{
			Index:      i,
			BBox:       domain.Rect{X0: bbox.Min.X, Y0: bbox.Min.Y, X1: bbox.Max.X, Y1: bbox.Max.Y},
			ImageBytes: cropped,
			MimeType:   "image/png",
			DataURI:    "data:image/png;base64," + encodeBase64(cropped),
		})
	}
	return figures
}

func cropPNG(img image.Image, bounds image.Rectangle) []byte {
	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	var cropped image.Image
	if ok {
		cropped = sub.SubImage(bounds)
	} else {
		cropped = img // fallback: whole page, better than nothing
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, cropped)
	return buf.Bytes()
}
