package domain

// Figure is one embedded raster image extracted from a page, with its
// placement in the page raster's coordinate system.
type Figure struct {
	// Index is stable and monotonically increasing within a page.
	Index int

	// BBox is the figure's bounding box in rasterized page-pixel
	// coordinates: (X0, Y0) top-left, (X1, Y1) bottom-right.
	BBox Rect

	// ImageBytes holds the original image data, preserved as extracted
	// (original mime type when known, else re-encoded as PNG).
	ImageBytes []byte

	// MimeType is the figure's encoding, e.g. "image/jpeg", "image/png".
	MimeType string

	// DataURI is the base64 data URI form used to inject the figure into
	// generated HTML, e.g. "data:image/png;base64,...".
	DataURI string
}

// Rect is an axis-aligned bounding box in raster pixel coordinates.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// PageAssets is everything the Ingestor produces for a single page.
type PageAssets struct {
	// PageIndex is zero-based.
	PageIndex int

	WidthPx  int
	HeightPx int

	// PageImage holds the rasterized page at the configured DPI.
	PageImage PageImage

	// Figures is ordered by Index; indices are stable and monotonic.
	Figures []Figure
}

// PageImage is a raster plus its base64 encoding for model transport.
type PageImage struct {
	Bytes    []byte
	Base64   string
	MimeType string // always "image/png"; the raster is lossless.
}

// ImageInput is a generic raster-plus-mime-type pair used wherever a
// component compares two images without caring which produced them (a
// source page raster, a renderer's screenshot, a cropped figure).
type ImageInput struct {
	Bytes    []byte
	MimeType string
}

// FigureByIndex returns the figure with the given index, or false if the
// ingestor never exposed one with that index.
func (p PageAssets) FigureByIndex(index int) (Figure, bool) {
	for _, f := range p.Figures {
		if f.Index == index {
			return f, true
		}
	}
	return Figure{}, false
}
