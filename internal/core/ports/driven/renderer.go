package driven

import "context"

// Renderer turns a generated HTML page into a raster screenshot for the
// Judge to compare against the source page image. Implementations drive a
// headless browser so that MathJax, web fonts, and CSS layout all resolve
// the same way a human reviewer's browser would render them.
type Renderer interface {
	// Render navigates to html, waits for MathJax (if present) and a
	// short settle period, then captures a full-page screenshot at the
	// given viewport size. Returns ErrRender (wrapped) on navigation
	// failure, a MathJax readiness timeout, or a blank capture — all
	// three count against the page's retry budget the same way.
	Render(ctx context.Context, html string, opts RenderOptions) (RenderedPage, error)
}

// RenderOptions configures one Render call.
type RenderOptions struct {
	// ViewportWidthPx and ViewportHeightPx size the headless browser window.
	ViewportWidthPx  int
	ViewportHeightPx int

	// MathJaxTimeoutMs bounds how long Render waits for MathJax's
	// startup promise before giving up and failing the render.
	MathJaxTimeoutMs int
}

// RenderedPage is the result of a successful Render. A MathJax readiness
// timeout never reaches here: Render returns it as a wrapped ErrRender
// instead (spec §9), since a timed-out capture would silently score a
// page against unrendered math.
type RenderedPage struct {
	PNGBytes []byte
	WidthPx  int
	HeightPx int
}
