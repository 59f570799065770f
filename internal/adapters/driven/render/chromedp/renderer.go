// Package chromedp implements the driven.Renderer port by driving a
// headless Chromium instance: write the generated HTML to a temp file,
// navigate to it, wait for MathJax (if present), pause for the fixed
// networkIdleWait, then capture a full-page screenshot. Network activity
// is not observed: a request still pending after the pause is not waited for.
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

// Ensure Renderer implements the interface.
var _ driven.Renderer = (*Renderer)(nil)

// networkIdleWait is the fixed pause Render takes before capturing, giving
// late subresources (web fonts, scripts) time to load. Render does not
// track in-flight requests, so this pause is the whole network wait.
const networkIdleWait = 300 * time.Millisecond

// mathJaxProbe polls for MathJax's startup promise, retrying at this
// interval until MathJaxTimeoutMs elapses.
const mathJaxProbe = 100 * time.Millisecond

// Renderer drives a shared headless Chromium allocator across Render
// calls, one browser tab per call.
type Renderer struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	tempDir  string
}

// New starts a headless Chromium allocator. Call Close when done.
func New(ctx context.Context) (*Renderer, error) {
	tempDir, err := os.MkdirTemp("", "pageconv-render-*")
	if err != nil {
		return nil, fmt.Errorf("chromedp: create temp dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)

	return &Renderer{allocCtx: allocCtx, cancel: cancel, tempDir: tempDir}, nil
}

// Close releases the browser allocator and temp directory.
func (r *Renderer) Close() error {
	r.cancel()
	return os.RemoveAll(r.tempDir)
}

// Render implements driven.Renderer.
func (r *Renderer) Render(ctx context.Context, html string, opts driven.RenderOptions) (driven.RenderedPage, error) {
	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx)
	defer tabCancel()

	htmlPath, err := r.writeTempHTML(html)
	if err != nil {
		return driven.RenderedPage{}, fmt.Errorf("%w: %w", domain.ErrRender, err)
	}
	defer os.Remove(htmlPath)

	width, height := opts.ViewportWidthPx, opts.ViewportHeightPx
	if width == 0 {
		width = 1200
	}
	if height == 0 {
		height = 1600
	}

	var png []byte

	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate("file://"+htmlPath),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return waitForMathJax(ctx, opts.MathJaxTimeoutMs)
		}),
		chromedp.Sleep(networkIdleWait),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		return driven.RenderedPage{}, fmt.Errorf("%w: %w", domain.ErrRender, err)
	}
	if len(png) == 0 {
		return driven.RenderedPage{}, fmt.Errorf("%w: blank capture", domain.ErrRender)
	}

	return driven.RenderedPage{
		PNGBytes: png,
		WidthPx:  width,
		HeightPx: height,
	}, nil
}

func (r *Renderer) writeTempHTML(html string) (string, error) {
	f, err := os.CreateTemp(r.tempDir, "page-*.html")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(html); err != nil {
		return "", err
	}
	return filepath.Abs(f.Name())
}

// errMathJaxTimeout is returned by waitForMathJax when MathJax's startup
// promise never resolves within the configured timeout. Render wraps it
// as domain.ErrRender rather than capturing anyway (spec §9: a MathJax
// timeout is a legitimate render failure, not a case to paper over, since
// the capture would score a page against half-typeset equations).
var errMathJaxTimeout = errors.New("mathjax did not signal ready before timeout")

// waitForMathJax polls `window.MathJax && window.MathJax.startup` until it
// resolves or timeoutMs elapses, whichever first. A page with no MathJax
// (document has no equations) resolves immediately via the "no MathJax
// global present" branch below, so pages without math never pay the
// polling cost.
func waitForMathJax(ctx context.Context, timeoutMs int) error {
	if timeoutMs <= 0 {
		timeoutMs = 10_000
	}
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)

	var hasMathJax bool
	if err := chromedp.Evaluate(`typeof window.MathJax !== 'undefined'`, &hasMathJax).Do(ctx); err != nil {
		return err
	}
	if !hasMathJax {
		return nil
	}

	for time.Now().Before(deadline) {
		var ready bool
		if err := chromedp.Evaluate(`window.MathJax.startup && window.MathJax.startup.document && window.MathJax.startup.document.state() >= 10`, &ready).Do(ctx); err != nil {
			return err
		}
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(mathJaxProbe):
		}
	}

	return errMathJaxTimeout
}
