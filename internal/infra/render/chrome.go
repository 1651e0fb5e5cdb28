package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restoree/internal/shared/logging"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	defaultTimeout       = 45 * time.Second
	defaultViewportWidth = 1240
	defaultViewportH     = 1754
	captureScale         = 2.0

	// A4 in inches, as expected by Page.printToPDF.
	a4WidthIn  = 8.27
	a4HeightIn = 11.69
)

// ChromeConfig configures the headless browser used for rasterization.
type ChromeConfig struct {
	ExecPath      string
	Headless      bool
	Timeout       time.Duration
	ViewportWidth int
}

// ChromeRasterizer renders certificate documents with headless Chrome.
type ChromeRasterizer struct {
	cfg    ChromeConfig
	logger logging.Logger
}

// NewChromeRasterizer creates a rasterizer; Chrome is launched per call.
func NewChromeRasterizer(cfg ChromeConfig, logger logging.Logger) *ChromeRasterizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ViewportWidth <= 0 {
		cfg.ViewportWidth = defaultViewportWidth
	}
	return &ChromeRasterizer{cfg: cfg, logger: logging.OrNop(logger)}
}

// Capture screenshots the certificate element of doc at 2x scale on an
// opaque white background and returns PNG bytes.
func (r *ChromeRasterizer) Capture(ctx context.Context, doc string) ([]byte, error) {
	chromeCtx, closeFn, err := r.newContext(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	start := time.Now()
	var png []byte
	tasks := append(r.loadTasks(doc, captureScale),
		chromedp.Screenshot(CaptureSelector, &png, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err := chromedp.Run(chromeCtx, tasks...); err != nil {
		return nil, fmt.Errorf("capture certificate: %w", err)
	}
	if len(png) == 0 {
		return nil, errors.New("capture certificate: empty screenshot")
	}
	r.logger.Debug("captured certificate (%d bytes) in %s", len(png), time.Since(start))
	return png, nil
}

// PrintPDF prints doc with its print stylesheet applied and returns the PDF.
func (r *ChromeRasterizer) PrintPDF(ctx context.Context, doc string) ([]byte, error) {
	chromeCtx, closeFn, err := r.newContext(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	start := time.Now()
	var pdf []byte
	tasks := append(r.loadTasks(doc, 1),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthIn).
				WithPaperHeight(a4HeightIn).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err := chromedp.Run(chromeCtx, tasks...); err != nil {
		return nil, fmt.Errorf("print certificate: %w", err)
	}
	r.logger.Debug("printed certificate page (%d bytes) in %s", len(pdf), time.Since(start))
	return pdf, nil
}

func (r *ChromeRasterizer) loadTasks(doc string, scale float64) []chromedp.Action {
	return []chromedp.Action{
		emulation.SetDeviceMetricsOverride(int64(r.cfg.ViewportWidth), defaultViewportH, scale, false),
		emulation.SetDefaultBackgroundColorOverride().WithColor(&cdp.RGBA{R: 255, G: 255, B: 255, A: 1}),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.WaitVisible(CaptureSelector, chromedp.ByQuery),
	}
}

func (r *ChromeRasterizer) newContext(ctx context.Context) (context.Context, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	timeoutCtx, timeoutCancel := context.WithTimeout(ctx, r.cfg.Timeout)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.cfg.Headless),
		chromedp.Flag("disable-gpu", r.cfg.Headless),
		chromedp.Flag("hide-scrollbars", true),
	)
	if path := strings.TrimSpace(r.cfg.ExecPath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, opts...)
	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	closeFn := func() {
		chromeCancel()
		allocCancel()
		timeoutCancel()
	}
	return chromeCtx, closeFn, nil
}
