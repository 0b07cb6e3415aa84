// Package export renders the preview HTML to PDF in a headless browser.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/metamendmarketing/reportbuilderv3/internal/logging"
)

// DefaultTimeout bounds one PDF render.
const DefaultTimeout = 45 * time.Second

// UnavailableError reports that PDF export could not run. HTML and .eml
// outputs are unaffected.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("PDF export unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Options tunes the browser and page layout. Paper sizes are in inches.
type Options struct {
	Timeout     time.Duration
	ExecPath    string // Chrome binary; empty lets chromedp search
	PaperWidth  float64
	PaperHeight float64
	Margin      float64
	Landscape   bool
	Logger      *logging.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.PaperWidth <= 0 {
		o.PaperWidth = 8.5
	}
	if o.PaperHeight <= 0 {
		o.PaperHeight = 11
	}
	if o.Margin <= 0 {
		o.Margin = 0.5
	}
	o.Logger = logging.OrNop(o.Logger)
	return o
}

// RenderPDF loads html into a blank page and prints it. The html should be
// the preview variant with images inlined as data URIs. Every failure is an
// *UnavailableError.
func RenderPDF(ctx context.Context, html string, opts Options) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, &UnavailableError{Cause: fmt.Errorf("no html to render")}
	}
	opts = opts.withDefaults()
	opts.Logger.Debug("starting headless browser for pdf export", "html_bytes", len(html))

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(opts.Landscape).
				WithPaperWidth(opts.PaperWidth).
				WithPaperHeight(opts.PaperHeight).
				WithMarginTop(opts.Margin).
				WithMarginBottom(opts.Margin).
				WithMarginLeft(opts.Margin).
				WithMarginRight(opts.Margin).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, &UnavailableError{Cause: err}
	}

	opts.Logger.Debug("pdf export complete", "pdf_bytes", len(pdf))
	return pdf, nil
}
