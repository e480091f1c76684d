package imgpdf

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// imagesLoaded is truthy once every <img> finished loading or failed.
const imagesLoaded = `Array.from(document.images).every(img => img.complete)`

// Printer hands image galleries to a headless Chrome and returns the
// PDF produced by its print pipeline.
//
// A Printer manages one browser process that is reused across print jobs.
// It is safe for concurrent use. Call [Printer.Close] when the Printer is
// no longer needed to release browser resources.
type Printer struct {
	cfg           printerConfig
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewPrinter starts a headless browser configured by opts. The caller
// must call [Printer.Close] when finished.
func NewPrinter(opts ...Option) (*Printer, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.chromePath == "" && cfg.autoDownload {
		if _, ok := LookupBrowser(); !ok {
			path, err := resolveBrowser()
			if err != nil {
				return nil, err
			}
			cfg.chromePath = path
		}
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		// Gallery pages are file:// documents that may embed images from
		// other file:// paths.
		chromedp.Flag("allow-file-access-from-files", true),
		chromedp.Flag("headless", cfg.headless),
	)
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so errors surface at creation time.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("imgpdf: starting browser: %w", err)
	}
	cfg.logger.Debug("browser started", "path", cfg.chromePath)

	return &Printer{
		cfg:           cfg,
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close releases all resources held by the Printer, including the
// browser process. Close is idempotent.
func (p *Printer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.browserCancel()
	p.allocCancel()
	return nil
}

// Print renders records as a gallery, one image per page, and prints it
// to PDF. If pg is nil, [DefaultPageConfig] values are used. An empty
// record list returns [ErrNoImages].
func (p *Printer) Print(ctx context.Context, records []Record, pg *PageConfig) (*Result, error) {
	if err := p.checkClosed(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoImages
	}

	var buf bytes.Buffer
	if err := RenderGallery(&buf, records, GalleryOptions{PrintMode: true}); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "imgpdf-*.html")
	if err != nil {
		return nil, fmt.Errorf("imgpdf: creating temp file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := buf.WriteTo(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("imgpdf: writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("imgpdf: closing temp file: %w", err)
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, fmt.Errorf("imgpdf: resolving path: %w", err)
	}
	res, err := p.print(ctx, fileURL(abs), pg)
	if err != nil {
		return nil, err
	}
	res.pages = len(records)
	return res, nil
}

// PrintURL prints the gallery page served at rawURL.
// If pg is nil, [DefaultPageConfig] values are used.
func (p *Printer) PrintURL(ctx context.Context, rawURL string, pg *PageConfig) (*Result, error) {
	if err := p.checkClosed(); err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("imgpdf: invalid URL %q: %w", rawURL, err)
	}
	return p.print(ctx, rawURL, pg)
}

// print navigates to targetURL, waits for its images and prints it.
func (p *Printer) print(ctx context.Context, targetURL string, pg *PageConfig) (*Result, error) {
	resolved := pg.resolved()

	if p.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.timeout)
		defer cancel()
	}

	tabCtx, tabCancel := chromedp.NewContext(p.browserCtx)
	defer tabCancel()

	// Tie the tab to the caller's deadline and cancellation.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	width, height := resolved.paperDimensions()
	marginTop, marginRight, marginBottom, marginLeft := resolved.marginInches()

	started := time.Now()
	var ready bool
	var buf []byte
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Poll(imagesLoaded, &ready, chromedp.WithPollingInterval(50*time.Millisecond)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			params := page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(marginTop).
				WithMarginRight(marginRight).
				WithMarginBottom(marginBottom).
				WithMarginLeft(marginLeft).
				WithScale(resolved.Scale).
				WithPrintBackground(resolved.PrintBackground).
				WithLandscape(resolved.Orientation == Landscape).
				WithPreferCSSPageSize(resolved.PreferCSSPageSize).
				WithDisplayHeaderFooter(resolved.DisplayHeaderFooter)

			if resolved.HeaderTemplate != "" {
				params = params.WithHeaderTemplate(resolved.HeaderTemplate)
			}
			if resolved.FooterTemplate != "" {
				params = params.WithFooterTemplate(resolved.FooterTemplate)
			}

			var err error
			buf, _, err = params.Do(ctx)
			return err
		}),
	); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("imgpdf: printing %s: %w", targetURL, ctx.Err())
		}
		return nil, fmt.Errorf("imgpdf: printing failed: %w", err)
	}

	p.cfg.logger.Debug("printed", "url", targetURL, "bytes", len(buf), "took", time.Since(started))
	return &Result{data: buf}, nil
}

func (p *Printer) checkClosed() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return nil
}

// --- Package-level convenience functions ---

// Export scans src and prints what it finds using a temporary [Printer].
// It returns [ErrNoImages] when the scan comes back empty, before any
// browser is started.
func Export(ctx context.Context, src Source, pg *PageConfig, probe []ProbeOption, opts ...Option) (*Result, error) {
	records, err := Discover(ctx, src, probe...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoImages
	}

	p, err := NewPrinter(opts...)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Print(ctx, records, pg)
}
