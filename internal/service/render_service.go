package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/semaphore"

	"docsign-service/internal/domain"
	"docsign-service/internal/metrics"
)

const (
	fontsReadyJS = `() => document.fonts.ready.then(() => true)`

	// contentReadyJS resolves once the page signals readiness or has no
	// images left to load.
	contentReadyJS = `() => new Promise((resolve) => {
  const ready = () => window.documentReady === true ||
    document.documentElement.dataset.ready === "true" ||
    document.images.length === 0 ||
    Array.from(document.images).every((img) => img.complete);
  const poll = () => (ready() ? resolve(true) : setTimeout(poll, 50));
  poll();
})`
)

// RenderOptions bounds a render session.
type RenderOptions struct {
	BrowserBin     string
	ContentTimeout time.Duration
	SessionTimeout time.Duration
	ReadyTimeout   time.Duration
	MaxSessions    int64
}

// RenderOptionsFromConfig reads the render settings from cfg.
func RenderOptionsFromConfig(cfg domain.Config) RenderOptions {
	return RenderOptions{
		BrowserBin:     cfg.GetBrowserBin(),
		ContentTimeout: cfg.GetContentTimeout(),
		SessionTimeout: cfg.GetSessionTimeout(),
		ReadyTimeout:   cfg.GetReadyTimeout(),
		MaxSessions:    cfg.GetMaxRenderSessions(),
	}
}

// RodRenderer renders markup to PDF in a dedicated headless browser per call.
type RodRenderer struct {
	options  RenderOptions
	sessions *semaphore.Weighted
	pdf      *PDFProcessor
	logger   domain.Logger
	metrics  *metrics.Metrics
}

// NewRodRenderer creates a renderer. At most options.MaxSessions browsers run at once.
func NewRodRenderer(options RenderOptions, logger domain.Logger, m *metrics.Metrics) *RodRenderer {
	if options.MaxSessions < 1 {
		options.MaxSessions = 1
	}
	return &RodRenderer{
		options:  options,
		sessions: semaphore.NewWeighted(options.MaxSessions),
		pdf:      NewPDFProcessor(logger),
		logger:   logger,
		metrics:  m,
	}
}

// Render produces a PDF and its parsed page count from content.
func (r *RodRenderer) Render(ctx context.Context, content string) (*domain.RenderResult, error) {
	markup, err := PrepareMarkup(content)
	if err != nil {
		return nil, err
	}

	if err := r.sessions.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for render session: %w", err)
	}
	defer r.sessions.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.options.SessionTimeout)
	defer cancel()

	start := time.Now()
	binary, err := r.capture(ctx, markup)
	r.metrics.ObserveRender(time.Since(start), err)
	if err != nil {
		r.logger.Error("Render session failed", err, "elapsed", time.Since(start))
		return nil, err
	}

	pages, err := r.pdf.CountPages(binary)
	if err != nil {
		return nil, fmt.Errorf("count artifact pages: %w", err)
	}

	r.logger.Info("Rendered artifact", "pages", pages, "bytes", len(binary), "elapsed", time.Since(start))
	return &domain.RenderResult{Binary: binary, PageCount: pages}, nil
}

// capture runs one isolated browser session. The browser is torn down on
// every return path.
func (r *RodRenderer) capture(ctx context.Context, markup string) ([]byte, error) {
	l := launcher.New().Context(ctx).Headless(true).NoSandbox(true)
	if r.options.BrowserBin != "" {
		l = l.Bin(r.options.BrowserBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch render session: %w", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect render session: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			r.logger.Debug("Closing render browser failed", "error", err)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open render page: %w", err)
	}

	router := page.HijackRequests()
	if err := router.Add("*", "", r.gate); err != nil {
		return nil, fmt.Errorf("install resource gate: %w", err)
	}
	go router.Run()
	defer func() {
		if err := router.Stop(); err != nil {
			r.logger.Debug("Stopping resource gate failed", "error", err)
		}
	}()

	timed := page.Timeout(r.options.ContentTimeout)
	err = timed.SetDocumentContent(markup)
	timed.CancelTimeout()
	if err != nil {
		return nil, fmt.Errorf("set render content: %w", err)
	}

	r.awaitReady(page)

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:     true,
		PreferCSSPageSize:   true,
		DisplayHeaderFooter: true,
		HeaderTemplate:      "<span></span>",
		FooterTemplate:      footerTemplate,
	})
	if err != nil {
		return nil, fmt.Errorf("capture artifact: %w", err)
	}
	binary, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return binary, nil
}

// awaitReady waits for fonts and images. A timeout is logged and the capture
// proceeds with whatever has loaded.
func (r *RodRenderer) awaitReady(page *rod.Page) {
	for _, stage := range []struct{ name, js string }{
		{"fonts", fontsReadyJS},
		{"content", contentReadyJS},
	} {
		timed := page.Timeout(r.options.ReadyTimeout)
		_, err := timed.Eval(stage.js)
		timed.CancelTimeout()
		if err != nil {
			r.logger.Warn("Render readiness wait gave up, continuing", "stage", stage.name, "error", err)
		}
	}
}

// gate lets images, stylesheets and fonts through and fails everything else.
func (r *RodRenderer) gate(h *rod.Hijack) {
	if isResourceAllowed(h.Request.Type()) {
		h.ContinueRequest(&proto.FetchContinueRequest{})
		return
	}
	r.logger.Debug("Blocked render resource", "type", h.Request.Type(), "url", h.Request.URL().String())
	h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
}
