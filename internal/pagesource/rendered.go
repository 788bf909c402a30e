package pagesource

import (
	"context"
	"fmt"
	"time"

	"aags-annotator/internal/components/assert"
	"aags-annotator/internal/components/telemetry"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.opentelemetry.io/otel/codes"
)

const report_rendered_read = "rendered.read"

type BrowserOptions struct {
	// DebuggerURL connects to an already running browser instead of
	// launching one.
	DebuggerURL string `json:"debugger_url"`
	// Bin overrides the browser binary, the launcher downloads one otherwise.
	Bin     string        `json:"bin"`
	Timeout time.Duration `json:"-"`
}

// Rendered loads a page in a headless browser and reads the DOM once the page
// has finished loading, so content inserted by scripts is included.
type Rendered struct {
	url  string
	opts BrowserOptions
	tel  telemetry.API
}

func NewRendered(url string, opts BrowserOptions, tel telemetry.API) Rendered {
	assert.NotNil(tel, "telemetry")
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return Rendered{
		url:  url,
		opts: opts,
		tel:  telemetry.NewScopedAPI("pagesource", tel),
	}
}

func (r Rendered) Location() string {
	return r.url
}

func (r Rendered) controlURL(ctx context.Context) (string, func(), error) {
	if r.opts.DebuggerURL != "" {
		return r.opts.DebuggerURL, func() {}, nil
	}

	l := launcher.New().Headless(true).Context(ctx)
	if r.opts.Bin != "" {
		l = l.Bin(r.opts.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return "", nil, fmt.Errorf("launch browser: %w", err)
	}
	return controlURL, l.Kill, nil
}

func (r Rendered) Read(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Rendered.Read")
	defer span.End()

	fail := func(err error) ([]byte, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.tel.ReportBroken(report_rendered_read, r.url, err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	controlURL, cleanup, err := r.controlURL(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fail(fmt.Errorf("connect to browser: %w", err))
	}
	// a shared browser is left running, only its page is closed
	if r.opts.DebuggerURL == "" {
		defer browser.Close()
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: r.url})
	if err != nil {
		return fail(fmt.Errorf("open %s: %w", r.url, err))
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return fail(fmt.Errorf("wait for %s: %w", r.url, err))
	}
	contents, err := page.HTML()
	if err != nil {
		return fail(fmt.Errorf("read %s: %w", r.url, err))
	}

	r.tel.ReportDebug("rendered page", "url", r.url, "bytes", len(contents))
	return []byte(contents), nil
}
