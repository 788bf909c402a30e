package pagesource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"aags-annotator/internal/components/assert"
	"aags-annotator/internal/components/telemetry"
	"aags-annotator/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const report_http_read = "http.read"

var ErrUnexpectedStatus = errors.New("unexpected status fetching page")

type HTTPOptions struct {
	RequestsPerSecond float64
	Timeout           time.Duration
	Transport         http.RoundTripper
	Dump              restyutil.InstrumentOutput
}

// HTTP fetches a page without executing any of its scripts.
type HTTP struct {
	client *resty.Client
	url    string
	tel    telemetry.API
}

func NewHTTP(url string, opts HTTPOptions, tel telemetry.API) (HTTP, error) {
	assert.NotNil(tel, "telemetry")
	tel = telemetry.NewScopedAPI("pagesource", tel)

	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New()
	if opts.Transport != nil {
		client.SetTransport(opts.Transport)
	} else {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetTimeout(opts.Timeout)
	client.SetHeader("accept", "text/html,application/xhtml+xml")

	limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})
	telemetry.InstrumentResty(client, tel)
	restyutil.InstrumentClient(client, tracer, opts.Dump)

	return HTTP{client: client, url: url, tel: tel}, nil
}

func (h HTTP) Location() string {
	return h.url
}

func (h HTTP) Read(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "HTTP.Read")
	defer span.End()

	res, err := h.client.R().SetContext(ctx).Get(h.url)
	if err == nil && !res.IsSuccess() {
		err = fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.tel.ReportBroken(report_http_read, h.url, err)
		return nil, fmt.Errorf("fetch %s: %w", h.url, err)
	}

	span.SetAttributes(attribute.Int("page.bytes", len(res.Body())))
	return res.Body(), nil
}
