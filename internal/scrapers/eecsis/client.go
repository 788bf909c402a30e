// Package eecsis scrapes the EECS degree requirements page for the subjects
// that satisfy AAGS.
package eecsis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"aags-annotator/internal/aagslist"
	"aags-annotator/internal/components/assert"
	"aags-annotator/internal/components/telemetry"
	"aags-annotator/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("aags.internal.scrapers.eecsis")

const DefaultURL = "https://eecsis.mit.edu/degree_requirements.html"

const (
	report_client_fetch_subjects = "client.fetch-subjects"
	report_client_subject_count  = "client.subject-count"
)

// ErrUnexpectedStatus is returned for non-2xx responses. Client errors are
// marked permanent so they are not retried.
var ErrUnexpectedStatus = errors.New("unexpected status from degree requirements page")

type ClientOptions struct {
	// URL of the degree requirements page, defaults to DefaultURL.
	URL string
	// RequestsPerSecond limits how often the page is requested, defaults to 2.
	RequestsPerSecond float64
	Timeout           time.Duration
	// Transport replaces the http transport, used by tests.
	Transport http.RoundTripper
	// Dump receives every exchange with the page when set.
	Dump restyutil.InstrumentOutput
}

// Client fetches the AAGS list, it implements aagslist.Provider.
type Client struct {
	http *resty.Client
	url  string
	tel  telemetry.API
}

var _ aagslist.Provider = (*Client)(nil)

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "telemetry")
	tel = telemetry.NewScopedAPI("eecsis", tel)

	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}

	parsed, err := url.Parse(opts.URL)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	if opts.Transport != nil {
		httpClient.SetTransport(opts.Transport)
	} else {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsed.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	// max burst >= 1 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, tracer, opts.Dump)

	return &Client{
		http: httpClient,
		url:  parsed.String(),
		tel:  tel,
	}, nil
}

// FetchSubjects downloads the degree requirements page and parses the AAGS
// list out of it.
func (c *Client) FetchSubjects(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "FetchSubjects")
	defer span.End()

	fail := func(err error) ([]string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_fetch_subjects, err)
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		return fail(fmt.Errorf("eecsis: fetch degree requirements: %w", err))
	}
	if !res.IsSuccess() {
		err := fmt.Errorf("eecsis: %w: %s", ErrUnexpectedStatus, res.Status())
		if res.StatusCode() < 500 {
			err = aagslist.Permanent(err)
		}
		return fail(err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return fail(fmt.Errorf("eecsis: parse degree requirements: %w", err))
	}

	subjects, err := ParseSubjects(doc)
	if err != nil {
		return fail(aagslist.Permanent(fmt.Errorf("eecsis: %w", err)))
	}

	span.SetAttributes(attribute.Int("aags.subjects", len(subjects)))
	c.tel.ReportCount(report_client_subject_count, int64(len(subjects)))
	return subjects, nil
}
