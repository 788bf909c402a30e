// Package pagesource loads the catalog HTML that gets annotated, either from
// disk, from a plain HTTP fetch or from a page rendered by a headless browser.
package pagesource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"aags-annotator/internal/components/telemetry"
	"aags-annotator/lib/restyutil"

	"go.opentelemetry.io/otel"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("aags.internal.pagesource")

var ErrEmptyPage = errors.New("page source returned an empty document")

// Source produces the raw HTML of a single page.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
	// Location is the path or URL the source reads from.
	Location() string
}

// Load reads src and parses the result into a tree.
func Load(ctx context.Context, src Source) (*html.Node, error) {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()

	contents, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(contents)) == 0 {
		return nil, fmt.Errorf("%s: %w", src.Location(), ErrEmptyPage)
	}
	return html.Parse(bytes.NewReader(contents))
}

// File reads a page from the local filesystem.
type File struct {
	Path string
}

func (f File) Location() string {
	return f.Path
}

func (f File) Read(ctx context.Context) ([]byte, error) {
	_, span := tracer.Start(ctx, "File.Read")
	defer span.End()
	return os.ReadFile(f.Path)
}

type Options struct {
	// Render makes URLs load through a headless browser so scripts run before
	// the page is read.
	Render            bool
	RequestsPerSecond float64
	Timeout           time.Duration
	Browser           BrowserOptions
	Dump              restyutil.InstrumentOutput
}

// Resolve picks the source for location: http(s) URLs are fetched (or
// rendered), anything else is treated as a file path.
func Resolve(location string, opts Options, tel telemetry.API) (Source, error) {
	parsed, err := url.Parse(location)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return File{Path: location}, nil
	}
	if opts.Render {
		browserOpts := opts.Browser
		if browserOpts.Timeout <= 0 {
			browserOpts.Timeout = opts.Timeout
		}
		return NewRendered(parsed.String(), browserOpts, tel), nil
	}
	return NewHTTP(parsed.String(), HTTPOptions{
		RequestsPerSecond: opts.RequestsPerSecond,
		Timeout:           opts.Timeout,
		Dump:              opts.Dump,
	}, tel)
}
