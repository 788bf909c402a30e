// Package catalog runs the annotation passes over one catalog page: it loads
// the flagged list, marks flagged subjects (or adds the teaching table
// column), highlights AAGS mentions and falls back to a warning banner when
// the list is unavailable.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"aags-annotator/internal/annotate"
	"aags-annotator/internal/components/assert"
	"aags-annotator/internal/components/telemetry"
	"aags-annotator/internal/subject"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("aags.internal.catalog")

const (
	report_processor_list    = "processor.list"
	report_processor_table   = "processor.table"
	report_processor_markers = "processor.markers"
)

// ListLoader is satisfied by *aagslist.Cache.
type ListLoader interface {
	Load(ctx context.Context) (subject.FlaggedSet, error)
}

type Options struct {
	Marker annotate.MarkerOptions
	// HighlightMentions wraps existing "AAGS" text on the page.
	HighlightMentions bool
	// Table switches to the teaching table layout: a column is added to the
	// first table instead of marking subjects inline.
	Table *annotate.TableOptions
}

// Outcome describes what a Process call did to the page.
type Outcome struct {
	Annotation annotate.Report
	Table      annotate.TableReport
	Mentions   int
	// ListErr is set when the flagged list could not be loaded, the page then
	// only carries a warning banner.
	ListErr error
	Banner  bool
}

// Warning is the message shown to the reader when the list is unavailable.
func (o Outcome) Warning() string {
	if o.ListErr == nil {
		return ""
	}
	return fmt.Sprintf("Failed to load AAGS list: %s", o.ListErr.Error())
}

type Processor struct {
	list      ListLoader
	opts      Options
	annotator annotate.Annotator
	tel       telemetry.API
}

func NewProcessor(list ListLoader, opts Options, tel telemetry.API) Processor {
	assert.NotNil(list, "aags list")
	assert.NotNil(tel, "telemetry")

	return Processor{
		list: list,
		opts: opts,
		annotator: annotate.NewAnnotator(
			annotate.WithMarker(opts.Marker),
			annotate.WithTelemetry(tel),
		),
		tel: telemetry.NewScopedAPI("catalog", tel),
	}
}

// Process rewrites root in place. A missing or empty list is not an error:
// the page is left untouched apart from the banner, mentions included, and
// Outcome.ListErr records why. The returned error is only set when ctx is done.
func (p Processor) Process(ctx context.Context, root *html.Node) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Process")
	defer span.End()

	var out Outcome
	flagged, err := p.list.Load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		p.tel.ReportWarning(report_processor_list, err)
		out.ListErr = err
		out.Banner = annotate.InsertBanner(root, out.Warning())
		return out, nil
	}

	if p.opts.Table != nil {
		out.Table, err = annotate.AddTableColumn(root, flagged, *p.opts.Table)
		if errors.Is(err, annotate.ErrNoTable) {
			p.tel.ReportWarning(report_processor_table, err)
		}
		span.SetAttributes(attribute.Int("catalog.table_flagged", out.Table.Flagged))
	} else {
		out.Annotation, err = p.annotator.Annotate(ctx, root, flagged)
		if err != nil {
			// only an empty set fails annotation, which Load never returns
			p.tel.ReportBroken(report_processor_markers, err)
		} else {
			p.tel.ReportCount(report_processor_markers, int64(out.Annotation.Markers))
			span.SetAttributes(attribute.Int("catalog.markers", out.Annotation.Markers))
		}
	}

	if p.opts.HighlightMentions {
		out.Mentions = annotate.HighlightMentions(root)
	}
	return out, nil
}
