// Package annotate rewrites HTML trees so every flagged subject number is
// followed by an AAGS marker.
//
// Analysis and mutation are separate steps: FindSpans is a pure function over
// one run of text, Apply performs the rewrite of one text node. Annotator ties
// the two together over a whole tree.
package annotate

import (
	"context"
	"errors"
	"strings"

	"aags-annotator/internal/components/telemetry"
	"aags-annotator/internal/subject"
	"aags-annotator/lib/htmlutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("aags.internal.annotate")

// ErrEmptyFlaggedSet is returned when there is nothing to annotate with. It is
// not fatal, the tree is left untouched.
var ErrEmptyFlaggedSet = errors.New("annotate: flagged subject set is empty")

const (
	report_annotator_annotate = "annotator.annotate"
	report_annotator_markers  = "annotator.markers"
)

// text under these elements is never rendered as prose
var skippedParents = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"textarea": true,
	"title":    true,
	"iframe":   true,
	"xmp":      true,
}

// Report summarizes one annotation pass.
type Report struct {
	// TextNodes is the number of text nodes that passed the filters and were
	// scanned for subjects.
	TextNodes int
	// Rewritten is the number of text nodes replaced.
	Rewritten int
	Markers   int
	// Subjects lists the distinct flagged subjects found, in document order.
	Subjects []subject.Canonical
}

type Annotator struct {
	marker MarkerFunc
	tel    telemetry.API
}

type Option func(a *Annotator)

func WithMarker(opts MarkerOptions) Option {
	return func(a *Annotator) {
		a.marker = NewMarker(opts)
	}
}

func WithTelemetry(tel telemetry.API) Option {
	return func(a *Annotator) {
		a.tel = tel
	}
}

func NewAnnotator(options ...Option) Annotator {
	a := Annotator{
		marker: NewMarker(MarkerOptions{}),
		tel:    telemetry.SlogAPI{},
	}
	for _, opt := range options {
		opt(&a)
	}
	a.tel = telemetry.NewScopedAPI("annotate", a.tel)
	return a
}

func scannable(node *html.Node) bool {
	parent := node.Parent
	if parent == nil {
		return false
	}
	if parent.Type == html.ElementNode && skippedParents[parent.Data] {
		return false
	}
	if !strings.ContainsAny(node.Data, "0123456789") {
		return false
	}
	return !htmlutil.HasAncestor(node, IsMarker)
}

// Annotate rewrites every text node under root holding a flagged subject.
// Running it again over its own output adds nothing.
func (a Annotator) Annotate(ctx context.Context, root *html.Node, flagged subject.FlaggedSet) (Report, error) {
	_, span := tracer.Start(ctx, "Annotate")
	defer span.End()

	if flagged.Len() == 0 {
		a.tel.ReportWarning(report_annotator_annotate, ErrEmptyFlaggedSet)
		return Report{}, ErrEmptyFlaggedSet
	}

	var report Report
	seen := map[subject.Canonical]bool{}

	for _, node := range htmlutil.TextNodes(root, scannable) {
		report.TextNodes++

		spans := FindSpans(node.Data, flagged)
		if n := len(spans); n > 0 && spans[n-1].End == len(node.Data) && IsMarker(node.NextSibling) {
			spans = spans[:n-1]
		}
		if len(spans) == 0 {
			continue
		}

		inserted := Apply(node, spans, a.marker)
		if inserted == 0 {
			continue
		}
		report.Rewritten++
		report.Markers += inserted

		for _, s := range spans {
			for _, m := range s.Matched {
				if !seen[m] {
					seen[m] = true
					report.Subjects = append(report.Subjects, m)
				}
			}
		}
	}

	span.SetAttributes(
		attribute.Int("aags.text_nodes", report.TextNodes),
		attribute.Int("aags.markers", report.Markers),
	)
	a.tel.ReportCount(report_annotator_markers, int64(report.Markers))

	return report, nil
}
