package annotate

import (
	"aags-annotator/lib/htmlutil"

	"golang.org/x/net/html"
)

// Apply replaces a text node with the text split around spans, each raw token
// directly followed by a marker. Spans must be sorted and non-overlapping, as
// returned by FindSpans.
//
// The replacement is built off-tree and swapped in at once, so the node is
// either left exactly as it was (no spans, or detached) or fully replaced. It
// returns the number of markers inserted.
func Apply(node *html.Node, spans []Span, marker MarkerFunc) int {
	if len(spans) == 0 || node.Type != html.TextNode || node.Parent == nil {
		return 0
	}

	text := node.Data
	var fragment []*html.Node
	last := 0
	for _, span := range spans {
		if span.Start > last {
			fragment = append(fragment, htmlutil.NewText(text[last:span.Start]))
		}
		fragment = append(fragment, htmlutil.NewText(text[span.Start:span.End]))
		fragment = append(fragment, marker())
		last = span.End
	}
	if last < len(text) {
		fragment = append(fragment, htmlutil.NewText(text[last:]))
	}

	if !htmlutil.ReplaceNode(node, fragment...) {
		return 0
	}
	return len(spans)
}
