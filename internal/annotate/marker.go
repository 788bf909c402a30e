package annotate

import (
	"aags-annotator/lib/htmlutil"

	"golang.org/x/net/html"
)

const (
	DefaultMarkerLabel = "AAGS"
	DefaultMarkerHref  = "https://eecsis.mit.edu/degree_requirements.html#AAGS"
	DefaultMarkerTitle = "This subject satisfies AAGS requirements"

	markerClass = "aags-marker"
	markerAttr  = "data-aags-marker"
)

type MarkerOptions struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Title string `json:"title"`
}

func (o MarkerOptions) withDefaults() MarkerOptions {
	if o.Label == "" {
		o.Label = DefaultMarkerLabel
	}
	if o.Href == "" {
		o.Href = DefaultMarkerHref
	}
	if o.Title == "" {
		o.Title = DefaultMarkerTitle
	}
	return o
}

// MarkerFunc builds a fresh, detached marker element.
type MarkerFunc func() *html.Node

// NewMarker returns a MarkerFunc building a superscript link:
//
//	<sup class="aags-marker" data-aags-marker=""><a href=... title=...>AAGS</a></sup>
func NewMarker(opts MarkerOptions) MarkerFunc {
	opts = opts.withDefaults()
	return func() *html.Node {
		sup := htmlutil.NewElement(
			"sup",
			"class", markerClass,
			markerAttr, "",
			"style", "font-size:0.7em;margin-left:0.2em",
		)
		link := htmlutil.NewElement(
			"a",
			"href", opts.Href,
			"target", "_blank",
			"rel", "noopener noreferrer",
			"title", opts.Title,
			"style", "color:green;font-weight:bold;text-decoration:none",
		)
		link.AppendChild(htmlutil.NewText(opts.Label))
		sup.AppendChild(link)
		return sup
	}
}

// IsMarker reports whether node is a marker produced by a previous pass.
func IsMarker(node *html.Node) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}
	_, ok := htmlutil.Attr(node, markerAttr)
	return ok
}
