package annotate

import (
	"regexp"

	"aags-annotator/lib/htmlutil"

	"golang.org/x/net/html"
)

const mentionClass = "aags-mention"

var mentionRegex = regexp.MustCompile(`\bAAGS\b`)

func isMention(node *html.Node) bool {
	return htmlutil.IsElement(node, "span") && htmlutil.HasClass(node, mentionClass)
}

// HighlightMentions wraps every whole-word "AAGS" already present in the page
// text in a green span. Descriptions of new subjects often mention AAGS before
// the official list catches up. It returns the number of mentions wrapped.
func HighlightMentions(root *html.Node) int {
	accept := func(node *html.Node) bool {
		parent := node.Parent
		if parent == nil || (parent.Type == html.ElementNode && skippedParents[parent.Data]) {
			return false
		}
		if isMention(parent) {
			return false
		}
		return !htmlutil.HasAncestor(node, IsMarker)
	}

	total := 0
	for _, node := range htmlutil.TextNodes(root, accept) {
		locs := mentionRegex.FindAllStringIndex(node.Data, -1)
		if len(locs) == 0 {
			continue
		}

		text := node.Data
		var fragment []*html.Node
		last := 0
		for _, loc := range locs {
			if loc[0] > last {
				fragment = append(fragment, htmlutil.NewText(text[last:loc[0]]))
			}
			span := htmlutil.NewElement(
				"span",
				"class", mentionClass,
				"style", "color:green;font-weight:bold",
			)
			span.AppendChild(htmlutil.NewText(text[loc[0]:loc[1]]))
			fragment = append(fragment, span)
			last = loc[1]
		}
		if last < len(text) {
			fragment = append(fragment, htmlutil.NewText(text[last:]))
		}

		if htmlutil.ReplaceNode(node, fragment...) {
			total += len(locs)
		}
	}
	return total
}
