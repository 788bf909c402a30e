package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText drops non-printable characters, trims the ends and collapses runs
// of inner whitespace into one space.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// Attr returns the value of the attribute key on an element node.
func Attr(node *html.Node, key string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, a := range node.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether the element's class attribute lists class.
func HasClass(node *html.Node, class string) bool {
	value, ok := Attr(node, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(value) {
		if c == class {
			return true
		}
	}
	return false
}

// IsElement reports whether node is an element with the given tag name.
func IsElement(node *html.Node, tag string) bool {
	return node != nil && node.Type == html.ElementNode && node.Data == tag
}

// HasAncestor reports whether any ancestor of node, the node itself excluded,
// satisfies match.
func HasAncestor(node *html.Node, match func(*html.Node) bool) bool {
	for p := node.Parent; p != nil; p = p.Parent {
		if match(p) {
			return true
		}
	}
	return false
}

// TextNodes collects the text nodes under root in document order, accept may
// be nil to collect all of them. The result is a snapshot so callers may
// replace nodes while iterating it.
func TextNodes(root *html.Node, accept func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if accept == nil || accept(n) {
				out = append(out, n)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// ReplaceNode swaps old for replacements in old's parent. It returns false and
// leaves the tree alone when old is detached.
func ReplaceNode(old *html.Node, replacements ...*html.Node) bool {
	parent := old.Parent
	if parent == nil {
		return false
	}
	for _, r := range replacements {
		parent.InsertBefore(r, old)
	}
	parent.RemoveChild(old)
	return true
}

// NewText creates a detached text node.
func NewText(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// NewElement creates a detached element, attrs are key/value pairs.
func NewElement(tag string, attrs ...string) *html.Node {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		node.Attr = append(node.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return node
}

// Render serializes node and its subtree.
func Render(node *html.Node) (string, error) {
	var buffer bytes.Buffer
	err := html.Render(&buffer, node)
	if err != nil {
		return "", err
	}
	return buffer.String(), nil
}
