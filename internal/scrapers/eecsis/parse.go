package eecsis

import (
	"errors"
	"regexp"

	"aags-annotator/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	ErrAnchorNotFound = errors.New("AAGS anchor not found in degree requirements page")
	ErrNoSubjects     = errors.New("no AAGS subjects found in parsed document")
)

var subjectRegex = regexp.MustCompile(`\b\d+(?:\.[0-9A-Z]+)+\b`)

// subjectCollector accumulates subject numbers, deduplicated in first-seen
// order.
type subjectCollector struct {
	seen     map[string]bool
	subjects []string
}

func newSubjectCollector() *subjectCollector {
	return &subjectCollector{seen: map[string]bool{}}
}

func (c *subjectCollector) addMatches(text string) {
	for _, match := range subjectRegex.FindAllString(text, -1) {
		if c.seen[match] {
			continue
		}
		c.seen[match] = true
		c.subjects = append(c.subjects, match)
	}
}

// collectLink reads the subject numbers of one `a.annotated-link`. The link
// holds the number as text, followed by a tooltip (`.annotation`) and the
// legacy number (`<old>`), both of which are skipped.
func (c *subjectCollector) collectLink(link *html.Node) {
	for child := link.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			c.addMatches(child.Data)
		case html.ElementNode:
			if htmlutil.HasClass(child, "annotation") || child.Data == "old" {
				continue
			}
			c.addMatches(htmlutil.GetText(child))
		}
	}

	// some links only carry the number deep inside their first child
	if len(c.subjects) == 0 {
		c.addMatches(htmlutil.GetText(link))
	}
}

func findAnchor(doc *goquery.Document) *goquery.Selection {
	anchor := doc.Find(`a[name="AAGS"], a[name="aags"]`).First()
	if anchor.Length() > 0 {
		return anchor
	}
	return doc.Find(`a[id="AAGS"], a[id="aags"]`).First()
}

func findContainer(doc *goquery.Document, anchor *goquery.Selection) *goquery.Selection {
	if next := anchor.Next(); next.Length() > 0 {
		return next
	}
	if inParent := anchor.Parent().Find("div, table").First(); inParent.Length() > 0 {
		return inParent
	}
	return doc.Find("body").First()
}

// ParseSubjects extracts the AAGS subject numbers from the degree requirements
// page. The list follows an anchor named AAGS, every subject being an
// `a.annotated-link`. When the container next to the anchor yields nothing,
// every annotated link after the anchor in document order is read instead.
func ParseSubjects(doc *goquery.Document) ([]string, error) {
	anchor := findAnchor(doc)
	if anchor.Length() == 0 {
		return nil, ErrAnchorNotFound
	}

	collector := newSubjectCollector()
	findContainer(doc, anchor).Find("a.annotated-link").Each(func(_ int, link *goquery.Selection) {
		collector.collectLink(link.Get(0))
	})
	if len(collector.subjects) > 0 {
		return collector.subjects, nil
	}

	fallback := newSubjectCollector()
	anchorNode := anchor.Get(0)
	reached := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == anchorNode {
			reached = true
		} else if reached && htmlutil.IsElement(n, "a") && htmlutil.HasClass(n, "annotated-link") {
			fallback.collectLink(n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		walk(body.Get(0))
	}

	if len(fallback.subjects) == 0 {
		return nil, ErrNoSubjects
	}
	return fallback.subjects, nil
}
