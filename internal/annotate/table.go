package annotate

import (
	"errors"
	"strings"

	"aags-annotator/internal/subject"
	"aags-annotator/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	DefaultTableHeaderHref = "https://eecsis.mit.edu/degree_requirements.pcgi?program=AAGS"

	tableColumnClass = "aags-column"
)

var ErrNoTable = errors.New("annotate: no table found")

// TableOptions configures AddTableColumn for the "who is teaching what" page.
type TableOptions struct {
	// SubjectColumn is the index of the subject cell in each body row, it is 1
	// on the teaching assignments page where column 0 is the area.
	SubjectColumn int    `json:"subject_column"`
	HeaderHref    string `json:"header_href"`
}

func DefaultTableOptions() TableOptions {
	return TableOptions{SubjectColumn: 1, HeaderHref: DefaultTableHeaderHref}
}

type TableReport struct {
	Rows    int
	Flagged int
}

// AddTableColumn prepends an AAGS column to the first table under root. A row
// gets a check mark when its single subject is flagged, the list of flagged
// subjects when several are, and an empty cell otherwise. Rows with fewer than
// three cells are not data rows and are skipped. A table that already has the
// column is left alone.
func AddTableColumn(root *html.Node, flagged subject.FlaggedSet, opts TableOptions) (TableReport, error) {
	if opts.HeaderHref == "" {
		opts.HeaderHref = DefaultTableHeaderHref
	}

	doc := goquery.NewDocumentFromNode(root)
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return TableReport{}, ErrNoTable
	}
	if table.Find("th." + tableColumnClass).Length() > 0 {
		return TableReport{}, nil
	}

	headerRows := table.Find("thead tr")
	if headerRows.Length() > 0 {
		headerRows.First().PrependNodes(newHeaderCell(opts.HeaderHref))
		if headerRows.Length() > 1 {
			headerRows.Eq(1).PrependNodes(newHintCell())
		}
	}

	var report TableReport
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 || opts.SubjectColumn >= cells.Length() {
			return
		}

		subjects := subject.Parse(strings.TrimSpace(cells.Eq(opts.SubjectColumn).Text()))
		matches := subject.Matches(subjects, flagged)

		row.PrependNodes(newSubjectCell(subjects, matches))
		report.Rows++
		if len(matches) > 0 {
			report.Flagged++
		}
	})

	return report, nil
}

func newHeaderCell(href string) *html.Node {
	th := htmlutil.NewElement(
		"th",
		"class", tableColumnClass,
		"style", "font-weight:bold;text-align:center",
	)
	link := htmlutil.NewElement(
		"a",
		"href", href,
		"target", "_blank",
		"rel", "noopener noreferrer",
		"title", "View official AAGS requirements",
	)
	link.AppendChild(htmlutil.NewText("AAGS"))
	th.AppendChild(link)
	return th
}

func newHintCell() *html.Node {
	td := htmlutil.NewElement(
		"td",
		"style", "text-align:center;white-space:normal;max-width:8em;word-break:break-word",
	)
	hint := htmlutil.NewElement("span", "style", "font-size:80%;font-style:italic")
	hint.AppendChild(htmlutil.NewText("scroll down to see "))
	eligible := htmlutil.NewElement("span", "style", "color:green;font-weight:bold")
	eligible.AppendChild(htmlutil.NewText("eligible subjects"))
	hint.AppendChild(eligible)
	hint.AppendChild(htmlutil.NewText(" identified in green"))
	td.AppendChild(hint)
	return td
}

func newSubjectCell(subjects, matches []subject.Canonical) *html.Node {
	switch {
	case len(matches) == 0:
		return htmlutil.NewElement("td", "style", "text-align:center")
	case len(matches) == 1 && len(subjects) == 1:
		td := htmlutil.NewElement(
			"td",
			"style", "text-align:center;color:green;font-size:18px;font-weight:bold",
		)
		td.AppendChild(htmlutil.NewText("✓"))
		return td
	default:
		td := htmlutil.NewElement(
			"td",
			"style", "text-align:center;font-size:12px;color:green",
		)
		td.AppendChild(htmlutil.NewText(strings.Join(matches, ", ")))
		return td
	}
}
