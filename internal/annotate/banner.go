package annotate

import (
	"aags-annotator/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const bannerID = "aags-error-banner"

const bannerStyle = "position:fixed;top:0;left:0;right:0;background-color:#f8d7da;color:#721c24;" +
	"border-bottom:2px solid #f5c6cb;padding:12px 20px;z-index:10000;" +
	"font-family:Arial,sans-serif;font-size:14px;box-shadow:0 2px 5px rgba(0,0,0,0.1)"

const bannerDismissStyle = "float:right;background:transparent;border:1px solid #721c24;" +
	"color:#721c24;padding:4px 12px;cursor:pointer;border-radius:3px;font-size:12px"

const bannerAutoDismiss = `setTimeout(function(){var b=document.getElementById("` + bannerID +
	`");if(b){b.remove();}},10000);`

// InsertBanner puts a dismissible warning banner at the top of <body>. It is
// used when the flagged list could not be loaded, the page itself is left
// unannotated. It returns false when there is no body or a banner is already
// present.
func InsertBanner(root *html.Node, message string) bool {
	doc := goquery.NewDocumentFromNode(root)
	body := doc.Find("body").First()
	if body.Length() == 0 || doc.Find("#"+bannerID).Length() > 0 {
		return false
	}

	banner := htmlutil.NewElement("div", "id", bannerID, "style", bannerStyle)

	title := htmlutil.NewElement("strong")
	title.AppendChild(htmlutil.NewText("WARNING - EECS AAGS Checker:"))
	banner.AppendChild(title)
	banner.AppendChild(htmlutil.NewText(" " + message))

	note := htmlutil.NewElement("span", "style", "margin-left:10px;color:#666;font-size:12px")
	note.AppendChild(htmlutil.NewText("This may be due to changes in the MIT EECS website."))
	banner.AppendChild(note)

	dismiss := htmlutil.NewElement(
		"button",
		"type", "button",
		"style", bannerDismissStyle,
		"onclick", "this.parentNode.remove()",
	)
	dismiss.AppendChild(htmlutil.NewText("Dismiss"))
	banner.AppendChild(dismiss)

	script := htmlutil.NewElement("script")
	script.AppendChild(htmlutil.NewText(bannerAutoDismiss))
	banner.AppendChild(script)

	body.PrependNodes(banner)
	return true
}
