package source

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlToText strips markup from feed and post bodies and collapses whitespace.
// Input that fails to parse is returned with whitespace collapsed.
func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	doc.Find("script, style, noscript").Remove()
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
