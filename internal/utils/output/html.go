package output

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// keptAttrs survive cleaning on every element. Snapshots are read to find out
// which selector stopped matching, so ids and classes stay.
var keptAttrs = map[string]bool{
	"id":        true,
	"class":     true,
	"data-unit": true,
}

// CleanHTML removes scripts, styles and form controls, and strips attributes
// other than links, ids and classes
func CleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, link, meta, noscript, iframe, svg, input, select, textarea, canvas").Remove()

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		node := s.Nodes[0]
		var attrs []html.Attribute
		for _, attr := range node.Attr {
			if keptAttrs[attr.Key] || (node.Data == "a" && attr.Key == "href") {
				attrs = append(attrs, attr)
			}
		}
		node.Attr = attrs
	})

	htmlStr, err := doc.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(htmlStr), nil
}
