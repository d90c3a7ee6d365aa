package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// InnerText renders the visible text of sel roughly the way a browser's
// innerText does: block elements and <br> start new lines, table rows become
// one line with their cells joined by ": ", and runs of whitespace collapse.
func InnerText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		render(&b, n)
	}
	return normalizeLines(b.String())
}

func render(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.DocumentNode:
		renderChildren(b, n)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
		return
	case atom.Br:
		b.WriteString("\n")
		return
	case atom.Tr:
		b.WriteString("\n")
		b.WriteString(rowText(n))
		b.WriteString("\n")
		return
	}

	block := isBlock(n.DataAtom)
	if block {
		b.WriteString("\n")
	}
	renderChildren(b, n)
	if block {
		b.WriteString("\n")
	}
}

func renderChildren(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(b, c)
	}
}

// rowText flattens a table row into a single line
func rowText(tr *html.Node) string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		var b strings.Builder
		renderChildren(&b, c)
		text := strings.Join(strings.Fields(b.String()), " ")
		if text != "" {
			cells = append(cells, text)
		}
	}
	for i := 0; i < len(cells)-1; i++ {
		cells[i] = strings.TrimSpace(strings.TrimSuffix(cells[i], ":"))
	}
	return strings.Join(cells, ": ")
}

func normalizeLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Dd, atom.Div,
		atom.Dl, atom.Dt, atom.Fieldset, atom.Figure, atom.Footer, atom.Form,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Header,
		atom.Hr, atom.Li, atom.Main, atom.Nav, atom.Ol, atom.P, atom.Pre,
		atom.Section, atom.Table, atom.Tbody, atom.Thead, atom.Tfoot, atom.Ul,
		atom.Caption:
		return true
	}
	return false
}
