package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/labscrape/internal/engine"
	"github.com/law-makers/labscrape/pkg/models"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

const catalogPage = `<html><body>
<table id="resultTable">
  <tr><th>Name</th><th>THC</th><th>CBD</th><th>Terpenes</th><th>Lab</th></tr>
  <tr><th>Name</th><th>THC</th><th>CBD</th><th>Terpenes</th><th>Lab</th></tr>
  <tr>
    <td><a href="/m/archived/101">Blue Dream</a></td>
    <td>ND%</td><td>1.0%</td><td>2.5%</td><td>Acme Labs</td>
  </tr>
  <tr>
    <td><a href="https://analytical360.com/m/archived/102">Gummy   Bears</a></td>
    <td>10mg</td><td>ND mg</td><td>0.5mg</td><td>Other Lab</td>
  </tr>
  <tr><td>no link</td><td>1%</td><td>1%</td><td>1%</td><td>X</td></tr>
  <tr><td><a href="/m/archived/103">short</a></td><td>1%</td></tr>
</table>
</body></html>`

func TestExtractRows(t *testing.T) {
	doc := mustDoc(t, catalogPage)

	rows, err := ExtractRows(doc, "https://analytical360.com/testresults?tab=Flower", "flower")
	if err != nil {
		t.Fatalf("ExtractRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d: %+v", len(rows), rows)
	}

	first := rows[0]
	if first.Link != "https://analytical360.com/m/archived/101" {
		t.Errorf("Expected resolved link, got %s", first.Link)
	}
	if first.Name != "Blue Dream" || first.THCTotal != "ND%" || first.CBDTotal != "1.0%" ||
		first.TerpeneTotal != "2.5%" || first.Company != "Acme Labs" || first.Type != "flower" {
		t.Errorf("Unexpected first row: %+v", first)
	}
	if rows[1].Name != "Gummy Bears" {
		t.Errorf("Expected collapsed whitespace in name, got %q", rows[1].Name)
	}
}

func TestExtractRows_MissingTable(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>maintenance</p></body></html>`)

	_, err := ExtractRows(doc, "https://analytical360.com/testresults", "flower")
	if !errors.Is(err, engine.ErrLayout) {
		t.Errorf("Expected layout fault, got %v", err)
	}
}

func TestInnerText(t *testing.T) {
	doc := mustDoc(t, `<div id="s">
		<p>Sample ID:   A-1</p>
		<span>Lab:</span> <b>Acme</b><br>Batch: 7
		<table><tr><td>Total THC:</td><td>20.1%</td></tr><tr><td>Blank</td><td></td></tr></table>
		<script>var x = "Hidden: yes";</script>
	</div>`)

	got := InnerText(doc.Find("#s"))
	want := "Sample ID: A-1\nLab: Acme\nBatch: 7\nTotal THC: 20.1%\nBlank"
	if got != want {
		t.Errorf("InnerText mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestParsePairs(t *testing.T) {
	d := ParsePairs("Total THC: 20.1%\nnot a pair\nEmpty:\nTHC-A: ND\nRatio: 1:2: x")

	if d.Len() != 3 {
		t.Fatalf("Expected 3 pairs, got %d (%s)", d.Len(), d)
	}
	if d.GetString("total thc") != "20.1%" {
		t.Errorf("Expected lower-cased key, got %s", d)
	}
	if d.GetString("thc-a") != "ND" {
		t.Errorf("Expected ND value, got %q", d.GetString("thc-a"))
	}
	if d.GetString("ratio") != "1:2: x" {
		t.Errorf("Expected split on first separator only, got %q", d.GetString("ratio"))
	}
}

const detailPage = `<html><head><title>Blue Dream | Results</title></head><body>
<h1 id="sample-name">Blue Dream</h1>
<a id="unit-toggle" data-unit="pct" href="?unit=mg">Show mg</a>
<div id="sample-details"><p>Sample ID: 101</p><p>Test Date: 2017-01-01</p></div>
<table id="summary-table"><tr><td>Total THC</td><td>20.1%</td></tr></table>
<div id="potency-table"></div>
</body></html>`

func TestSampleName(t *testing.T) {
	found := SampleName(mustDoc(t, detailPage))
	if found.State != Found || found.Value != "Blue Dream" {
		t.Errorf("Expected Found(Blue Dream), got %+v", found)
	}

	missing := SampleName(mustDoc(t, `<html><body><div class="page-not-found">Nope</div></body></html>`))
	if missing.State != NotFound {
		t.Errorf("Expected NotFound, got %v", missing.State)
	}

	byTitle := SampleName(mustDoc(t, `<html><head><title>Page Not Found</title></head><body></body></html>`))
	if byTitle.State != NotFound {
		t.Errorf("Expected NotFound from title, got %v", byTitle.State)
	}

	broken := SampleName(mustDoc(t, `<html><body><h2>Redesigned</h2></body></html>`))
	if broken.State != LayoutFault {
		t.Errorf("Expected LayoutFault, got %v", broken.State)
	}
}

func TestSectionsAndUnit(t *testing.T) {
	doc := mustDoc(t, detailPage)

	header := Section(doc, HeaderSelector)
	if header.GetString("sample id") != "101" || header.GetString("test date") != "2017-01-01" {
		t.Errorf("Unexpected header section: %s", header)
	}
	summary := Section(doc, SummarySelector)
	if summary.GetString("total thc") != "20.1%" {
		t.Errorf("Unexpected summary section: %s", summary)
	}
	if Section(doc, PotencySelector).Len() != 0 {
		t.Error("Expected empty potency section")
	}
	if Section(doc, TerpeneSelector).Len() != 0 {
		t.Error("Expected missing terpene section to be empty")
	}

	if u := DisplayUnit(doc); u != models.UnitPercent {
		t.Errorf("Expected pct display unit, got %q", u)
	}
	if u := DisplayUnit(mustDoc(t, `<html></html>`)); u != "" {
		t.Errorf("Expected no unit without toggle, got %q", u)
	}
}
