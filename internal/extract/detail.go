package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/labscrape/pkg/models"
)

// LookupState tags the outcome of looking up a required element
type LookupState int

const (
	// Found: the element exists and has text
	Found LookupState = iota
	// NotFound: the element is absent and the page says so
	NotFound
	// LayoutFault: the element is absent and nothing explains why
	LayoutFault
)

func (s LookupState) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "layout_fault"
	}
}

// Lookup is the result of reading a required element
type Lookup struct {
	State LookupState
	Value string
}

// SampleName reads the sample name heading of a detail page
func SampleName(doc *goquery.Document) Lookup {
	if name := InnerText(doc.Find(SampleNameSelector).First()); name != "" {
		return Lookup{State: Found, Value: name}
	}
	if IsNotFound(doc) {
		return Lookup{State: NotFound}
	}
	return Lookup{State: LayoutFault}
}

// IsNotFound reports whether the page carries the site's not-found marker
func IsNotFound(doc *goquery.Document) bool {
	if doc.Find(NotFoundSelector).Length() > 0 {
		return true
	}
	title := strings.ToLower(doc.Find("title").First().Text())
	return strings.Contains(title, "page not found") || strings.Contains(title, "404")
}

// DisplayUnit returns the unit the page currently shows, or "" when the page
// has no unit toggle
func DisplayUnit(doc *goquery.Document) models.Unit {
	v, ok := doc.Find(UnitToggleSelector).First().Attr(unitAttr)
	if !ok {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "mg":
		return models.UnitMilligram
	case "pct", "%", "percent":
		return models.UnitPercent
	}
	return ""
}

// Section reads the key/value pairs of the section matched by selector.
// A missing section yields an empty document.
func Section(doc *goquery.Document, selector string) *models.Document {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return models.NewDocument()
	}
	return ParsePairs(InnerText(sel))
}

// ParsePairs splits text into lines of "key: value". Keys are lower-cased and
// split on the first ": "; lines without the separator are skipped.
func ParsePairs(text string) *models.Document {
	d := models.NewDocument()
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		d.Set(key, strings.TrimSpace(value))
	}
	return d
}

// Has reports whether selector matches anything on the page
func Has(doc *goquery.Document, selector string) bool {
	return doc.Find(selector).Length() > 0
}
