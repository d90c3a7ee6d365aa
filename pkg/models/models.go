package models

import "fmt"

// Collection names in the persisted store
const (
	CollectionSummaryPct = "summary_tables_pct"
	CollectionSummaryMg  = "summary_tables_mg"
	CollectionDetail     = "detail_data"
	CollectionClean      = "clean_scraped_data"
)

// Summary record field names
const (
	FieldLink         = "link"
	FieldName         = "name"
	FieldTHCTotal     = "thc_total"
	FieldCBDTotal     = "cbd_total"
	FieldTerpeneTotal = "terpene_total"
	FieldCompany      = "company"
	FieldType         = "type"
	FieldScraped      = "scraped"
	FieldSampleName   = "sample_name"
)

// IdentityExclusions returns the keys left out of a document's identity hash
// in the given collection. The scraped marker is crawl state, not content.
func IdentityExclusions(collection string) []string {
	switch collection {
	case CollectionSummaryPct, CollectionSummaryMg:
		return []string{FieldScraped}
	}
	return nil
}

// Unit is the measurement mode of a summary row
type Unit string

const (
	UnitPercent   Unit = "pct"
	UnitMilligram Unit = "mg"
)

// Units lists the unit modes in crawl order
var Units = []Unit{UnitPercent, UnitMilligram}

// Suffix returns the text suffix the catalog prints after values in this unit
func (u Unit) Suffix() string {
	if u == UnitMilligram {
		return "mg"
	}
	return "%"
}

// SummaryCollection returns the summary collection holding rows of this unit
func (u Unit) SummaryCollection() string {
	if u == UnitMilligram {
		return CollectionSummaryMg
	}
	return CollectionSummaryPct
}

// RawRecord is one catalog table row as read from the page
type RawRecord struct {
	Link         string `json:"link"`
	Name         string `json:"name"`
	THCTotal     string `json:"thc_total"`
	CBDTotal     string `json:"cbd_total"`
	TerpeneTotal string `json:"terpene_total"`
	Company      string `json:"company"`
	Type         string `json:"type"`
}

// SummaryRecord is a cleaned catalog row
type SummaryRecord struct {
	Link         string  `json:"link"`
	Name         string  `json:"name"`
	THCTotal     float64 `json:"thc_total"`
	CBDTotal     float64 `json:"cbd_total"`
	TerpeneTotal float64 `json:"terpene_total"`
	Company      string  `json:"company"`
	Type         string  `json:"type"`
	Scraped      bool    `json:"scraped"`
}

// Document converts the record to its stored form
func (r SummaryRecord) Document() *Document {
	d := NewDocument()
	d.Set(FieldLink, r.Link)
	d.Set(FieldName, r.Name)
	d.Set(FieldTHCTotal, r.THCTotal)
	d.Set(FieldCBDTotal, r.CBDTotal)
	d.Set(FieldTerpeneTotal, r.TerpeneTotal)
	d.Set(FieldCompany, r.Company)
	d.Set(FieldType, r.Type)
	d.Set(FieldScraped, r.Scraped)
	return d
}

// SummaryFromDocument reads a stored summary row. A missing scraped marker
// reads as false.
func SummaryFromDocument(d *Document) (SummaryRecord, error) {
	if d == nil {
		return SummaryRecord{}, fmt.Errorf("nil document")
	}
	link := d.GetString(FieldLink)
	if link == "" {
		return SummaryRecord{}, fmt.Errorf("summary document has no %s", FieldLink)
	}
	thc, _ := d.GetFloat(FieldTHCTotal)
	cbd, _ := d.GetFloat(FieldCBDTotal)
	terp, _ := d.GetFloat(FieldTerpeneTotal)
	return SummaryRecord{
		Link:         link,
		Name:         d.GetString(FieldName),
		THCTotal:     thc,
		CBDTotal:     cbd,
		TerpeneTotal: terp,
		Company:      d.GetString(FieldCompany),
		Type:         d.GetString(FieldType),
		Scraped:      d.GetBool(FieldScraped),
	}, nil
}
