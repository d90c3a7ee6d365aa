package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/labscrape/internal/engine"
	urlutil "github.com/law-makers/labscrape/internal/utils/url"
	"github.com/law-makers/labscrape/pkg/models"
	"github.com/rs/zerolog/log"
)

// ExtractRows reads the catalog listing table. Each record is tagged with
// productType; links are resolved against baseURL. Rows without a link cell
// or with fewer than five cells are skipped.
func ExtractRows(doc *goquery.Document, baseURL, productType string) ([]models.RawRecord, error) {
	table := doc.Find(ResultTableSelector).First()
	if table.Length() == 0 {
		return nil, engine.NewFault(engine.FaultLayout, "result table missing", nil).
			WithDetail("url", baseURL).
			WithDetail("selector", ResultTableSelector)
	}

	rows := table.Find("tr")
	var records []models.RawRecord
	skipped := 0

	rows.Each(func(i int, row *goquery.Selection) {
		if i < catalogHeaderRows {
			return
		}
		rec, ok := extractRow(row, baseURL)
		if !ok {
			skipped++
			return
		}
		rec.Type = productType
		records = append(records, rec)
	})

	log.Debug().
		Str("type", productType).
		Int("rows", len(records)).
		Int("skipped", skipped).
		Msg("Catalog rows extracted")

	return records, nil
}

func extractRow(row *goquery.Selection, baseURL string) (models.RawRecord, bool) {
	cells := row.ChildrenFiltered("td")
	if cells.Length() < 5 {
		return models.RawRecord{}, false
	}

	anchor := cells.Eq(0).Find("a").First()
	href, ok := anchor.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return models.RawRecord{}, false
	}

	cellText := func(i int) string {
		return InnerText(cells.Eq(i))
	}

	return models.RawRecord{
		Link:         urlutil.ResolveURL(baseURL, href),
		Name:         InnerText(anchor),
		THCTotal:     cellText(1),
		CBDTotal:     cellText(2),
		TerpeneTotal: cellText(3),
		Company:      cellText(4),
	}, true
}
