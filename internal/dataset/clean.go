package dataset

import (
	"github.com/law-makers/labscrape/pkg/models"
)

// GateField must hold a number for a detail record to enter the clean set
const GateField = "total terpenes"

// NumericFields is the ordered list of measurement columns of a clean record
var NumericFields = []string{
	"total thc",
	"thc-a",
	"delta-9 thc",
	"thcv",
	"total cbd",
	"cbd-a",
	"cbd",
	"cbn",
	"cbg",
	"cbc",
	GateField,
	"alpha-pinene",
	"beta-pinene",
	"myrcene",
	"limonene",
	"linalool",
	"terpinolene",
	"ocimene",
	"beta-caryophyllene",
	"alpha-humulene",
	"caryophyllene oxide",
	"bisabolol",
}

// Columns returns the clean schema in order
func Columns() []string {
	return append([]string{models.FieldName, models.FieldType}, NumericFields...)
}

// Project maps a detail record to the clean schema under name. Numeric fields
// that are missing or not numbers are null. ok is false when the gate field
// is null.
func Project(d *models.Document, name string) (*models.Document, bool) {
	out := models.NewDocument()
	out.Set(models.FieldName, name)
	out.Set(models.FieldType, d.GetString(models.FieldType))

	gated := false
	for _, f := range NumericFields {
		v, ok := d.GetFloat(f)
		if !ok {
			out.Set(f, nil)
			continue
		}
		out.Set(f, v)
		if f == GateField {
			gated = true
		}
	}
	return out, gated
}
