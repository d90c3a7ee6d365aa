// Package measure splits catalog rows by measurement unit and turns their
// measurement strings into numbers.
package measure

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/law-makers/labscrape/internal/engine"
	"github.com/law-makers/labscrape/pkg/models"
)

// NotDetected is the lab marker for an analyte below the detection limit
const NotDetected = "ND"

// Partition splits raw records by the unit printed in thc_total. Records
// showing neither unit are returned as dropped.
func Partition(raws []models.RawRecord) (pct, mg, dropped []models.RawRecord) {
	for _, r := range raws {
		switch {
		case strings.Contains(r.THCTotal, models.UnitPercent.Suffix()):
			pct = append(pct, r)
		case strings.Contains(r.THCTotal, models.UnitMilligram.Suffix()):
			mg = append(mg, r)
		default:
			dropped = append(dropped, r)
		}
	}
	return pct, mg, dropped
}

// Value parses one measurement string in the given unit. Any residual
// containing ND is exactly zero; NaN and infinities are malformed.
func Value(raw string, unit models.Unit) (float64, error) {
	residual := strings.TrimSpace(strings.ReplaceAll(raw, unit.Suffix(), ""))
	if strings.Contains(residual, NotDetected) {
		return 0, nil
	}
	v, err := strconv.ParseFloat(residual, 64)
	if err != nil {
		return 0, engine.NewFault(engine.FaultMalformed, fmt.Sprintf("cannot parse %q as %s", raw, unit), err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, engine.NewFault(engine.FaultMalformed, fmt.Sprintf("%q is not a finite %s value", raw, unit), nil)
	}
	return v, nil
}

// Clean converts a raw record of the given unit into a summary record
func Clean(r models.RawRecord, unit models.Unit) (models.SummaryRecord, error) {
	rec := models.SummaryRecord{
		Link:    r.Link,
		Name:    r.Name,
		Company: r.Company,
		Type:    r.Type,
	}

	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{models.FieldTHCTotal, r.THCTotal, &rec.THCTotal},
		{models.FieldCBDTotal, r.CBDTotal, &rec.CBDTotal},
		{models.FieldTerpeneTotal, r.TerpeneTotal, &rec.TerpeneTotal},
	}
	for _, f := range fields {
		v, err := Value(f.raw, unit)
		if err != nil {
			var fault *engine.Fault
			if errors.As(err, &fault) {
				fault.WithDetail("link", r.Link).WithDetail("field", f.name)
			}
			return models.SummaryRecord{}, fmt.Errorf("%s %s: %w", r.Link, f.name, err)
		}
		*f.dst = v
	}
	return rec, nil
}

// CleanAll cleans every record. Records that fail are left out and their
// errors joined; the good records are still returned.
func CleanAll(raws []models.RawRecord, unit models.Unit) ([]models.SummaryRecord, error) {
	out := make([]models.SummaryRecord, 0, len(raws))
	var errs []error
	for _, r := range raws {
		rec, err := Clean(r, unit)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, rec)
	}
	return out, errors.Join(errs...)
}
