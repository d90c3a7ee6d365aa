package detail

import (
	"math"
	"strconv"
	"strings"

	"github.com/law-makers/labscrape/internal/measure"
	"github.com/law-makers/labscrape/pkg/models"
)

// Normalize rewrites the values of a merged detail record: ND becomes 0,
// percentages become numbers, and dots in keys become commas. Key order is
// kept; a renamed key that collides with an existing one overwrites it.
func Normalize(d *models.Document) *models.Document {
	out := models.NewDocument()
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		out.Set(normalizeKey(k), normalizeValue(v))
	}
	return out
}

func normalizeKey(k string) string {
	return strings.ReplaceAll(k, ".", ",")
}

func normalizeValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == measure.NotDetected {
		return 0.0
	}
	if strings.HasSuffix(trimmed, "%") {
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(trimmed, "%")), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return s
}
