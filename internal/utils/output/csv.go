package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/law-makers/labscrape/pkg/models"
)

// SaveCSV writes docs with one column per entry of columns. Missing and null
// values are empty cells.
func SaveCSV(path string, columns []string, docs []*models.Document) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, d := range docs {
		for i, col := range columns {
			row[i] = cell(d, col)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func cell(d *models.Document, key string) string {
	v, ok := d.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
