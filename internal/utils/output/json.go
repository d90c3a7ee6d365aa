package output

import (
	"encoding/json"
	"os"

	"github.com/law-makers/labscrape/pkg/models"
)

// SaveJSON writes docs as an indented JSON array, keeping each document's
// key order
func SaveJSON(path string, docs []*models.Document) error {
	if docs == nil {
		docs = []*models.Document{}
	}
	content, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(content, '\n'), 0644)
}
