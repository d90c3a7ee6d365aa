package transfer

import (
	"context"
	"testing"

	"github.com/law-makers/labscrape/internal/store/sqlite"
	"github.com/law-makers/labscrape/pkg/models"
)

func doc(link string, scraped bool) *models.Document {
	return models.SummaryRecord{Link: link, Name: link, THCTotal: 1, Type: "flower", Scraped: scraped}.Document()
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	local := sqlite.OpenMemory(t)
	remote := sqlite.OpenMemory(t)

	local.Collection(models.CollectionSummaryPct).InsertMany(ctx, []*models.Document{doc("a", false), doc("b", true)})
	d := models.NewDocument()
	d.Set(models.FieldSampleName, "Blue Dream")
	local.Collection(models.CollectionDetail).InsertOne(ctx, d)

	// already on the remote side
	remote.Collection(models.CollectionSummaryPct).InsertOne(ctx, doc("a", false))

	results, err := Copy(ctx, local, remote, Options{})
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 collections, got %+v", results)
	}

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Collection] = r
	}
	if r := byName[models.CollectionSummaryPct]; r.Read != 2 || r.Inserted != 1 || r.Existing != 1 {
		t.Errorf("Unexpected summary result %+v", r)
	}
	if r := byName[models.CollectionDetail]; r.Inserted != 1 {
		t.Errorf("Unexpected detail result %+v", r)
	}

	// a second copy finds everything in place
	results, err = Copy(ctx, local, remote, Options{Collections: []string{models.CollectionSummaryPct}})
	if err != nil {
		t.Fatalf("second Copy: %v", err)
	}
	if len(results) != 1 || results[0].Inserted != 0 || results[0].Existing != 2 {
		t.Errorf("Expected no inserts on second copy, got %+v", results)
	}

	n, _ := remote.Collection(models.CollectionSummaryPct).Count(ctx)
	if n != 2 {
		t.Errorf("Expected 2 remote rows, got %d", n)
	}
}

func TestCopy_Cancelled(t *testing.T) {
	local := sqlite.OpenMemory(t)
	remote := sqlite.OpenMemory(t)
	local.Collection(models.CollectionSummaryPct).InsertOne(context.Background(), doc("a", false))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Copy(ctx, local, remote, Options{Collections: []string{models.CollectionSummaryPct}}); err == nil {
		t.Error("Expected error on cancelled context")
	}
}
