// Package storetest holds behaviour checks shared by every store backend
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/law-makers/labscrape/internal/store"
	"github.com/law-makers/labscrape/pkg/models"
)

func summaryDoc(link string, scraped bool) *models.Document {
	return models.SummaryRecord{
		Link:     link,
		Name:     "Sample " + link,
		THCTotal: 20.5,
		Company:  "Lab",
		Type:     "flower",
		Scraped:  scraped,
	}.Document()
}

// Run exercises s against the store.Collection contract
func Run(t *testing.T, s store.Store) {
	t.Run("InsertIfAbsent", func(t *testing.T) { testInsertIfAbsent(t, s) })
	t.Run("InsertMany", func(t *testing.T) { testInsertMany(t, s) })
	t.Run("FindAndFilters", func(t *testing.T) { testFind(t, s) })
	t.Run("UpdateOne", func(t *testing.T) { testUpdateOne(t, s) })
	t.Run("Collections", func(t *testing.T) { testCollections(t, s) })
}

func testInsertIfAbsent(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := s.Collection("t_insert_one")

	d := models.NewDocument()
	d.Set("sample_name", "Blue Dream")
	d.Set("total thc", 20.1)

	ok, id, err := c.InsertOne(ctx, d)
	if err != nil || !ok || id == 0 {
		t.Fatalf("first insert: ok=%v id=%d err=%v", ok, id, err)
	}

	// same pairs in another order are the same document
	twin := models.NewDocument()
	twin.Set("total thc", 20.1)
	twin.Set("sample_name", "Blue Dream")

	ok, _, err = c.InsertOne(ctx, twin)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if ok {
		t.Error("Expected identical document not to be inserted twice")
	}

	if has, _ := c.Contains(ctx, twin); !has {
		t.Error("Expected Contains to find the stored document")
	}
	if n, _ := c.Count(ctx); n != 1 {
		t.Errorf("Expected 1 document, got %d", n)
	}
}

func testInsertMany(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := s.Collection(models.CollectionSummaryPct + "_many")

	docs := []*models.Document{summaryDoc("a", false), summaryDoc("b", false), summaryDoc("a", false)}
	n, err := c.InsertMany(ctx, docs)
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected duplicates in one batch to collapse, inserted %d", n)
	}

	n, err = c.InsertMany(ctx, docs)
	if err != nil {
		t.Fatalf("InsertMany again: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected second InsertMany to write nothing, wrote %d", n)
	}

	if n, err := c.InsertMany(ctx, nil); err != nil || n != 0 {
		t.Errorf("Expected empty InsertMany to be a no-op, got %d, %v", n, err)
	}
}

func testFind(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := s.Collection("t_find")

	for _, link := range []string{"x", "y", "z"} {
		if _, _, err := c.InsertOne(ctx, summaryDoc(link, link == "y")); err != nil {
			t.Fatalf("insert %s: %v", link, err)
		}
	}
	legacy := models.NewDocument()
	legacy.Set(models.FieldLink, "w")
	c.InsertOne(ctx, legacy)

	all, err := c.Find(ctx, store.All())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(all) != 4 || all[0].Doc.GetString(models.FieldLink) != "x" {
		t.Errorf("Expected 4 documents in insertion order, got %d", len(all))
	}

	pending, _ := c.Find(ctx, store.NotTrue(models.FieldScraped))
	if len(pending) != 3 {
		t.Errorf("Expected 3 pending (false or absent), got %d", len(pending))
	}

	e, err := c.FindOne(ctx, store.Eq(models.FieldLink, "z"))
	if err != nil || e.Doc.GetString(models.FieldName) != "Sample z" {
		t.Errorf("FindOne by link: %v %v", e.Doc, err)
	}
	if _, err := c.FindOne(ctx, store.Eq(models.FieldTHCTotal, 20.5)); err != nil {
		t.Errorf("FindOne by number: %v", err)
	}

	if _, err := c.FindOne(ctx, store.Eq(models.FieldLink, "missing")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func testUpdateOne(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := s.Collection(models.CollectionSummaryMg)

	_, id, err := c.InsertOne(ctx, summaryDoc("u", false))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	patch := models.NewDocument()
	patch.Set(models.FieldScraped, true)
	if err := c.UpdateOne(ctx, id, patch); err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}

	e, err := c.FindOne(ctx, store.Eq(models.FieldLink, "u"))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if !e.Doc.GetBool(models.FieldScraped) {
		t.Error("Expected scraped=true after update")
	}
	if e.Doc.GetString(models.FieldName) != "Sample u" {
		t.Error("Expected other fields to survive the patch")
	}

	// the scraped marker is not part of a summary row's identity
	ok, _, err := c.InsertOne(ctx, summaryDoc("u", false))
	if err != nil || ok {
		t.Errorf("Expected fresh twin of a scraped row to be recognised, ok=%v err=%v", ok, err)
	}

	if err := c.UpdateOne(ctx, id+1000, patch); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown id, got %v", err)
	}
}

func testCollections(t *testing.T, s store.Store) {
	names, err := s.Collections(context.Background())
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	found := false
	for _, n := range names {
		if n == "t_find" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected t_find among %v", names)
	}
}
