package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/law-makers/labscrape/internal/store/storetest"
	"github.com/law-makers/labscrape/pkg/models"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, OpenMemory(t))
}

func TestOpen_PersistsAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "labscrape.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d := models.NewDocument()
	d.Set("name", "Blue Dream")
	if _, _, err := s.Collection(models.CollectionClean).InsertOne(ctx, d); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	n, err := s.Collection(models.CollectionClean).Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Expected 1 document after reopen, got %d (%v)", n, err)
	}
	if s.Backend() != "sqlite:"+path {
		t.Errorf("Unexpected backend %s", s.Backend())
	}
}

func TestDocumentOrderSurvivesRoundTrip(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()
	c := s.Collection(models.CollectionDetail)

	d := models.NewDocument()
	d.Set("sample_name", "A")
	d.Set("type", "flower")
	d.Set("link", "https://x")
	d.Set("total thc", 20.0)
	c.InsertOne(ctx, d)

	e, err := c.FindOne(ctx, nil)
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	keys := e.Doc.Keys()
	want := []string{"sample_name", "type", "link", "total thc"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Expected key order %v, got %v", want, keys)
		}
	}
}
