package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/law-makers/labscrape/internal/store/storetest"
)

// Set LABSCRAPE_TEST_POSTGRES to a DSN of a disposable database to run these
func TestStoreContract(t *testing.T) {
	dsn := os.Getenv("LABSCRAPE_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("LABSCRAPE_TEST_POSTGRES not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.db.Exec(ctx, `TRUNCATE documents`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	t.Logf("running against %s", s.Backend())
	storetest.Run(t, s)
}
