package engine

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher is the interface that all page fetching engines must implement.
// A Fetcher is held for a full pass and released with Close.
type Fetcher interface {
	// Fetch loads the page at url. Network and driver failures are returned
	// as transient faults.
	Fetch(ctx context.Context, url string) (Page, error)

	// Name returns the name of the fetcher implementation
	Name() string

	// Close releases the browser session or idle connections
	Close() error
}

// Page is a loaded page
type Page interface {
	// URL returns the address the page was loaded from
	URL() string

	// Status returns the HTTP status of the main document, 0 when unknown
	Status() int

	// Document returns a snapshot of the current DOM
	Document(ctx context.Context) (*goquery.Document, error)

	// Click activates the first element matching selector and refreshes the
	// page state
	Click(ctx context.Context, selector string) error
}
