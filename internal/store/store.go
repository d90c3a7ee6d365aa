// Package store defines the document store used by every pass. Documents
// live in named collections and are keyed by a content hash, so inserting a
// document that is already present is a no-op.
package store

import (
	"context"
	"errors"

	"github.com/law-makers/labscrape/pkg/models"
)

// ErrNotFound is returned by FindOne when nothing matches
var ErrNotFound = errors.New("document not found")

// Entry is a stored document with its store-assigned id
type Entry struct {
	ID  int64
	Doc *models.Document
}

// Filter selects documents. A nil Filter matches everything.
type Filter func(d *models.Document) bool

// Collection is a named set of documents
type Collection interface {
	Name() string

	// Find returns matching documents in insertion order
	Find(ctx context.Context, filter Filter) ([]Entry, error)

	// FindOne returns the first match or ErrNotFound
	FindOne(ctx context.Context, filter Filter) (Entry, error)

	// Contains reports whether a document with the same identity is stored
	Contains(ctx context.Context, doc *models.Document) (bool, error)

	// InsertOne stores doc unless an identical document exists
	InsertOne(ctx context.Context, doc *models.Document) (inserted bool, id int64, err error)

	// InsertMany stores every document not already present in a single
	// transaction and returns how many were written
	InsertMany(ctx context.Context, docs []*models.Document) (int, error)

	// UpdateOne merges patch into the document with the given id
	UpdateOne(ctx context.Context, id int64, patch *models.Document) error

	Count(ctx context.Context) (int64, error)
}

// Store hands out collections over one connection
type Store interface {
	Collection(name string) Collection
	Collections(ctx context.Context) ([]string, error)
	Backend() string
	Close() error
}

// IdentityHash is the dedup key of doc within collection
func IdentityHash(collection string, doc *models.Document) string {
	return doc.Hash(models.IdentityExclusions(collection)...)
}

// Match applies filter, treating nil as match-all
func Match(filter Filter, doc *models.Document) bool {
	return filter == nil || filter(doc)
}

// All matches every document
func All() Filter {
	return nil
}

// Eq matches documents whose key holds a value equal to value
func Eq(key string, value any) Filter {
	return func(d *models.Document) bool {
		v, ok := d.Get(key)
		if !ok {
			return false
		}
		if f, isNum := toFloat(value); isNum {
			g, ok := d.GetFloat(key)
			return ok && f == g
		}
		return v == value
	}
}

// NotTrue matches documents where key is absent or anything but true
func NotTrue(key string) Filter {
	return func(d *models.Document) bool {
		return !d.GetBool(key)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}
