// Package sqlite is the default store backend: a single SQLite file opened
// with WAL and a busy timeout, one row per document.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/law-makers/labscrape/internal/store"
	"github.com/law-makers/labscrape/pkg/models"
	_ "modernc.org/sqlite"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=10000",
	"PRAGMA synchronous=NORMAL",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL,
		hash       TEXT NOT NULL,
		body       TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (collection, hash)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection, id)`,
}

// Store is a SQLite-backed store.Store
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: mkdir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenMemory opens an in-memory store for tests. All queries share one
// connection, since each connection to ":memory:" is a separate database.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sqlite: open memory: %v", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: ":memory:"}
	if err := s.init(); err != nil {
		db.Close()
		t.Fatalf("sqlite: init memory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return s
}

func (s *Store) init() error {
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: schema: %w", err)
		}
	}
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Collection returns the named collection
func (s *Store) Collection(name string) store.Collection {
	return &collection{db: s.db, name: name}
}

// Collections lists collections holding at least one document
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) Backend() string { return "sqlite:" + s.path }

func (s *Store) Close() error {
	return s.db.Close()
}

type collection struct {
	db   *sql.DB
	name string
}

func (c *collection) Name() string { return c.name }

func (c *collection) Find(ctx context.Context, filter store.Filter) ([]store.Entry, error) {
	var out []store.Entry
	err := c.scan(ctx, func(e store.Entry) bool {
		if store.Match(filter, e.Doc) {
			out = append(out, e)
		}
		return true
	})
	return out, err
}

func (c *collection) FindOne(ctx context.Context, filter store.Filter) (store.Entry, error) {
	var found *store.Entry
	err := c.scan(ctx, func(e store.Entry) bool {
		if store.Match(filter, e.Doc) {
			found = &e
			return false
		}
		return true
	})
	if err != nil {
		return store.Entry{}, err
	}
	if found == nil {
		return store.Entry{}, store.ErrNotFound
	}
	return *found, nil
}

// scan walks the collection in id order until fn returns false
func (c *collection) scan(ctx context.Context, fn func(store.Entry) bool) error {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE collection = ? ORDER BY id`, c.name)
	if err != nil {
		return fmt.Errorf("sqlite: find in %s: %w", c.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var body string
		if err := rows.Scan(&id, &body); err != nil {
			return fmt.Errorf("sqlite: scan %s: %w", c.name, err)
		}
		doc := models.NewDocument()
		if err := json.Unmarshal([]byte(body), doc); err != nil {
			return fmt.Errorf("sqlite: decode %s/%d: %w", c.name, id, err)
		}
		if !fn(store.Entry{ID: id, Doc: doc}) {
			break
		}
	}
	return rows.Err()
}

func (c *collection) Contains(ctx context.Context, doc *models.Document) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE collection = ? AND hash = ? LIMIT 1`,
		c.name, store.IdentityHash(c.name, doc)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: contains in %s: %w", c.name, err)
	}
	return true, nil
}

const insertSQL = `INSERT INTO documents (collection, hash, body) VALUES (?, ?, ?)
	ON CONFLICT (collection, hash) DO NOTHING`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (c *collection) insert(ctx context.Context, ex execer, doc *models.Document) (bool, int64, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return false, 0, fmt.Errorf("sqlite: encode: %w", err)
	}
	res, err := ex.ExecContext(ctx, insertSQL, c.name, store.IdentityHash(c.name, doc), string(body))
	if err != nil {
		return false, 0, fmt.Errorf("sqlite: insert into %s: %w", c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false, 0, err
	}
	id, err := res.LastInsertId()
	return true, id, err
}

func (c *collection) InsertOne(ctx context.Context, doc *models.Document) (bool, int64, error) {
	return c.insert(ctx, c.db, doc)
}

func (c *collection) InsertMany(ctx context.Context, docs []*models.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, doc := range docs {
		ok, _, err := c.insert(ctx, tx, doc)
		if err != nil {
			return 0, err
		}
		if ok {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

func (c *collection) UpdateOne(ctx context.Context, id int64, patch *models.Document) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, c.name, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%d: %w", c.name, id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("sqlite: load %s/%d: %w", c.name, id, err)
	}

	doc := models.NewDocument()
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		return fmt.Errorf("sqlite: decode %s/%d: %w", c.name, id, err)
	}
	doc.Merge(patch)

	updated, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("sqlite: encode: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ?, hash = ? WHERE id = ?`,
		string(updated), store.IdentityHash(c.name, doc), id); err != nil {
		return fmt.Errorf("sqlite: update %s/%d: %w", c.name, id, err)
	}

	return tx.Commit()
}

func (c *collection) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count %s: %w", c.name, err)
	}
	return n, nil
}
