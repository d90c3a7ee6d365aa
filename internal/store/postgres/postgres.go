// Package postgres stores documents as JSONB rows. JSONB does not keep key
// order, so documents read back from this backend list their keys sorted.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/law-makers/labscrape/internal/store"
	"github.com/law-makers/labscrape/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         BIGSERIAL PRIMARY KEY,
	collection TEXT NOT NULL,
	hash       TEXT NOT NULL,
	body       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (collection, hash)
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection, id);
`

// Store is a PostgreSQL-backed store.Store
type Store struct {
	db  *pgxpool.Pool
	dsn string
}

// Open connects to the database and creates the documents table
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := db.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: schema: %w", err)
	}
	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{db: s.db, name: name}
}

func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list collections: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: list collections: %w", err)
	}
	return names, nil
}

// Backend names the backend without credentials
func (s *Store) Backend() string {
	cfg := s.db.Config().ConnConfig
	return fmt.Sprintf("postgres:%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

type collection struct {
	db   *pgxpool.Pool
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

func (c *collection) scan(ctx context.Context, fn func(store.Entry) bool) error {
	rows, err := c.db.Query(ctx,
		`SELECT id, body FROM documents WHERE collection = $1 ORDER BY id`, c.name)
	if err != nil {
		return fmt.Errorf("postgres: find in %s: %w", c.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return fmt.Errorf("postgres: scan %s: %w", c.name, err)
		}
		doc := models.NewDocument()
		if err := json.Unmarshal(body, doc); err != nil {
			return fmt.Errorf("postgres: decode %s/%d: %w", c.name, id, err)
		}
		if !fn(store.Entry{ID: id, Doc: doc}) {
			break
		}
	}
	return rows.Err()
}

func (c *collection) Contains(ctx context.Context, doc *models.Document) (bool, error) {
	var exists bool
	err := c.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND hash = $2)`,
		c.name, store.IdentityHash(c.name, doc)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: contains in %s: %w", c.name, err)
	}
	return exists, nil
}

const insertSQL = `INSERT INTO documents (collection, hash, body) VALUES ($1, $2, $3)
	ON CONFLICT (collection, hash) DO NOTHING
	RETURNING id`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (c *collection) insert(ctx context.Context, q querier, doc *models.Document) (bool, int64, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return false, 0, fmt.Errorf("postgres: encode: %w", err)
	}
	var id int64
	err = q.QueryRow(ctx, insertSQL, c.name, store.IdentityHash(c.name, doc), string(body)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("postgres: insert into %s: %w", c.name, err)
	}
	return true, id, nil
}

func (c *collection) InsertOne(ctx context.Context, doc *models.Document) (bool, int64, error) {
	return c.insert(ctx, c.db, doc)
}

func (c *collection) InsertMany(ctx context.Context, docs []*models.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	inserted := 0
	err := pgx.BeginFunc(ctx, c.db, func(tx pgx.Tx) error {
		for _, doc := range docs {
			ok, _, err := c.insert(ctx, tx, doc)
			if err != nil {
				return err
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (c *collection) UpdateOne(ctx context.Context, id int64, patch *models.Document) error {
	return pgx.BeginFunc(ctx, c.db, func(tx pgx.Tx) error {
		var body []byte
		err := tx.QueryRow(ctx,
			`SELECT body FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
			c.name, id).Scan(&body)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s/%d: %w", c.name, id, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("postgres: load %s/%d: %w", c.name, id, err)
		}

		doc := models.NewDocument()
		if err := json.Unmarshal(body, doc); err != nil {
			return fmt.Errorf("postgres: decode %s/%d: %w", c.name, id, err)
		}
		doc.Merge(patch)

		updated, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("postgres: encode: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE documents SET body = $1, hash = $2 WHERE id = $3`,
			string(updated), store.IdentityHash(c.name, doc), id)
		if err != nil {
			return fmt.Errorf("postgres: update %s/%d: %w", c.name, id, err)
		}
		return nil
	})
}

func (c *collection) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = $1`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count %s: %w", c.name, err)
	}
	return n, nil
}
