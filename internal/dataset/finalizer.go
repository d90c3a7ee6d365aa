// Package dataset turns the detail records into the published clean dataset.
package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/law-makers/labscrape/internal/metrics"
	"github.com/law-makers/labscrape/internal/reqctx"
	"github.com/law-makers/labscrape/internal/store"
	"github.com/law-makers/labscrape/internal/utils/output"
	"github.com/law-makers/labscrape/pkg/models"
)

// DefaultSeed seeds name repair when none is given
const DefaultSeed uint64 = 42

// Report counts what a finalizer run did
type Report struct {
	Detail   int
	Repaired int
	Dropped  int
	Fresh    int
	Inserted int
	Existing int
}

// Finalizer rebuilds the clean dataset from detail_data
type Finalizer struct {
	store   store.Store
	metrics *metrics.Metrics
	seed    uint64
}

// NewFinalizer creates a Finalizer. m may be nil.
func NewFinalizer(st store.Store, m *metrics.Metrics, seed uint64) *Finalizer {
	return &Finalizer{store: st, metrics: m, seed: seed}
}

// Build derives clean records from every stored detail record. It does not
// write anything.
func (f *Finalizer) Build(ctx context.Context) ([]*models.Document, Report, error) {
	var rep Report

	entries, err := f.store.Collection(models.CollectionDetail).Find(ctx, store.All())
	if err != nil {
		return nil, rep, fmt.Errorf("read %s: %w", models.CollectionDetail, err)
	}
	rep.Detail = len(entries)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Doc.GetString(models.FieldSampleName)
	}
	repaired, n := RepairNames(names, f.seed)
	rep.Repaired = n

	clean := make([]*models.Document, 0, len(entries))
	for i, e := range entries {
		doc, ok := Project(e.Doc, repaired[i])
		if !ok {
			rep.Dropped++
			continue
		}
		clean = append(clean, doc)
	}
	rep.Fresh = len(clean)
	return clean, rep, nil
}

// Run builds the clean records and inserts those not already stored
func (f *Finalizer) Run(ctx context.Context) (Report, error) {
	logger := reqctx.Logger(ctx)

	clean, rep, err := f.Build(ctx)
	if err != nil {
		return rep, reqctx.NewRunError(ctx, err)
	}

	coll := f.store.Collection(models.CollectionClean)
	stored, err := coll.Count(ctx)
	if err != nil {
		return rep, reqctx.NewRunError(ctx, fmt.Errorf("count %s: %w", coll.Name(), err))
	}

	seen := make(map[string]bool, len(clean))
	var candidates []*models.Document
	for _, d := range clean {
		h := store.IdentityHash(coll.Name(), d)
		if seen[h] {
			rep.Existing++
			continue
		}
		seen[h] = true

		if stored > 0 {
			exists, err := coll.Contains(ctx, d)
			if err != nil {
				return rep, reqctx.NewRunError(ctx, fmt.Errorf("lookup in %s: %w", coll.Name(), err))
			}
			if exists {
				rep.Existing++
				continue
			}
		}
		candidates = append(candidates, d)
	}

	if len(candidates) > 0 {
		rep.Inserted, err = coll.InsertMany(ctx, candidates)
		if err != nil {
			return rep, reqctx.NewRunError(ctx, fmt.Errorf("insert into %s: %w", coll.Name(), err))
		}
	}

	total, err := coll.Count(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("collection", coll.Name()).Msg("Failed to count clean rows")
	} else {
		f.metrics.SetCleanRows(int(total))
	}
	f.metrics.PassCompleted("clean")

	logger.Info().
		Int("detail", rep.Detail).
		Int("repaired", rep.Repaired).
		Int("dropped", rep.Dropped).
		Int("inserted", rep.Inserted).
		Int("existing", rep.Existing).
		Bool("fast_path", stored == 0).
		Msg("Clean dataset updated")

	return rep, nil
}

// Export writes the clean collection to path. The format follows the file
// extension, .csv or .json.
func Export(ctx context.Context, st store.Store, path string) (int, error) {
	entries, err := st.Collection(models.CollectionClean).Find(ctx, store.All())
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", models.CollectionClean, err)
	}
	docs := make([]*models.Document, len(entries))
	for i, e := range entries {
		docs[i] = e.Doc
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = output.SaveCSV(path, Columns(), docs)
	case ".json":
		err = output.SaveJSON(path, docs)
	default:
		return 0, fmt.Errorf("unsupported export format %q, use .csv or .json", filepath.Ext(path))
	}
	if err != nil {
		return 0, fmt.Errorf("export to %s: %w", path, err)
	}
	return len(docs), nil
}
