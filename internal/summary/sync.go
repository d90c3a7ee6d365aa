// Package summary keeps the summary collections in step with the catalog.
package summary

import (
	"context"
	"fmt"

	"github.com/law-makers/labscrape/internal/metrics"
	"github.com/law-makers/labscrape/internal/store"
	"github.com/law-makers/labscrape/pkg/models"
	"github.com/rs/zerolog/log"
)

// Result counts what one sync did to one summary collection
type Result struct {
	Unit     models.Unit
	Fresh    int
	Inserted int
	Existing int
}

// Syncer inserts catalog records that are not yet stored, stamped as not
// scraped
type Syncer struct {
	store   store.Store
	metrics *metrics.Metrics
}

// NewSyncer creates a Syncer over st. m may be nil.
func NewSyncer(st store.Store, m *metrics.Metrics) *Syncer {
	return &Syncer{store: st, metrics: m}
}

// Sync merges recs into the summary collection of unit. Records equal in
// every content field to a stored row are left alone, as are repeats within
// recs. Running Sync twice with the same input inserts nothing the second
// time.
func (s *Syncer) Sync(ctx context.Context, unit models.Unit, recs []models.SummaryRecord) (Result, error) {
	res := Result{Unit: unit, Fresh: len(recs)}
	coll := s.store.Collection(unit.SummaryCollection())

	if len(recs) == 0 {
		log.Info().Str("collection", coll.Name()).Msg("No fresh records, nothing to sync")
		return res, nil
	}

	stored, err := coll.Count(ctx)
	if err != nil {
		return res, fmt.Errorf("count %s: %w", coll.Name(), err)
	}

	seen := make(map[string]bool, len(recs))
	candidates := make([]*models.Document, 0, len(recs))
	for _, r := range recs {
		r.Scraped = false
		doc := r.Document()

		h := store.IdentityHash(coll.Name(), doc)
		if seen[h] {
			continue
		}
		seen[h] = true

		// empty collection: everything is new
		if stored > 0 {
			exists, err := coll.Contains(ctx, doc)
			if err != nil {
				return res, fmt.Errorf("lookup in %s: %w", coll.Name(), err)
			}
			if exists {
				res.Existing++
				continue
			}
		}
		candidates = append(candidates, doc)
	}

	if len(candidates) > 0 {
		n, err := coll.InsertMany(ctx, candidates)
		if err != nil {
			return res, fmt.Errorf("insert into %s: %w", coll.Name(), err)
		}
		res.Inserted = n
	}

	s.metrics.AddSummary(string(unit), "fresh", res.Fresh)
	s.metrics.AddSummary(string(unit), "inserted", res.Inserted)
	s.metrics.AddSummary(string(unit), "existing", res.Existing)

	log.Info().
		Str("collection", coll.Name()).
		Int("fresh", res.Fresh).
		Int("inserted", res.Inserted).
		Int("existing", res.Existing).
		Bool("fast_path", stored == 0).
		Msg("Summary sync complete")

	return res, nil
}

// SyncAll syncs the percent group then the milligram group
func (s *Syncer) SyncAll(ctx context.Context, pct, mg []models.SummaryRecord) ([]Result, error) {
	var results []Result
	for _, g := range []struct {
		unit models.Unit
		recs []models.SummaryRecord
	}{
		{models.UnitPercent, pct},
		{models.UnitMilligram, mg},
	} {
		r, err := s.Sync(ctx, g.unit, g.recs)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}
