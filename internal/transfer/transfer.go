// Package transfer copies local collections into a remote store.
package transfer

import (
	"context"
	"fmt"
	"io"

	"github.com/law-makers/labscrape/internal/reqctx"
	"github.com/law-makers/labscrape/internal/store"
	"github.com/schollz/progressbar/v3"
)

// Result counts one copied collection
type Result struct {
	Collection string
	Read       int
	Inserted   int
	Existing   int
}

// Options tunes a transfer
type Options struct {
	// Collections limits the copy; empty means every local collection
	Collections []string
	// Progress is drawn here when set
	Progress io.Writer
}

// Copy inserts every document of src into the same-named collection of dst
// unless an identical document is already there. Documents are never updated
// or removed on either side.
func Copy(ctx context.Context, src, dst store.Store, opts Options) ([]Result, error) {
	logger := reqctx.Logger(ctx)

	names := opts.Collections
	if len(names) == 0 {
		var err error
		names, err = src.Collections(ctx)
		if err != nil {
			return nil, fmt.Errorf("list local collections: %w", err)
		}
	}

	logger.Info().
		Str("from", src.Backend()).
		Str("to", dst.Backend()).
		Strs("collections", names).
		Msg("Starting transfer")

	var results []Result
	for _, name := range names {
		res, err := copyCollection(ctx, src.Collection(name), dst.Collection(name), opts.Progress)
		if err != nil {
			return results, err
		}
		logger.Info().
			Str("collection", name).
			Int("read", res.Read).
			Int("inserted", res.Inserted).
			Int("existing", res.Existing).
			Msg("Collection transferred")
		results = append(results, res)
	}
	return results, nil
}

func copyCollection(ctx context.Context, from, to store.Collection, progress io.Writer) (Result, error) {
	res := Result{Collection: from.Name()}

	entries, err := from.Find(ctx, store.All())
	if err != nil {
		return res, fmt.Errorf("read %s: %w", from.Name(), err)
	}
	res.Read = len(entries)

	bar := progressbar.DefaultSilent(int64(len(entries)))
	if progress != nil {
		bar = progressbar.NewOptions(len(entries),
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription(from.Name()),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	defer bar.Finish()

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		inserted, _, err := to.InsertOne(ctx, e.Doc)
		if err != nil {
			return res, fmt.Errorf("insert into remote %s: %w", to.Name(), err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Existing++
		}
		bar.Add(1)
	}
	return res, nil
}
