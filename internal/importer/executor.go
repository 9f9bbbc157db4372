package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orderlink/importer/internal/cache"
	"github.com/orderlink/importer/internal/docstore"
)

// Candidate is one entity queued for reconciliation. Err carries a builder
// failure (missing natural key, unparseable row); such candidates are
// counted as skipped without touching the store.
type Candidate struct {
	Key string
	Doc docstore.Doc
	Err error
}

// Result accumulates per-run counters. It is a value: callers composing
// several runs sum the returned Results instead of sharing counters.
type Result struct {
	Processed int
	Skipped   int
}

func (r Result) Add(o Result) Result {
	return Result{Processed: r.Processed + o.Processed, Skipped: r.Skipped + o.Skipped}
}

// Options tunes one Execute call.
type Options struct {
	// MaxOps caps operations per physical batch commit. Zero means
	// docstore.DefaultMaxBatchOps.
	MaxOps int

	// Cache, when set, serves existing-document point reads.
	Cache cache.DocCache

	// Now stamps importedAt/updatedAt fields. Zero value means time.Now.
	Now func() time.Time
}

func (o Options) maxOps() int {
	if o.MaxOps > 0 {
		return o.MaxOps
	}
	return docstore.DefaultMaxBatchOps
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Execute reconciles candidates against col and applies the resulting
// writes in chunks of at most MaxOps operations, one store commit per
// chunk, strictly sequentially.
//
// One malformed row never aborts its chunk: builder errors, read errors and
// reconcile panics are recovered per row and counted as skipped. A failed
// chunk commit drops that chunk's writes (counted as skipped), leaves prior
// chunks applied, and does not stop the remaining chunks; commit errors are
// joined into the returned error alongside the final counts.
func Execute(ctx context.Context, col docstore.Collection, cands []Candidate, opts Options) (Result, error) {
	var (
		res       Result
		commitErr error
	)
	maxOps := opts.maxOps()
	total := len(cands)
	done := 0

	for start := 0; start < len(cands); start += maxOps {
		end := min(start+maxOps, len(cands))
		chunk := cands[start:end]

		batch := col.Batch()
		var written []string
		for _, cand := range chunk {
			key, wrote, err := reconcileOne(ctx, col, batch, cand, opts)
			if err != nil {
				res.Skipped++
				log.Warn().Err(err).Str("collection", col.Name()).Str("key", cand.Key).Msg("row skipped")
				continue
			}
			if wrote {
				written = append(written, key)
			} else {
				res.Skipped++
			}
		}

		if batch.Len() > 0 {
			if err := batch.Commit(ctx); err != nil {
				log.Error().Err(err).
					Str("collection", col.Name()).
					Int("ops", len(written)).
					Msg("chunk commit failed, continuing with next chunk")
				res.Skipped += len(written)
				commitErr = errors.Join(commitErr, fmt.Errorf("commit chunk %d-%d: %w", start, end, err))
			} else {
				res.Processed += len(written)
				invalidate(ctx, opts.Cache, col.Name(), written)
			}
		}

		done += len(chunk)
		log.Info().
			Str("collection", col.Name()).
			Int("done", done).
			Int("total", total).
			Int("processed", res.Processed).
			Int("skipped", res.Skipped).
			Msg("chunk committed")
	}

	return res, commitErr
}

// reconcileOne handles a single candidate: point read, diff, and batch
// append. wrote reports whether a write was queued; a false return with a
// nil error means the reconciler decided skip (no change).
func reconcileOne(ctx context.Context, col docstore.Collection, batch docstore.Batch, cand Candidate, opts Options) (key string, wrote bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			wrote = false
			err = fmt.Errorf("row panic: %v", r)
		}
	}()

	if cand.Err != nil {
		return cand.Key, false, cand.Err
	}

	existing, err := readExisting(ctx, col, cand.Key, opts.Cache)
	if err != nil {
		return cand.Key, false, fmt.Errorf("read existing: %w", err)
	}

	decision := Reconcile(cand.Doc, existing, opts.now())
	switch decision.Op {
	case OpCreate:
		batch.Set(cand.Key, decision.Payload)
		return cand.Key, true, nil
	case OpPatch:
		batch.Update(cand.Key, decision.Payload)
		return cand.Key, true, nil
	default:
		return cand.Key, false, nil
	}
}

func readExisting(ctx context.Context, col docstore.Collection, key string, dc cache.DocCache) (docstore.Doc, error) {
	if dc != nil {
		if doc, hit, err := dc.Get(ctx, col.Name(), key); err == nil && hit {
			return doc, nil
		} else if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("doc cache get failed")
		}
	}

	doc, err := col.Get(ctx, key)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if dc != nil {
		if err := dc.Set(ctx, col.Name(), key, doc); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("doc cache set failed")
		}
	}
	return doc, nil
}

func invalidate(ctx context.Context, dc cache.DocCache, collection string, keys []string) {
	if dc == nil || len(keys) == 0 {
		return
	}
	if err := dc.Invalidate(ctx, collection, keys...); err != nil {
		log.Warn().Err(err).Str("collection", collection).Msg("doc cache invalidate failed")
	}
}
