package importer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/orderlink/importer/internal/docstore"
)

// DeleteAll removes every document in col matching the filters, paging in
// groups of maxOps so no single commit exceeds the store's batch ceiling.
// Each page strictly shrinks the matching set, so the loop terminates as
// long as no concurrent writer re-inserts matches.
func DeleteAll(ctx context.Context, col docstore.Collection, maxOps int, filters ...docstore.Filter) (int, error) {
	if maxOps <= 0 {
		maxOps = docstore.DefaultMaxBatchOps
	}

	total := 0
	for {
		entries, err := col.Query(ctx, maxOps, filters...)
		if err != nil {
			return total, fmt.Errorf("query page: %w", err)
		}
		if len(entries) == 0 {
			return total, nil
		}

		batch := col.Batch()
		for _, e := range entries {
			batch.Delete(e.Key)
		}
		if err := batch.Commit(ctx); err != nil {
			return total, fmt.Errorf("delete page: %w", err)
		}

		total += len(entries)
		log.Info().Str("collection", col.Name()).Int("deleted", total).Msg("delete page committed")
	}
}
