package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlink/importer/internal/docstore"
	"github.com/orderlink/importer/internal/docstore/memory"
)

func fixedNow() time.Time { return testNow }

func candidate(i int) Candidate {
	key := fmt.Sprintf("P-%04d", i)
	return Candidate{Key: key, Doc: docstore.Doc{
		"productCode": key,
		"name":        fmt.Sprintf("product %d", i),
		"retailPrice": float64(i) / 100,
	}}
}

func TestExecuteChunksByMaxOps(t *testing.T) {
	store := memory.NewStore(500)
	col := store.Collection("products_bazaar")

	cands := make([]Candidate, 0, 1200)
	for i := 0; i < 1200; i++ {
		cands = append(cands, candidate(i))
	}

	res, err := Execute(context.Background(), col, cands, Options{MaxOps: 500, Now: fixedNow})
	require.NoError(t, err)

	assert.Equal(t, 1200, res.Processed)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 1200, store.Len("products_bazaar"))
	// 1200 creates in chunks of 500 is exactly three commits.
	assert.Equal(t, 3, store.Commits())
}

func TestExecuteSkipsBuilderErrors(t *testing.T) {
	store := memory.NewStore(0)
	col := store.Collection("products_bazaar")

	cands := []Candidate{
		candidate(1),
		{Err: errors.New("missing product code")},
		candidate(3),
	}

	res, err := Execute(context.Background(), col, cands, Options{Now: fixedNow})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, store.Len("products_bazaar"))
}

func TestExecuteIsIdempotent(t *testing.T) {
	store := memory.NewStore(0)
	col := store.Collection("products_bazaar")
	ctx := context.Background()

	cands := []Candidate{candidate(1), candidate(2), candidate(3)}

	first, err := Execute(ctx, col, cands, Options{Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Processed)

	second, err := Execute(ctx, col, cands, Options{Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 3, second.Skipped)

	doc, err := col.Get(ctx, "P-0001")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14T09:30:00Z", doc["importedAt"])
	assert.NotContains(t, doc, "updatedAt")
}

func TestExecutePatchesChangedDocuments(t *testing.T) {
	store := memory.NewStore(0)
	col := store.Collection("products_bazaar")
	ctx := context.Background()

	_, err := Execute(ctx, col, []Candidate{candidate(1)}, Options{Now: fixedNow})
	require.NoError(t, err)

	changed := candidate(1)
	changed.Doc["retailPrice"] = 9.99
	later := testNow.Add(24 * time.Hour)

	res, err := Execute(ctx, col, []Candidate{changed}, Options{Now: func() time.Time { return later }})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)

	doc, err := col.Get(ctx, "P-0001")
	require.NoError(t, err)
	assert.Equal(t, 9.99, doc["retailPrice"])
	assert.Equal(t, "product 1", doc["name"])
	assert.Equal(t, "2025-03-14T09:30:00Z", doc["importedAt"])
	assert.Equal(t, "2025-03-15T09:30:00Z", doc["updatedAt"])
}

func TestExecuteContinuesAfterFailedChunkCommit(t *testing.T) {
	store := memory.NewStore(100)
	col := store.Collection("products_bazaar")

	// Fail only the second of three commits.
	commit := 0
	store.CommitHook = func(collection string, ops int) error {
		commit++
		if commit == 2 {
			return errors.New("backend unavailable")
		}
		return nil
	}

	cands := make([]Candidate, 0, 300)
	for i := 0; i < 300; i++ {
		cands = append(cands, candidate(i))
	}

	res, err := Execute(context.Background(), col, cands, Options{MaxOps: 100, Now: fixedNow})
	require.Error(t, err)
	assert.ErrorContains(t, err, "backend unavailable")

	assert.Equal(t, 200, res.Processed)
	assert.Equal(t, 100, res.Skipped)
	// First and third chunks landed, the failed chunk did not.
	assert.Equal(t, 200, store.Len("products_bazaar"))
}

func TestResultAdd(t *testing.T) {
	sum := Result{Processed: 2, Skipped: 1}.Add(Result{Processed: 3, Skipped: 4})
	assert.Equal(t, Result{Processed: 5, Skipped: 5}, sum)
}
