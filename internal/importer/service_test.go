package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlink/importer/internal/config"
	"github.com/orderlink/importer/internal/docstore/memory"
	"github.com/orderlink/importer/internal/source"
)

type fakeArchive struct {
	keys []string
}

func (f *fakeArchive) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	f.keys = append(f.keys, key)
	return nil
}

func serviceFixture(t *testing.T, productCSV, customerCSV string) (*Service, *memory.Store, *fakeArchive) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/products.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(productCSV))
	})
	mux.HandleFunc("/customers.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(customerCSV))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Store: config.StoreConfig{MaxBatchOps: 500},
		Brands: []config.BrandConfig{{
			Key:                "bazaar",
			ProductCollection:  "products_bazaar",
			CustomerCollection: "customers_bazaar",
			Products:           config.SourceConfig{URL: srv.URL + "/products.csv", Format: "csv"},
			Customers:          config.SourceConfig{URL: srv.URL + "/customers.csv", Format: "csv"},
		}},
	}

	store := memory.NewStore(0)
	archive := &fakeArchive{}
	svc := NewService(store, cfg, source.NewFetcher(nil), archive, nil)
	return svc, store, archive
}

func TestServiceImportProducts(t *testing.T) {
	productCSV := "Κωδικός,Περιγραφή,Τιμή Λιανικής\nP-1,Φέτα ΠΟΠ,\"4,90\"\n,χωρίς κωδικό,\"1,00\"\nP-2,Κασέρι,\"7,30\"\n"
	svc, store, archive := serviceFixture(t, productCSV, "")
	ctx := context.Background()

	res, err := svc.ImportProducts(ctx, "bazaar")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, store.Len("products_bazaar"))

	doc, err := store.Collection("products_bazaar").Get(ctx, "P-1")
	require.NoError(t, err)
	assert.Equal(t, "Φέτα ΠΟΠ", doc["description"])
	assert.Equal(t, 4.9, doc["retailPrice"])

	// The raw export was archived before parsing.
	require.Len(t, archive.keys, 1)
	assert.True(t, strings.HasPrefix(archive.keys[0], "exports/bazaar/products/"))
	assert.True(t, strings.HasSuffix(archive.keys[0], ".csv"))
}

func TestServiceImportCustomersAndRebuild(t *testing.T) {
	customerCSV := "Κωδικός Πελάτη,Επωνυμία,Πωλητής\nC-1,Πελάτης Α,Νίκος Παπάς\nC-2,Πελάτης Β,ΝΙΚΟΣ ΠΑΠΑΣ\n"
	svc, store, _ := serviceFixture(t, "", customerCSV)
	ctx := context.Background()

	res, err := svc.ImportCustomers(ctx, "bazaar")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)

	deleted, rebuilt, err := svc.RebuildSalesmen(ctx, "bazaar")
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
	assert.Equal(t, 1, rebuilt.Processed)
	assert.Equal(t, 1, store.Len("salesmen"))
}

func TestServiceUnknownBrand(t *testing.T) {
	svc, _, _ := serviceFixture(t, "", "")

	_, err := svc.ImportProducts(context.Background(), "nope")
	assert.ErrorContains(t, err, "unknown brand")
}

func TestServiceMissingSource(t *testing.T) {
	store := memory.NewStore(0)
	cfg := &config.Config{
		Store:  config.StoreConfig{MaxBatchOps: 500},
		Brands: []config.BrandConfig{{Key: "bazaar", ProductCollection: "products_bazaar"}},
	}
	svc := NewService(store, cfg, source.NewFetcher(nil), nil, nil)

	_, err := svc.ImportProducts(context.Background(), "bazaar")
	assert.ErrorContains(t, err, "no products source configured")
}

func TestServiceDeleteCollection(t *testing.T) {
	svc, store, _ := serviceFixture(t, "", "")
	ctx := context.Background()

	col := store.Collection("products_bazaar")
	batch := col.Batch()
	batch.Set("P-1", map[string]any{"name": "x"})
	require.NoError(t, batch.Commit(ctx))

	deleted, err := svc.DeleteCollection(ctx, "products_bazaar")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 0, store.Len("products_bazaar"))
}
