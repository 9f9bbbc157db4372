package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlink/importer/internal/config"
	"github.com/orderlink/importer/internal/docstore"
	"github.com/orderlink/importer/internal/docstore/memory"
	"github.com/orderlink/importer/internal/importer"
	"github.com/orderlink/importer/internal/source"
)

func testRouter(t *testing.T, productCSV string) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(productCSV))
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Store: config.StoreConfig{MaxBatchOps: 500},
		Brands: []config.BrandConfig{{
			Key:                "bazaar",
			ProductCollection:  "products_bazaar",
			CustomerCollection: "customers_bazaar",
			Products:           config.SourceConfig{URL: upstream.URL, Format: "csv"},
		}},
	}

	store := memory.NewStore(0)
	service := importer.NewService(store, cfg, source.NewFetcher(nil), nil, nil)
	return NewRouter(service, []string{"*"}), store
}

func TestHealthz(t *testing.T) {
	router, _ := testRouter(t, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestImportProductsEndpoint(t *testing.T) {
	router, store := testRouter(t, "Κωδικός,Περιγραφή\nP-1,Φέτα\nP-2,Κασέρι\n")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/bazaar/products", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Processed int `json:"processed"`
		Skipped   int `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Processed)
	assert.Equal(t, 0, body.Skipped)
	assert.Equal(t, 2, store.Len("products_bazaar"))
}

func TestImportProductsUnknownBrand(t *testing.T) {
	router, _ := testRouter(t, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/nope/products", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "unknown brand")
}

func TestDeleteCollectionEndpoint(t *testing.T) {
	router, store := testRouter(t, "")

	col := store.Collection("products_bazaar")
	batch := col.Batch()
	batch.Set("P-1", docstore.Doc{"name": "x"})
	require.NoError(t, batch.Commit(context.Background()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/collections/products_bazaar", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())
	assert.Equal(t, 0, store.Len("products_bazaar"))
}
