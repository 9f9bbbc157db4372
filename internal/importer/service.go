package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orderlink/importer/internal/cache"
	"github.com/orderlink/importer/internal/config"
	"github.com/orderlink/importer/internal/docstore"
	"github.com/orderlink/importer/internal/domain"
	"github.com/orderlink/importer/internal/source"
	"github.com/orderlink/importer/internal/storage"
)

// Service runs the named import operations against one document store. It
// is shared by the CLI and the admin API.
type Service struct {
	store   docstore.Store
	cfg     *config.Config
	fetcher *source.Fetcher
	archive storage.ObjectStorage
	cache   cache.DocCache
}

// NewService wires a Service. archive and docCache may be nil; the
// corresponding steps are then skipped.
func NewService(store docstore.Store, cfg *config.Config, fetcher *source.Fetcher, archive storage.ObjectStorage, docCache cache.DocCache) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		fetcher: fetcher,
		archive: archive,
		cache:   docCache,
	}
}

func (s *Service) options() Options {
	return Options{
		MaxOps: s.cfg.Store.MaxBatchOps,
		Cache:  s.cache,
	}
}

// ImportProducts fetches the brand's product export, reconciles every row
// and reports how many documents were written and how many rows were
// skipped.
func (s *Service) ImportProducts(ctx context.Context, brandKey string) (Result, error) {
	brandCfg, err := s.cfg.Brand(brandKey)
	if err != nil {
		return Result{}, err
	}
	brand := brandContext(brandCfg)

	records, err := s.fetchRecords(ctx, brandKey, "products", brandCfg.Products)
	if err != nil {
		return Result{}, err
	}

	cands := make([]Candidate, 0, len(records))
	for _, rec := range records {
		key, doc, err := domain.BuildProduct(rec.Fields, rec.Sheet, brand)
		cands = append(cands, Candidate{Key: key, Doc: doc, Err: err})
	}

	log.Info().Str("brand", brandKey).Int("rows", len(cands)).Msg("product import starting")
	return Execute(ctx, s.store.Collection(brand.ProductCollection), cands, s.options())
}

// ImportCustomers is the customer counterpart of ImportProducts.
func (s *Service) ImportCustomers(ctx context.Context, brandKey string) (Result, error) {
	brandCfg, err := s.cfg.Brand(brandKey)
	if err != nil {
		return Result{}, err
	}
	brand := brandContext(brandCfg)

	records, err := s.fetchRecords(ctx, brandKey, "customers", brandCfg.Customers)
	if err != nil {
		return Result{}, err
	}

	cands := make([]Candidate, 0, len(records))
	for _, rec := range records {
		key, doc, err := domain.BuildCustomer(rec.Fields, brand)
		cands = append(cands, Candidate{Key: key, Doc: doc, Err: err})
	}

	log.Info().Str("brand", brandKey).Int("rows", len(cands)).Msg("customer import starting")
	return Execute(ctx, s.store.Collection(brand.CustomerCollection), cands, s.options())
}

// RebuildSalesmen recomputes the brand's derived salesman directory.
func (s *Service) RebuildSalesmen(ctx context.Context, brandKey string) (int, Result, error) {
	brandCfg, err := s.cfg.Brand(brandKey)
	if err != nil {
		return 0, Result{}, err
	}
	return RebuildSalesmen(ctx, s.store, brandContext(brandCfg), s.options())
}

// DeleteCollection empties one collection. Maintenance only.
func (s *Service) DeleteCollection(ctx context.Context, name string) (int, error) {
	return DeleteAll(ctx, s.store.Collection(name), s.cfg.Store.MaxBatchOps)
}

func (s *Service) fetchRecords(ctx context.Context, brandKey, kind string, src config.SourceConfig) ([]source.Record, error) {
	if src.URL == "" {
		return nil, fmt.Errorf("brand %s has no %s source configured", brandKey, kind)
	}

	data, err := s.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	s.archiveExport(ctx, brandKey, kind, src.Format, data)

	records, err := source.Parse(src.Format, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s export for %s: %w", kind, brandKey, err)
	}
	return records, nil
}

// archiveExport copies the raw export bytes aside. Failure here is only a
// warning; losing an archive copy must not fail the import.
func (s *Service) archiveExport(ctx context.Context, brandKey, kind, format string, data []byte) {
	if s.archive == nil {
		return
	}

	ext, contentType := "csv", "text/csv"
	if format == "xlsx" || format == "workbook" {
		ext = "xlsx"
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	key := fmt.Sprintf("exports/%s/%s/%s.%s", brandKey, kind, time.Now().UTC().Format("20060102T150405Z"), ext)
	if err := s.archive.Upload(ctx, key, data, contentType); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("could not archive export")
	}
}

func brandContext(cfg config.BrandConfig) domain.BrandContext {
	return domain.BrandContext{
		Key:                cfg.Key,
		ProductCollection:  cfg.ProductCollection,
		CustomerCollection: cfg.CustomerCollection,
	}
}
