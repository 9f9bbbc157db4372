package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/orderlink/importer/internal/docstore"
	"github.com/orderlink/importer/internal/domain"
	"github.com/orderlink/importer/internal/normalize"
)

// salesmanPaths are the customer fields that may name a sales agent, in
// priority order. Dotted paths descend into nested groups.
var salesmanPaths = []string{
	"salesInfo.salesman",
	"salesInfo.merch",
	"salesman",
	"merch",
}

// ExtractSalesmen collects every candidate agent name found on one customer
// document, deduplicated by case-folded key, first-seen order preserved.
// String-slice values are flattened.
func ExtractSalesmen(customer docstore.Doc) []string {
	var names []string
	seen := make(map[string]struct{})

	for _, path := range salesmanPaths {
		for _, raw := range collectStrings(lookupPath(customer, path)) {
			name := normalize.CollapseSpace(raw)
			if name == "" {
				continue
			}
			key := normalize.FoldKey(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

func lookupPath(doc docstore.Doc, path string) any {
	var current any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

func collectStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// RebuildSalesmen replaces one brand's derived salesman set: it scans every
// customer of the brand, synthesizes one salesman per unique case-folded
// name, deletes the brand's previous set and inserts the new one.
//
// Delete and insert are not atomic. A crash in between leaves the brand's
// salesman set empty until the rebuild is retried, which is acceptable:
// salesmen are fully derived and re-computable from customers at any time.
func RebuildSalesmen(ctx context.Context, store docstore.Store, brand domain.BrandContext, opts Options) (int, Result, error) {
	customers := store.Collection(brand.CustomerCollection)
	salesmen := store.Collection(domain.SalesmanCollection)

	entries, err := customers.Query(ctx, 0)
	if err != nil {
		return 0, Result{}, fmt.Errorf("scan customers: %w", err)
	}

	var cands []Candidate
	seen := make(map[string]struct{})
	for _, e := range entries {
		for _, name := range ExtractSalesmen(e.Doc) {
			s := domain.NewSalesman(brand.Key, name)
			if _, dup := seen[s.Normalized]; dup {
				continue
			}
			seen[s.Normalized] = struct{}{}
			cands = append(cands, Candidate{Key: s.ID, Doc: s.Doc()})
		}
	}

	log.Info().
		Str("brand", brand.Key).
		Int("customers", len(entries)).
		Int("salesmen", len(cands)).
		Msg("salesman extraction complete")

	deleted, err := DeleteAll(ctx, salesmen, opts.maxOps(), docstore.Eq("brand", brand.Key))
	if err != nil {
		return deleted, Result{}, fmt.Errorf("clear salesmen for %s: %w", brand.Key, err)
	}

	res, err := Execute(ctx, salesmen, cands, opts)
	if err != nil {
		return deleted, res, fmt.Errorf("insert salesmen for %s: %w", brand.Key, err)
	}
	return deleted, res, nil
}
