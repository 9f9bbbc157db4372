// Package domain builds canonical entity documents out of raw spreadsheet
// rows, one builder per entity kind.
package domain

import "errors"

// SalesmanCollection is shared by all brands; salesman documents carry a
// brand tag instead of living in per-brand collections.
const SalesmanCollection = "salesmen"

// ErrMissingKey marks a row that has no resolvable natural key. Such rows
// are counted as skipped before any normalization runs, so nothing is ever
// written under an empty key.
var ErrMissingKey = errors.New("domain: row has no natural key")

// BrandContext names one tenant and its collection namespace. Contexts come
// from configuration and are immutable for the duration of a run.
type BrandContext struct {
	Key                string
	ProductCollection  string
	CustomerCollection string
}
