// Package docstore defines the natural-key-addressable document store
// boundary the import engine writes through. Implementations live in
// subpackages (postgres for the real store, memory for tests).
package docstore

import (
	"context"
	"errors"
)

// DefaultMaxBatchOps is the per-commit operation ceiling of the reference
// store. Stores reject larger batches; callers chunk accordingly.
const DefaultMaxBatchOps = 500

// ErrNotFound is returned by Collection.Get when no document exists under
// the requested key.
var ErrNotFound = errors.New("docstore: document not found")

// ErrBatchTooLarge is returned by Batch.Commit when the batch holds more
// operations than the store allows in one commit.
var ErrBatchTooLarge = errors.New("docstore: batch exceeds max operations per commit")

// Doc is a schemaless document. Values must stay JSON-native (string,
// float64, bool, nil, map[string]any, []any) so documents compare
// structurally regardless of which store they were read from.
type Doc map[string]any

// Entry pairs a document with its storage key, as returned by queries.
type Entry struct {
	Key string
	Doc Doc
}

// Filter is an equality predicate on a top-level document field.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Collection is a named set of documents addressed by natural key.
type Collection interface {
	Name() string

	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (Doc, error)

	// Query returns up to limit entries matching all filters, or every
	// match when limit <= 0. Order is stable per store but otherwise
	// unspecified.
	Query(ctx context.Context, limit int, filters ...Filter) ([]Entry, error)

	// Batch starts an empty write batch against this collection.
	Batch() Batch
}

// Batch accumulates write operations and applies them in one commit.
// Set merges the given fields into the document under key, creating it if
// absent; Update patches fields of an existing document; Delete removes the
// document. Operations apply in insertion order.
type Batch interface {
	Set(key string, doc Doc)
	Update(key string, fields Doc)
	Delete(key string)
	Len() int
	Commit(ctx context.Context) error
}

// Store hands out collections by name.
type Store interface {
	Collection(name string) Collection
	Close() error
}

// Clone deep-copies a document. Nested maps and slices are copied; scalar
// values are shared (they are immutable JSON types).
func Clone(d Doc) Doc {
	if d == nil {
		return nil
	}
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case Doc:
		return map[string]any(Clone(t))
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Merge overlays src onto dst, replacing each top-level field wholesale.
// This mirrors the JSONB || operator of the reference backend; patches that
// change part of a nested group must carry the whole group. dst is modified
// in place.
func Merge(dst, src Doc) Doc {
	if dst == nil {
		dst = Doc{}
	}
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}
