// Package memory implements an in-process docstore used by tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/orderlink/importer/internal/docstore"
)

// Store keeps all collections in maps guarded by one mutex. Documents are
// JSON round-tripped on write so stored values carry the same types a real
// store would return (float64, string, bool, nil, map[string]any, []any).
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]docstore.Doc
	maxOps      int

	// CommitHook, when set, runs before every batch commit. Returning an
	// error fails that commit without applying any of its operations.
	CommitHook func(collection string, ops int) error

	commits int
	reads   int
}

// NewStore creates an empty store with the given per-commit operation
// ceiling (0 means docstore.DefaultMaxBatchOps).
func NewStore(maxOps int) *Store {
	if maxOps <= 0 {
		maxOps = docstore.DefaultMaxBatchOps
	}
	return &Store{
		collections: make(map[string]map[string]docstore.Doc),
		maxOps:      maxOps,
	}
}

func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name}
}

func (s *Store) Close() error { return nil }

// Commits reports how many batch commits have been applied, across all
// collections. Used by tests asserting the chunking bound.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Reads reports how many point reads have been served.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Len reports the number of documents currently stored in a collection.
func (s *Store) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

func (s *Store) docs(name string) map[string]docstore.Doc {
	m, ok := s.collections[name]
	if !ok {
		m = make(map[string]docstore.Doc)
		s.collections[name] = m
	}
	return m
}

type collection struct {
	store *Store
	name  string
}

func (c *collection) Name() string { return c.name }

func (c *collection) Get(ctx context.Context, key string) (docstore.Doc, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.reads++
	doc, ok := c.store.docs(c.name)[key]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return docstore.Clone(doc), nil
}

func (c *collection) Query(ctx context.Context, limit int, filters ...docstore.Filter) ([]docstore.Entry, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.store.docs(c.name)
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []docstore.Entry
	for _, k := range keys {
		if limit > 0 && len(out) >= limit {
			break
		}
		doc := docs[k]
		if !matches(doc, filters) {
			continue
		}
		out = append(out, docstore.Entry{Key: k, Doc: docstore.Clone(doc)})
	}
	return out, nil
}

func matches(doc docstore.Doc, filters []docstore.Filter) bool {
	for _, f := range filters {
		if doc[f.Field] != f.Value {
			return false
		}
	}
	return true
}

func (c *collection) Batch() docstore.Batch {
	return &batch{col: c}
}

type opKind int

const (
	opSet opKind = iota
	opUpdate
	opDelete
)

type op struct {
	kind   opKind
	key    string
	fields docstore.Doc
}

type batch struct {
	col *collection
	ops []op
}

func (b *batch) Set(key string, doc docstore.Doc) {
	b.ops = append(b.ops, op{kind: opSet, key: key, fields: doc})
}

func (b *batch) Update(key string, fields docstore.Doc) {
	b.ops = append(b.ops, op{kind: opUpdate, key: key, fields: fields})
}

func (b *batch) Delete(key string) {
	b.ops = append(b.ops, op{kind: opDelete, key: key})
}

func (b *batch) Len() int { return len(b.ops) }

func (b *batch) Commit(ctx context.Context) error {
	s := b.col.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(b.ops) > s.maxOps {
		return fmt.Errorf("%w: %d > %d", docstore.ErrBatchTooLarge, len(b.ops), s.maxOps)
	}
	if s.CommitHook != nil {
		if err := s.CommitHook(b.col.name, len(b.ops)); err != nil {
			return err
		}
	}

	docs := s.docs(b.col.name)
	for _, o := range b.ops {
		switch o.kind {
		case opSet:
			docs[o.key] = docstore.Merge(docstore.Clone(docs[o.key]), normalize(o.fields))
		case opUpdate:
			if existing, ok := docs[o.key]; ok {
				docs[o.key] = docstore.Merge(docstore.Clone(existing), normalize(o.fields))
			}
		case opDelete:
			delete(docs, o.key)
		}
	}
	s.commits++
	b.ops = nil
	return nil
}

// normalize round-trips a document through JSON so stored values use the
// same dynamic types Get would return from a real backend.
func normalize(d docstore.Doc) docstore.Doc {
	raw, err := json.Marshal(d)
	if err != nil {
		return docstore.Clone(d)
	}
	var out docstore.Doc
	if err := json.Unmarshal(raw, &out); err != nil {
		return docstore.Clone(d)
	}
	return out
}
