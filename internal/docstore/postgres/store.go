// Package postgres backs the docstore boundary with a single JSONB table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/orderlink/importer/internal/config"
	"github.com/orderlink/importer/internal/docstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	key        TEXT NOT NULL,
	data       JSONB NOT NULL,
	PRIMARY KEY (collection, key)
)`

// Store implements docstore.Store on Postgres. One row per document,
// documents merged with the JSONB || operator on write.
type Store struct {
	db     *sqlx.DB
	sem    *semaphore.Weighted
	maxOps int
}

// NewStore opens a connection pool and ensures the documents table exists.
func NewStore(cfg *config.StoreConfig) (*Store, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sqlx.Connect("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("could not connect to store: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ensure documents table: %w", err)
	}

	maxOps := cfg.MaxBatchOps
	if maxOps <= 0 {
		maxOps = docstore.DefaultMaxBatchOps
	}

	return &Store{
		db:     db,
		sem:    semaphore.NewWeighted(10),
		maxOps: maxOps,
	}, nil
}

func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name}
}

func (s *Store) Close() error { return s.db.Close() }

// withTx executes fn within a transaction, bounded by the store semaphore.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer s.sem.Release(1)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

type collection struct {
	store *Store
	name  string
}

func (c *collection) Name() string { return c.name }

func (c *collection) Get(ctx context.Context, key string) (docstore.Doc, error) {
	var raw []byte
	err := c.store.db.QueryRowxContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND key = $2`,
		c.name, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", c.name, key, err)
	}

	var doc docstore.Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", c.name, key, err)
	}
	return doc, nil
}

func (c *collection) Query(ctx context.Context, limit int, filters ...docstore.Filter) ([]docstore.Entry, error) {
	query := `SELECT key, data FROM documents WHERE collection = $1`
	args := []any{c.name}

	if len(filters) > 0 {
		contains := make(map[string]any, len(filters))
		for _, f := range filters {
			contains[f.Field] = f.Value
		}
		raw, err := json.Marshal(contains)
		if err != nil {
			return nil, fmt.Errorf("encode query filter: %w", err)
		}
		query += ` AND data @> $2::jsonb`
		args = append(args, raw)
	}

	query += ` ORDER BY key`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := c.store.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	defer rows.Close()

	var out []docstore.Entry
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.name, err)
		}
		var doc docstore.Doc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", c.name, key, err)
		}
		out = append(out, docstore.Entry{Key: key, Doc: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.name, err)
	}
	return out, nil
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
	if len(b.ops) == 0 {
		return nil
	}
	if len(b.ops) > b.col.store.maxOps {
		return fmt.Errorf("%w: %d > %d", docstore.ErrBatchTooLarge, len(b.ops), b.col.store.maxOps)
	}

	err := b.col.store.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, o := range b.ops {
			if err := applyOp(ctx, tx, b.col.name, o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.ops = nil
	return nil
}

func applyOp(ctx context.Context, tx *sqlx.Tx, collection string, o op) error {
	switch o.kind {
	case opSet:
		raw, err := json.Marshal(o.fields)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", collection, o.key, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (collection, key, data) VALUES ($1, $2, $3)
			ON CONFLICT (collection, key) DO UPDATE SET data = documents.data || EXCLUDED.data`,
			collection, o.key, raw)
		if err != nil {
			return fmt.Errorf("set %s/%s: %w", collection, o.key, err)
		}
	case opUpdate:
		raw, err := json.Marshal(o.fields)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", collection, o.key, err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET data = data || $3 WHERE collection = $1 AND key = $2`,
			collection, o.key, raw)
		if err != nil {
			return fmt.Errorf("update %s/%s: %w", collection, o.key, err)
		}
	case opDelete:
		_, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = $1 AND key = $2`,
			collection, o.key)
		if err != nil {
			return fmt.Errorf("delete %s/%s: %w", collection, o.key, err)
		}
	}
	return nil
}
