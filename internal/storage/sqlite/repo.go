// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc.org/sqlite driver. Each batch is
// written inside one transaction with one prepared INSERT per table; SQLite
// has no bulk-load API like Postgres COPY, but a transaction per batch keeps
// throughput high and makes the batch atomic.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	gddl "movieetl/internal/ddl"
	"movieetl/internal/schema"
	"movieetl/internal/storage"
	sqliteddl "movieetl/internal/storage/sqlite/ddl"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	schema *schema.Schema

	mainSQL  string
	childSQL map[string]string
}

// NewRepository opens the database described by cfg and returns a
// Repository plus a Close function for cleanup.
//
// The pool is limited to one connection: the pipeline has a single writer,
// and an in-memory database exists only on the connection that created it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if cfg.Schema == nil {
		return nil, nil, fmt.Errorf("sqlite: schema must not be nil")
	}
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Ping with a timeout to fail fast on an unusable path.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return newRepository(db, cfg.Schema), closeFn, nil
}

// newRepository builds the insert statements once per repository.
func newRepository(db *sql.DB, s *schema.Schema) *Repository {
	r := &Repository{
		db:       db,
		schema:   s,
		mainSQL:  insertSQL("INSERT OR REPLACE", s.Table, s.ColumnNames()),
		childSQL: make(map[string]string, len(s.Children)),
	}
	for _, ct := range s.Children {
		r.childSQL[ct.Name] = insertSQL("INSERT", ct.Name, ct.ColumnNames())
	}
	return r
}

// insertSQL renders <verb> INTO "table" ("c1", ...) VALUES (?, ...).
func insertSQL(verb, table string, columns []string) string {
	return fmt.Sprintf(
		"%s INTO %s (%s) VALUES (%s)",
		verb,
		gddl.QuoteFQN(table),
		gddl.QuoteList(columns),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)
}

// PrepareSchema drops and recreates every table in one transaction.
func (r *Repository) PrepareSchema(ctx context.Context) error {
	stmts, err := sqliteddl.BuildSchemaSQL(r.schema)
	if err != nil {
		return fmt.Errorf("sqlite: build ddl: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: exec ddl: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit ddl: %w", err)
	}
	return nil
}

// WriteBatch writes the main rows with INSERT OR REPLACE and then every
// non-empty child buffer with plain INSERTs, all in one transaction. Any
// error rolls the whole batch back.
func (r *Repository) WriteBatch(ctx context.Context, b *storage.Batch) error {
	if b.Len() == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}

	if err := execRows(ctx, tx, r.mainSQL, len(r.schema.Columns), b.Main()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: %s: %w", r.schema.Table, err)
	}
	for _, ct := range r.schema.Children {
		rows := b.Children(ct.Name)
		if len(rows) == 0 {
			continue
		}
		if err := execRows(ctx, tx, r.childSQL[ct.Name], len(ct.Columns)+1, rows); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: %s: %w", ct.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// execRows runs one prepared statement for every row.
func execRows(ctx context.Context, tx *sql.Tx, stmtSQL string, width int, rows [][]any) error {
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if len(row) != width {
			return fmt.Errorf("row length %d != columns length %d", len(row), width)
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	return nil
}
