// Package postgres implements a Postgres repository using pgx v5. Main rows
// are upserted with INSERT ... ON CONFLICT in one pgx batch and child rows are
// streamed with COPY, all inside a single transaction per batch.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	gddl "movieetl/internal/ddl"
	"movieetl/internal/schema"
	"movieetl/internal/storage"
	pgddl "movieetl/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN          string         // connection string for pgxpool
	Schema       *schema.Schema // table layout to create and write
	DBSchema     string         // optional namespace, e.g. "public"
	IntegerBools bool           // booleans arrive as 1/0 (SMALLINT columns)
}

// txStarter is the part of *pgxpool.Pool the repository needs.
type txStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	db  txStarter
	cfg Config

	upsertSQL string
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if cfg.Schema == nil {
		return nil, nil, fmt.Errorf("postgres: schema must not be nil")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}

	closeFn := func() { pool.Close() }
	return newRepository(pool, cfg), closeFn, nil
}

func newRepository(db txStarter, cfg Config) *Repository {
	return &Repository{
		db:        db,
		cfg:       cfg,
		upsertSQL: upsertSQL(qualify(cfg.DBSchema, cfg.Schema.Table), cfg.Schema.ColumnNames(), "id"),
	}
}

// upsertSQL renders
//
//	INSERT INTO "s"."t" ("id", "a") VALUES ($1, $2)
//	ON CONFLICT ("id") DO UPDATE SET "a" = EXCLUDED."a"
func upsertSQL(fqn string, cols []string, key string) string {
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sets := filterConflictKeys(updateColumns(cols), []string{gddl.QuoteIdent(key)})

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		gddl.QuoteFQN(fqn), gddl.QuoteList(cols), strings.Join(placeholders, ", "), gddl.QuoteIdent(key))
	if len(sets) == 0 {
		b.WriteString("DO NOTHING")
	} else {
		b.WriteString("DO UPDATE SET ")
		b.WriteString(strings.Join(sets, ", "))
	}
	return b.String()
}

// updateColumns generates a list of column updates in the format: "col" = EXCLUDED."col"
func updateColumns(cols []string) []string {
	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		q := gddl.QuoteIdent(col)
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
	}
	return updates
}

// filterConflictKeys drops the SET parts that would overwrite a conflict key.
func filterConflictKeys(setParts []string, keys []string) []string {
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}

	var result []string
	for _, part := range setParts {
		col := strings.Split(part, " = ")[0]
		if _, isKey := keySet[col]; !isKey {
			result = append(result, part)
		}
	}
	return result
}

// qualify joins an optional namespace and a table name.
func qualify(dbSchema, table string) string {
	if dbSchema == "" {
		return table
	}
	return dbSchema + "." + table
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

// PrepareSchema drops and recreates every table in one transaction.
func (r *Repository) PrepareSchema(ctx context.Context) error {
	stmts, err := pgddl.BuildSchemaSQL(r.cfg.Schema, r.cfg.DBSchema, r.cfg.IntegerBools)
	if err != nil {
		return fmt.Errorf("postgres: build ddl: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: exec ddl: %w", pgDetail(err))
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit ddl: %w", err)
	}
	return nil
}

// WriteBatch upserts the main rows and copies the child rows in a single
// transaction. Rollback after a successful Commit is a no-op in pgx.
func (r *Repository) WriteBatch(ctx context.Context, b *storage.Batch) error {
	if b.Len() == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.upsertMain(ctx, tx, b.Main()); err != nil {
		return fmt.Errorf("postgres: %s: %w", r.cfg.Schema.Table, err)
	}

	for _, ct := range r.cfg.Schema.Children {
		rows := b.Children(ct.Name)
		if len(rows) == 0 {
			continue
		}
		ident := splitFQN(qualify(r.cfg.DBSchema, ct.Name))
		n, err := tx.CopyFrom(ctx, ident, ct.ColumnNames(), pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("postgres: %s: copy: %w", ct.Name, pgDetail(err))
		}
		if n != int64(len(rows)) {
			return fmt.Errorf("postgres: %s: copied %d of %d rows", ct.Name, n, len(rows))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (r *Repository) upsertMain(ctx context.Context, tx pgx.Tx, rows [][]any) error {
	width := len(r.cfg.Schema.Columns)
	batch := &pgx.Batch{}
	for _, row := range rows {
		if len(row) != width {
			return fmt.Errorf("row length %d != columns length %d", len(row), width)
		}
		batch.Queue(r.upsertSQL, row...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upsert row %d: %w", i+1, pgDetail(err))
		}
	}
	return br.Close()
}

// pgDetail folds the server-side detail into the error text when present.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s: %s)", err, pgErr.SQLState(), pgErr.Detail)
	}
	return err
}
