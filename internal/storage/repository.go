// Package storage contains storage-agnostic contracts and utilities: the
// Repository interface every backend implements, the backend registry, the
// per-flush Batch buffers and the Loader that decides when to flush.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"movieetl/internal/schema"
)

// ErrFlush wraps any failure of a batch write. The backend has rolled the
// whole batch back when it is returned.
var ErrFlush = errors.New("storage: flush failed")

// Repository is the relational sink of the pipeline.
//
// PrepareSchema drops and recreates the main table and every child table.
// WriteBatch writes one batch in a single transaction: the main rows with
// replace-by-primary-key semantics and the child rows as plain inserts. Either
// everything in the batch is committed or nothing is.
type Repository interface {
	PrepareSchema(ctx context.Context) error
	WriteBatch(ctx context.Context, b *Batch) error
	Close()
}

// Config is the backend-neutral repository configuration.
type Config struct {
	// Kind selects the registered backend ("sqlite", "postgres").
	Kind string

	// DSN is the backend connection string or, for sqlite, a file path.
	DSN string

	// Schema is the resolved table layout. Required.
	Schema *schema.Schema

	// DBSchema qualifies table names on backends with namespaces (postgres).
	DBSchema string

	// JournalMode and Synchronous are SQLite pragmas. Empty keeps the
	// driver default.
	JournalMode string
	Synchronous string

	// IntegerBools is true when booleans arrive encoded as 1/0. Backends with
	// strict column types use it to pick the boolean column type.
	IntegerBools bool
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens the repository registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	if cfg.Schema == nil {
		return nil, fmt.Errorf("storage: %s: schema must not be nil", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of registered kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
