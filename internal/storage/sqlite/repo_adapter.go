package sqlite

import (
	"context"

	"movieetl/internal/storage"
)

// newRepositoryFn is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepositoryFn = NewRepository

// wrappedRepo adapts *sqlite.Repository to the storage.Repository interface,
// adding a Close method that calls the cleanup function returned by
// NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepositoryFn(ctx, Config{
			DSN:         cfg.DSN,
			Schema:      cfg.Schema,
			JournalMode: cfg.JournalMode,
			Synchronous: cfg.Synchronous,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
}
