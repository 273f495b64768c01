package postgres

import (
	"context"

	"movieetl/internal/storage"
)

// newRepositoryFn is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepositoryFn = NewRepository

// wrappedRepo implements storage.Repository by delegating to the concrete
// *postgres.Repository while providing a Close method that calls the close
// function returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// init registers the "postgres" backend with the storage factory:
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", ...})
//	defer repo.Close()
func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepositoryFn(ctx, Config{
			DSN:          cfg.DSN,
			Schema:       cfg.Schema,
			DBSchema:     cfg.DBSchema,
			IntegerBools: cfg.IntegerBools,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
}
