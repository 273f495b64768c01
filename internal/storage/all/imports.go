// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. After the import the following
// kinds are available:
//
//   - "sqlite"   (movieetl/internal/storage/sqlite)
//   - "postgres" (movieetl/internal/storage/postgres)
//
// Typical usage (in cmd/movieetl/main.go):
//
//	import _ "movieetl/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{
//	    Kind:   "sqlite",
//	    DSN:    "movies.db",
//	    Schema: s,
//	})
//	if err != nil {
//	    // handle error
//	}
//	defer repo.Close()
//
// A binary that needs only one backend can import that backend package
// directly instead.
package all

import (
	_ "movieetl/internal/storage/postgres"
	_ "movieetl/internal/storage/sqlite"
)
