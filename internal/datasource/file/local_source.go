// Package file implements the local filesystem input source.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"movieetl/internal/datasource"
)

// ErrNotRegular is returned by Check when the path exists but is not a
// regular file (a directory, a socket, ...).
var ErrNotRegular = errors.New("not a regular file")

// Local opens one NDJSON file from the local disk.
type Local struct{ path string }

var _ datasource.Source = (*Local)(nil)

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Check verifies the input exists and is a regular file without opening it.
// A missing path wraps fs.ErrNotExist.
func (l *Local) Check() (fs.FileInfo, error) {
	if l.path == "" {
		return nil, fmt.Errorf("stat input: empty path: %w", fs.ErrNotExist)
	}
	fi, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("stat %s: %w", l.path, ErrNotRegular)
	}
	return fi, nil
}

// Open opens the configured path for reading.
//
// Behavior:
//   - A context that is already done returns its error without touching the
//     filesystem.
//   - Filesystem errors are wrapped with the path and stay matchable with
//     errors.Is (e.g. errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
