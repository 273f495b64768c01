// Package datasource defines where the pipeline reads its input from.
package datasource

import (
	"context"
	"io"
)

// Source opens the NDJSON input stream. The caller closes the reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
