package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"movieetl/internal/schema"
)

// FlushStats describes one committed batch.
type FlushStats struct {
	Seq       int64         // 1-based flush number
	Rows      int           // main rows in this batch
	ChildRows int           // child rows in this batch
	Stored    int64         // main rows committed so far, this batch included
	Took      time.Duration // time spent in WriteBatch
	Elapsed   time.Duration // time since the loader was created
}

// LoaderConfig tunes a Loader.
type LoaderConfig struct {
	// BatchSize is the main-row threshold that triggers a flush. Must be > 0.
	BatchSize int

	// Logger receives one debug line per flush and an error line per failed
	// flush. The zero value discards.
	Logger zerolog.Logger

	// OnFlush, when set, is called after every successful flush.
	OnFlush func(FlushStats)

	// Now is a clock seam for tests; time.Now when nil.
	Now func() time.Time
}

// Loader accumulates split records and writes them through a Repository in
// batches. A batch is flushed when its main buffer reaches BatchSize and
// once more, for the remainder, on Flush. Child rows never trigger a flush
// on their own.
//
// A Loader is not safe for concurrent use.
type Loader struct {
	repo  Repository
	cfg   LoaderConfig
	batch *Batch
	start time.Time

	stored  int64
	flushes int64
}

// NewLoader returns a Loader writing through repo.
func NewLoader(repo Repository, s *schema.Schema, cfg LoaderConfig) (*Loader, error) {
	if repo == nil {
		return nil, fmt.Errorf("loader: repository must not be nil")
	}
	if s == nil {
		return nil, fmt.Errorf("loader: schema must not be nil")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("loader: batchSize must be > 0")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Loader{
		repo:  repo,
		cfg:   cfg,
		batch: NewBatch(s, cfg.BatchSize),
		start: cfg.Now(),
	}, nil
}

// Add buffers rec and flushes when the main buffer reaches the threshold.
func (l *Loader) Add(ctx context.Context, rec schema.Record) error {
	l.batch.Add(rec)
	if l.batch.Len() >= l.cfg.BatchSize {
		return l.Flush(ctx)
	}
	return nil
}

// Flush writes everything buffered as one transaction. An empty main buffer
// is a no-op: no transaction is opened and no flush is counted.
//
// The buffers are cleared whether or not the write succeeds. A failed write
// returns an error wrapping ErrFlush.
func (l *Loader) Flush(ctx context.Context) error {
	rows := l.batch.Len()
	if rows == 0 {
		return nil
	}
	childRows := l.batch.ChildRows()

	t0 := l.cfg.Now()
	err := l.repo.WriteBatch(ctx, l.batch)
	took := l.cfg.Now().Sub(t0)
	l.batch.Reset()

	if err != nil {
		l.cfg.Logger.Error().
			Err(err).
			Int64("batch", l.flushes+1).
			Int("rows", rows).
			Int("child_rows", childRows).
			Int64("stored", l.stored).
			Msg("loader: batch write failed, rolled back")
		return fmt.Errorf("%w: batch %d (%d rows): %w", ErrFlush, l.flushes+1, rows, err)
	}

	l.flushes++
	l.stored += int64(rows)

	st := FlushStats{
		Seq:       l.flushes,
		Rows:      rows,
		ChildRows: childRows,
		Stored:    l.stored,
		Took:      took,
		Elapsed:   l.cfg.Now().Sub(l.start),
	}

	rps := float64(0)
	if st.Elapsed > 0 {
		rps = float64(st.Stored) / st.Elapsed.Seconds()
	}
	l.cfg.Logger.Debug().
		Int64("batch", st.Seq).
		Int("rows", rows).
		Int("child_rows", childRows).
		Int64("stored", st.Stored).
		Float64("rps", rps).
		Dur("took", took).
		Msg("loader: batch committed")

	if l.cfg.OnFlush != nil {
		l.cfg.OnFlush(st)
	}
	return nil
}

// Stored returns the number of committed main rows.
func (l *Loader) Stored() int64 { return l.stored }

// Flushes returns the number of committed batches.
func (l *Loader) Flushes() int64 { return l.flushes }

// Pending returns the number of buffered, uncommitted main rows.
func (l *Loader) Pending() int { return l.batch.Len() }

// LoadRecords drains in into l, flushing on the threshold and once more when
// in is closed. It returns the number of committed main rows.
//
// Cancellation: returns ctx.Err() without flushing; rows already committed
// stay, buffered rows are discarded.
func LoadRecords(ctx context.Context, in <-chan schema.Record, l *Loader) (int64, error) {
	for {
		select {
		case <-ctx.Done():
			return l.Stored(), ctx.Err()

		case rec, ok := <-in:
			if !ok {
				if err := l.Flush(ctx); err != nil {
					return l.Stored(), err
				}
				l.cfg.Logger.Debug().
					Int64("stored", l.Stored()).
					Int64("batches", l.Flushes()).
					Msg("loader: input closed")
				return l.Stored(), nil
			}
			if err := l.Add(ctx, rec); err != nil {
				return l.Stored(), err
			}
		}
	}
}
