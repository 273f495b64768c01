// Package etl drives one ingest run: it checks the input, opens the storage
// backend, recreates the tables and streams the NDJSON file through the
// filter, the splitter and the batch loader.
//
// The package never prints. Progress is exposed through Progress and the
// OnFlush callback; diagnostics go to the injected zerolog.Logger.
package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"movieetl/internal/datasource"
	"movieetl/internal/datasource/file"
	"movieetl/internal/metrics"
	jsonparser "movieetl/internal/parser/json"
	"movieetl/internal/schema"
	"movieetl/internal/storage"
	"movieetl/internal/transformer"
	"movieetl/internal/transformer/builtin"
)

// ErrInputNotFound is returned by Run before any table is touched when the
// input path does not name a readable regular file.
var ErrInputNotFound = errors.New("etl: input not found")

// DefaultBatchSize is the flush threshold used when Options.BatchSize is not
// positive.
const DefaultBatchSize = 1000

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newRepositoryFn = storage.New

	openSourceFn = func(ctx context.Context, path string) (io.ReadCloser, error) {
		var src datasource.Source = file.NewLocal(path)
		return src.Open(ctx)
	}
)

// Options configures one run.
type Options struct {
	// Job labels logs and metrics.
	Job string

	// InputPath is the NDJSON file to ingest.
	InputPath string

	// Storage selects the backend. Schema and IntegerBools are filled in
	// by Run.
	Storage storage.Config

	// Table is the main table name; schema.DefaultTable when empty.
	Table string

	// IncludeAdult keeps the adult column in the main table.
	IncludeAdult bool

	// Bools selects the boolean encoding.
	Bools transformer.BoolEncoding

	// Exclusions are evaluated in order; empty disables filtering.
	Exclusions builtin.Exclusions

	// BatchSize is the number of main rows per transaction.
	BatchSize int

	// Logger receives diagnostics. The zero value discards.
	Logger zerolog.Logger

	// Progress, when set, is updated live so the caller can poll it.
	Progress *Progress

	// OnFlush is called after every committed batch with fresh counters.
	OnFlush func(Summary)

	// OnRecordError is called for every skipped line: malformed JSON or a
	// movie that cannot be split. line is 1-based.
	OnRecordError func(line int, err error)
}

// Schema resolves the table layout the options describe.
func (o Options) Schema() (*schema.Schema, error) {
	return schema.New(schema.Options{Table: o.Table, IncludeAdult: o.IncludeAdult})
}

// Run executes a full-refresh ingest of opts.InputPath.
//
// Fatal errors are returned: ErrInputNotFound (before storage is opened),
// storage open and DDL failures, and storage.ErrFlush. Malformed lines and
// invalid movies are counted and skipped.
func Run(ctx context.Context, opts Options) (Summary, error) {
	log := opts.Logger.With().Str("job", opts.Job).Logger()
	opts.Logger = log

	if _, err := file.NewLocal(opts.InputPath).Check(); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, file.ErrNotRegular) {
			return Summary{}, fmt.Errorf("%w: %w", ErrInputNotFound, err)
		}
		return Summary{}, fmt.Errorf("etl: %w", err)
	}

	s, err := opts.Schema()
	if err != nil {
		return Summary{}, err
	}

	cfg := opts.Storage
	cfg.Schema = s
	cfg.IntegerBools = opts.Bools == transformer.BoolIntegers

	log.Info().
		Str("input", opts.InputPath).
		Str("storage", cfg.Kind).
		Str("table", s.Table).
		Strs("exclusions", opts.Exclusions.Names()).
		Msg("etl: starting")

	repo, err := newRepositoryFn(ctx, cfg)
	if err != nil {
		return Summary{}, fmt.Errorf("etl: open storage: %w", err)
	}
	defer repo.Close()

	t0 := time.Now()
	err = repo.PrepareSchema(ctx)
	metrics.RecordStep(opts.Job, "prepare_schema", err, time.Since(t0))
	if err != nil {
		return Summary{}, fmt.Errorf("etl: prepare schema: %w", err)
	}

	src, err := openSourceFn(ctx, opts.InputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("etl: open input: %w", err)
	}
	defer src.Close()

	t0 = time.Now()
	sum, err := Ingest(ctx, src, repo, s, opts)
	metrics.RecordStep(opts.Job, "ingest", err, time.Since(t0))
	recordSummary(opts.Job, sum)
	logSummary(log, sum, err)
	return sum, err
}

// Ingest streams r into repo, which must already hold the tables of s.
//
// Two goroutines share the work: the reader decodes, filters and splits
// one line at a time and hands each record over an unbuffered channel to
// the loader, the only goroutine touching repo. The first error cancels
// both; buffered rows that were not committed are discarded.
func Ingest(ctx context.Context, r io.Reader, repo storage.Repository, s *schema.Schema, opts Options) (Summary, error) {
	prog := opts.Progress
	if prog == nil {
		prog = NewProgress()
	}
	log := opts.Logger

	loader, err := storage.NewLoader(repo, s, storage.LoaderConfig{
		BatchSize: pickInt(opts.BatchSize, DefaultBatchSize),
		Logger:    log,
		OnFlush: func(st storage.FlushStats) {
			prog.stored.Store(st.Stored)
			prog.flushes.Store(st.Seq)
			metrics.RecordBatch(opts.Job, st.Rows, st.ChildRows, st.Took)
			if opts.OnFlush != nil {
				opts.OnFlush(prog.Snapshot())
			}
		},
	})
	if err != nil {
		return prog.Snapshot(), err
	}

	splitter := transformer.Splitter{Schema: s, Bools: opts.Bools}
	reject := func(line int, err error) {
		if opts.OnRecordError != nil {
			opts.OnRecordError(line, err)
		}
	}

	records := make(chan schema.Record)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		emit := func(obj jsonparser.Object) error {
			prog.read.Add(1)

			if reason, skip := opts.Exclusions.Skip(obj.Value); skip {
				prog.skip(reason)
				return nil
			}

			rec, err := splitter.Split(obj.Value)
			if err != nil {
				prog.invalid.Add(1)
				log.Warn().Int("line", obj.Line).Err(err).Msg("skipping movie")
				reject(obj.Line, err)
				return nil
			}

			select {
			case records <- rec:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		onParseErr := func(line int, err error) {
			prog.parseErrors.Add(1)
			log.Warn().Int("line", line).Err(err).Msg("bad json")
			reject(line, err)
		}

		if err := jsonparser.StreamObjects(gctx, r, emit, onParseErr); err != nil {
			return err
		}
		// Closing only on success keeps the loader from flushing a
		// remainder after a read error.
		close(records)
		return nil
	})

	g.Go(func() error {
		_, err := storage.LoadRecords(gctx, records, loader)
		return err
	})

	err = g.Wait()
	prog.stored.Store(loader.Stored())
	return prog.Snapshot(), err
}

// recordSummary exports the final counters to the metrics backend.
func recordSummary(job string, s Summary) {
	metrics.RecordRow(job, metrics.KindRead, s.Read)
	metrics.RecordRow(job, metrics.KindStored, s.Stored)
	metrics.RecordRow(job, metrics.KindSkipped, s.Skipped)
	metrics.RecordRow(job, metrics.KindParseErrors, s.ParseErrors)
	metrics.RecordRow(job, metrics.KindInvalid, s.Invalid)
	for _, reason := range s.Reasons() {
		metrics.RecordSkip(job, reason, s.SkipReasons[reason])
	}
}

// logSummary logs the final counters. On success every decoded object is
// accounted for:
//
//	read == stored + skipped + invalid
func logSummary(log zerolog.Logger, s Summary, runErr error) {
	ev := log.Info()
	if runErr != nil {
		ev = log.Error().Err(runErr)
	}
	reasons := zerolog.Dict()
	for _, r := range s.Reasons() {
		reasons.Int64(r, s.SkipReasons[r])
	}
	ev.Int64("read", s.Read).
		Int64("stored", s.Stored).
		Int64("skipped", s.Skipped).
		Dict("skip_reasons", reasons).
		Int64("parse_errors", s.ParseErrors).
		Int64("invalid", s.Invalid).
		Int64("batches", s.Flushes).
		Dur("elapsed", s.Elapsed).
		Float64("rows_per_sec", s.Throughput).
		Msg("etl: summary")

	if runErr == nil && s.Unaccounted() != 0 {
		log.Warn().
			Int64("read", s.Read).
			Int64("delta", s.Unaccounted()).
			Msg("etl: row accounting mismatch")
	}
}

// pickInt chooses the first positive value 'a', otherwise returns 'b'.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
