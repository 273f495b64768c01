// Command movieetl rebuilds a relational movie database from a TMDB-style
// NDJSON export.
//
//	movieetl [flags] <jsonl_file> [movies.db]
//
// Every flag maps onto a configuration key (see internal/config); flags the
// user sets explicitly win over the config file and MOVIEETL_* variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"movieetl/internal/config"
	"movieetl/internal/etl"
	"movieetl/internal/logging"
	"movieetl/internal/metrics"
	"movieetl/internal/metrics/datadog"
	"movieetl/internal/metrics/prompush"
	"movieetl/internal/storage"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "movieetl/internal/storage/all"
)

const usageLine = "usage: movieetl [flags] <jsonl_file> [movies.db]"

// flagKeys maps flag names onto configuration paths.
var flagKeys = map[string]string{
	"job":               "job",
	"profile":           "profile",
	"storage":           "storage.kind",
	"dsn":               "storage.dsn",
	"table":             "storage.table",
	"db-schema":         "storage.db_schema",
	"journal-mode":      "storage.journal_mode",
	"synchronous":       "storage.synchronous",
	"bool-encoding":     "normalize.bool_encoding",
	"include-adult":     "schema.include_adult",
	"filter":            "filter.enabled",
	"exclude":           "filter.exclude",
	"batch-size":        "runtime.batch_size",
	"progress-interval": "runtime.progress_interval",
	"log-level":         "logging.level",
	"log-format":        "logging.format",
	"metrics-backend":   "metrics.backend",
	"pushgateway-url":   "metrics.pushgateway_url",
	"statsd-addr":       "metrics.statsd_addr",
	"metrics-namespace": "metrics.namespace",
}

// Function variables used to introduce test seams.
var runFn = etl.Run

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cliFlags struct {
	configPath string
	validate   bool
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *cliFlags) {
	fs := flag.NewFlagSet("movieetl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cf := &cliFlags{}
	fs.StringVar(&cf.configPath, "config", "", "optional pipeline config file (YAML or JSON)")
	fs.BoolVar(&cf.validate, "validate", false, "validate the configuration and exit")

	// Defaults shown here are the profile defaults; only flags that are set
	// explicitly reach the configuration.
	fs.String("job", "movieetl", "job name used in logs and metrics")
	fs.String("profile", config.ProfileNormalized, "defaults profile: normalized or filtered")
	fs.String("storage", "sqlite", "storage backend: "+strings.Join(storage.ListKinds(), ", "))
	fs.String("dsn", "movies.db", "database file or connection string (same as the second argument)")
	fs.String("table", "movies", "main table name")
	fs.String("db-schema", "", "postgres schema qualifying every table")
	fs.String("journal-mode", "WAL", "sqlite journal_mode pragma")
	fs.String("synchronous", "NORMAL", "sqlite synchronous pragma")
	fs.String("bool-encoding", "token", "boolean encoding: token (yes/no) or integer (1/0)")
	fs.Bool("include-adult", true, "keep the adult column in the main table")
	fs.Bool("filter", false, "enable the exclusion checks")
	fs.String("exclude", "", "comma-separated exclusion checks, in order (adult,missing_poster,missing_overview)")
	fs.Int("batch-size", etl.DefaultBatchSize, "movies per committed transaction")
	fs.Duration("progress-interval", 0, "also print progress on this interval (0 disables)")
	fs.String("log-level", "info", "log level: trace, debug, info, warn, error")
	fs.String("log-format", "console", "log format: console or json")
	fs.String("metrics-backend", "none", "metrics backend: none, pushgateway or datadog")
	fs.String("pushgateway-url", "", "Pushgateway base URL")
	fs.String("statsd-addr", "", "DogStatsD address, e.g. 127.0.0.1:8125")
	fs.String("metrics-namespace", "", "DogStatsD metric name prefix")

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usageLine)
		fs.PrintDefaults()
	}
	return fs, cf
}

// flagOverrides collects the flags the user set, keyed by config path.
func flagOverrides(fs *flag.FlagSet) map[string]any {
	out := make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if g, ok := f.Value.(flag.Getter); ok {
			out[key] = g.Get()
			return
		}
		out[key] = f.Value.String()
	})
	return out
}

// run is main without the process exit, returning the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, cf := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() > 2 {
		fs.Usage()
		return 1
	}

	overrides := flagOverrides(fs)
	if fs.NArg() > 0 {
		overrides["input.path"] = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		overrides["storage.dsn"] = fs.Arg(1)
	}

	p, err := config.Load(config.LoadOptions{File: cf.configPath, Overrides: overrides})
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if p.Input.Path == "" && !cf.validate {
		fs.Usage()
		return 1
	}

	logging.Init(logging.Config{Level: p.Logging.Level, Format: p.Logging.Format, Output: stderr})
	log := logging.Logger()

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Error().Msg("configuration is invalid")
		return 1
	}
	if cf.validate {
		fmt.Fprintln(stdout, "configuration is valid")
		return 0
	}

	flushMetrics := setupMetrics(p, log)
	defer flushMetrics()

	opts, err := etl.OptionsFromConfig(p, log)
	if err != nil {
		log.Error().Err(err).Msg("configuration is invalid")
		return 1
	}

	out := newReporter(stdout)
	opts.Progress = etl.NewProgress()
	opts.OnFlush = out.progress

	sum, err := ingest(ctx, opts, p.Runtime.ProgressInterval, out)
	if err != nil {
		if errors.Is(err, etl.ErrInputNotFound) {
			log.Error().Str("input", p.Input.Path).Msg("input file not found")
		} else {
			log.Error().Err(err).Msg("ingest failed")
		}
		return 1
	}
	out.finished(sum)
	return 0
}

// ingest runs the pipeline and, when every is positive, a poller printing
// the live counters until the run returns.
func ingest(ctx context.Context, opts etl.Options, every time.Duration, out *reporter) (etl.Summary, error) {
	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	var sum etl.Summary
	g.Go(func() error {
		defer close(done)
		var err error
		sum, err = runFn(gctx, opts)
		return err
	})

	if every > 0 && opts.Progress != nil {
		g.Go(func() error {
			t := time.NewTicker(every)
			defer t.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-t.C:
					out.progress(opts.Progress.Snapshot())
				}
			}
		})
	}

	err := g.Wait()
	return sum, err
}

// setupMetrics installs the configured backend and returns its flush func.
// A backend that cannot be created is logged and metrics stay disabled.
func setupMetrics(p config.Pipeline, log zerolog.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch p.Metrics.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.StatsdAddr,
			Namespace:  p.Metrics.Namespace,
			GlobalTags: []string{"job:" + p.Job},
		})
	default:
		log.Debug().Str("backend", p.Metrics.Backend).Msg("metrics: disabled")
		return func() {}
	}
	if err != nil {
		log.Warn().Err(err).Str("backend", p.Metrics.Backend).Msg("metrics: init failed; using nop")
		return func() {}
	}

	log.Info().Str("backend", p.Metrics.Backend).Str("job", p.Job).Msg("metrics: enabled")
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn().Err(err).Msg("metrics: flush error")
		}
	}
}
