// Package config defines the configuration model of the movie ingest
// pipeline and loads it in layers with koanf:
//
//  1. the struct defaults of the selected profile,
//  2. an optional YAML (or JSON) config file,
//  3. MOVIEETL_* environment variables,
//  4. CLI flags the user set explicitly.
//
// Example file (trimmed):
//
//	job: tmdb-nightly
//	profile: filtered
//	input:
//	  path: movies.jsonl
//	storage:
//	  kind: sqlite
//	  dsn: movies.db
//	runtime:
//	  batch_size: 5000
package config

import (
	"fmt"
	"strings"
	"time"

	"movieetl/internal/transformer/builtin"
)

// Profile names. Each reproduces one of the two historical pipelines.
const (
	// ProfileNormalized stores every movie, booleans as "yes"/"no", with the
	// adult column.
	ProfileNormalized = "normalized"
	// ProfileFiltered drops adult movies and movies without poster or
	// overview, stores booleans as 1/0 and omits the adult column.
	ProfileFiltered = "filtered"
)

// Pipeline is the complete, resolved configuration of one run.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `koanf:"job" validate:"required"`

	// Profile selects the defaults every other knob starts from.
	Profile string `koanf:"profile" validate:"required,oneof=normalized filtered"`

	Input     Input     `koanf:"input"`
	Storage   Storage   `koanf:"storage"`
	Normalize Normalize `koanf:"normalize"`
	Schema    Schema    `koanf:"schema"`
	Filter    Filter    `koanf:"filter"`
	Runtime   Runtime   `koanf:"runtime"`
	Logging   Logging   `koanf:"logging"`
	Metrics   Metrics   `koanf:"metrics"`
}

// Input is the NDJSON source.
type Input struct {
	// Path is the local filesystem path to the input file.
	Path string `koanf:"path" validate:"required"`
}

// Storage selects and configures the relational sink.
type Storage struct {
	// Kind selects the backend registered under that name.
	Kind string `koanf:"kind" validate:"required,oneof=sqlite postgres"`

	// DSN is a file path for sqlite or a connection string for postgres.
	DSN string `koanf:"dsn" validate:"required"`

	// Table is the main table name; child table names are fixed.
	Table string `koanf:"table" validate:"required"`

	// DBSchema optionally qualifies every table (postgres only).
	DBSchema string `koanf:"db_schema"`

	// JournalMode and Synchronous are SQLite pragmas.
	JournalMode string `koanf:"journal_mode"`
	Synchronous string `koanf:"synchronous"`
}

// Normalize configures the value normalizer.
type Normalize struct {
	// BoolEncoding is "token" (yes/no) or "integer" (1/0).
	BoolEncoding string `koanf:"bool_encoding" validate:"required"`
}

// Schema tweaks the main-table column set.
type Schema struct {
	IncludeAdult bool `koanf:"include_adult"`
}

// Filter configures the exclusion checks.
type Filter struct {
	Enabled bool `koanf:"enabled"`

	// Exclude lists check names in evaluation order.
	Exclude []string `koanf:"exclude"`
}

// Runtime controls batching and progress reporting.
type Runtime struct {
	// BatchSize is the number of main rows per committed transaction.
	BatchSize int `koanf:"batch_size" validate:"min=1"`

	// ProgressInterval is how often the CLI prints a progress line in
	// addition to the line printed after every flush. Zero disables it.
	ProgressInterval time.Duration `koanf:"progress_interval" validate:"min=0"`
}

// Logging configures the global zerolog logger.
type Logging struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=console json"`
}

// Metrics selects an optional metrics backend.
type Metrics struct {
	Backend        string `koanf:"backend" validate:"omitempty,oneof=none pushgateway datadog"`
	PushgatewayURL string `koanf:"pushgateway_url" validate:"omitempty,url"`
	StatsdAddr     string `koanf:"statsd_addr"`
	Namespace      string `koanf:"namespace"`
}

// Defaults returns the defaults of the named profile. An empty name selects
// ProfileNormalized.
func Defaults(profile string) (Pipeline, error) {
	p := Pipeline{
		Job:     "movieetl",
		Profile: ProfileNormalized,
		Storage: Storage{
			Kind:        "sqlite",
			DSN:         "movies.db",
			Table:       "movies",
			JournalMode: "WAL",
			Synchronous: "NORMAL",
		},
		Normalize: Normalize{BoolEncoding: "token"},
		Schema:    Schema{IncludeAdult: true},
		Filter:    Filter{Exclude: []string{}},
		Runtime:   Runtime{BatchSize: 1000},
		Logging:   Logging{Level: "info", Format: "console"},
		Metrics:   Metrics{Backend: "none"},
	}

	switch strings.ToLower(strings.TrimSpace(profile)) {
	case "", ProfileNormalized:
	case ProfileFiltered:
		p.Profile = ProfileFiltered
		p.Normalize.BoolEncoding = "integer"
		p.Schema.IncludeAdult = false
		p.Filter.Enabled = true
		p.Filter.Exclude = append([]string(nil), builtin.DefaultExclusions...)
	default:
		return Pipeline{}, fmt.Errorf("unknown profile %q (want %s or %s)", profile, ProfileNormalized, ProfileFiltered)
	}
	return p, nil
}
