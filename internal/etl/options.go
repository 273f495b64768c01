package etl

import (
	"fmt"

	"github.com/rs/zerolog"

	"movieetl/internal/config"
	"movieetl/internal/storage"
	"movieetl/internal/transformer"
	"movieetl/internal/transformer/builtin"
)

// OptionsFromConfig maps a resolved pipeline configuration onto run
// Options. Callbacks and Progress are left for the caller to set.
func OptionsFromConfig(p config.Pipeline, log zerolog.Logger) (Options, error) {
	bools, err := transformer.ParseBoolEncoding(p.Normalize.BoolEncoding)
	if err != nil {
		return Options{}, fmt.Errorf("normalize.bool_encoding: %w", err)
	}

	var exclusions builtin.Exclusions
	if p.Filter.Enabled {
		exclusions, err = builtin.Lookup(p.Filter.Exclude)
		if err != nil {
			return Options{}, fmt.Errorf("filter.exclude: %w", err)
		}
	}

	return Options{
		Job:       p.Job,
		InputPath: p.Input.Path,
		Storage: storage.Config{
			Kind:        p.Storage.Kind,
			DSN:         p.Storage.DSN,
			DBSchema:    p.Storage.DBSchema,
			JournalMode: p.Storage.JournalMode,
			Synchronous: p.Storage.Synchronous,
		},
		Table:        p.Storage.Table,
		IncludeAdult: p.Schema.IncludeAdult,
		Bools:        bools,
		Exclusions:   exclusions,
		BatchSize:    p.Runtime.BatchSize,
		Logger:       log,
	}, nil
}
