package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "MOVIEETL_"

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// File is an optional YAML or JSON config file.
	File string

	// Overrides are values of flags the user set explicitly, keyed by koanf
	// path ("storage.dsn", "runtime.batch_size", ...).
	Overrides map[string]any

	// Environ replaces os.Environ when non-nil.
	Environ []string
}

// sliceConfigPaths are paths that may arrive as comma-separated strings from
// the environment or flags.
var sliceConfigPaths = []string{
	"filter.exclude",
}

// Load resolves the pipeline configuration.
//
// The profile decides the defaults, yet it may itself come from any layer,
// so the file, environment and overrides are read once to find it and then
// layered again on top of that profile's defaults.
func Load(opts LoadOptions) (Pipeline, error) {
	probe := koanf.New(".")
	if err := loadUserLayers(probe, opts); err != nil {
		return Pipeline{}, err
	}

	defaults, err := Defaults(probe.String("profile"))
	if err != nil {
		return Pipeline{}, err
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return Pipeline{}, fmt.Errorf("load defaults: %w", err)
	}
	if err := loadUserLayers(k, opts); err != nil {
		return Pipeline{}, err
	}
	if err := processSliceFields(k); err != nil {
		return Pipeline{}, err
	}

	var p Pipeline
	if err := k.Unmarshal("", &p); err != nil {
		return Pipeline{}, fmt.Errorf("unmarshal configuration: %w", err)
	}
	return p, nil
}

// loadUserLayers applies the file, environment and override layers in order.
func loadUserLayers(k *koanf.Koanf, opts LoadOptions) error {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", opts.File, err)
		}
	}

	if opts.Environ != nil {
		for path, v := range envOverrides(opts.Environ) {
			if err := k.Set(path, v); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	} else if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return fmt.Errorf("load environment variables: %w", err)
	}

	for path, v := range opts.Overrides {
		if err := k.Set(path, v); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps an environment variable name onto a koanf path. The
// first underscore after the prefix separates the section from the key:
//
//	MOVIEETL_JOB                 -> job
//	MOVIEETL_STORAGE_DSN         -> storage.dsn
//	MOVIEETL_RUNTIME_BATCH_SIZE  -> runtime.batch_size
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// envOverrides applies envTransformFunc to an explicit KEY=VALUE list.
func envOverrides(environ []string) map[string]string {
	out := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		if path := envTransformFunc(name); path != "" {
			out[path] = value
		}
	}
	return out
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
