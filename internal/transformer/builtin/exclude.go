package builtin

import (
	"fmt"
	"sort"
	"strings"
)

// Exclusion is one named check deciding whether a movie is dropped before it
// is split. Match must not modify the movie.
type Exclusion struct {
	Name  string
	Match func(movie map[string]any) bool
}

// Exclusions is an ordered list of checks; the first match wins.
type Exclusions []Exclusion

// Skip reports whether movie is excluded and by which check.
func (xs Exclusions) Skip(movie map[string]any) (string, bool) {
	for _, x := range xs {
		if x.Match(movie) {
			return x.Name, true
		}
	}
	return "", false
}

// Names returns the check names in evaluation order.
func (xs Exclusions) Names() []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.Name
	}
	return out
}

// Names of the built-in checks.
const (
	ExcludeAdult           = "adult"
	ExcludeMissingPoster   = "missing_poster"
	ExcludeMissingOverview = "missing_overview"
)

// DefaultExclusions is the check order of the filtered profile.
var DefaultExclusions = []string{ExcludeAdult, ExcludeMissingPoster, ExcludeMissingOverview}

var registry = map[string]func() Exclusion{
	ExcludeAdult:           Adult,
	ExcludeMissingPoster:   func() Exclusion { return RequireNonEmpty(ExcludeMissingPoster, "poster_path") },
	ExcludeMissingOverview: func() Exclusion { return RequireNonEmpty(ExcludeMissingOverview, "overview") },
}

// Adult excludes movies whose "adult" flag is truthy.
func Adult() Exclusion {
	return Exclusion{
		Name: ExcludeAdult,
		Match: func(movie map[string]any) bool {
			return truthy(movie["adult"])
		},
	}
}

// Known returns the registered check names, sorted.
func Known() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup resolves check names into an Exclusions list, keeping their order.
// Duplicate names are kept once.
func Lookup(names []string) (Exclusions, error) {
	out := make(Exclusions, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		mk, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown exclusion %q (known: %s)", raw, strings.Join(Known(), ", "))
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, mk())
	}
	return out, nil
}

// truthy follows JSON-ish truthiness: false, null, 0, "" and empty
// containers are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int64:
		return x != 0
	case int:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}
