package transformer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"movieetl/internal/schema"
)

var (
	// ErrMissingID is returned for a movie without an "id" (or with a null one).
	ErrMissingID = errors.New("missing required field id")

	// ErrInvalidID is returned when "id" is not an integer.
	ErrInvalidID = errors.New("invalid id")

	// ErrShape is returned when a value has a structure the schema does not
	// allow: an array field that is not an array, an object-array element
	// that is not an object, or a nested value where a scalar is declared.
	ErrShape = errors.New("unexpected value shape")
)

// Splitter splits movie objects according to a schema.
type Splitter struct {
	Schema *schema.Schema
	Bools  BoolEncoding
}

// Split maps one decoded movie onto a main tuple and its child tuples.
//
// Missing nested parents (no belongs_to_collection, no videos) and null
// values read as empty, so their columns come out NULL and their arrays
// produce no rows. The only required field is id.
func (s Splitter) Split(movie map[string]any) (schema.Record, error) {
	id, err := movieID(movie)
	if err != nil {
		return schema.Record{}, err
	}

	main := make([]any, len(s.Schema.Columns))
	for i, col := range s.Schema.Columns {
		// The key is never normalized: id 0 is a real id, not NULL.
		if col.PrimaryKey {
			main[i] = id
			continue
		}
		v := Normalize(lookup(movie, col.Path), s.Bools)
		if isNested(v) {
			return schema.Record{}, fmt.Errorf("%w: column %s holds a nested value", ErrShape, col.Name)
		}
		main[i] = v
	}

	children := make(map[string][][]any, len(s.Schema.Children))
	for _, ct := range s.Schema.Children {
		rows, err := s.childRows(id, movie, ct)
		if err != nil {
			return schema.Record{}, err
		}
		children[ct.Name] = rows
	}

	return schema.Record{ID: id, Main: main, Children: children}, nil
}

func (s Splitter) childRows(id int64, movie map[string]any, ct schema.ChildTable) ([][]any, error) {
	raw := lookup(movie, ct.Source)
	if raw == nil {
		return nil, nil
	}
	elems, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want array", ErrShape, pathString(ct.Source), raw)
	}
	if len(elems) == 0 {
		return nil, nil
	}

	rows := make([][]any, 0, len(elems))
	for i, el := range elems {
		row := make([]any, 1, len(ct.Columns)+1)
		row[0] = id

		if ct.Scalar {
			v := Normalize(el, s.Bools)
			if isNested(v) {
				return nil, fmt.Errorf("%w: %s[%d] is not a scalar", ErrShape, pathString(ct.Source), i)
			}
			rows = append(rows, append(row, v))
			continue
		}

		obj, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is %T, want object", ErrShape, pathString(ct.Source), i, el)
		}
		for _, col := range ct.Columns {
			v := Normalize(obj[col.Field], s.Bools)
			if isNested(v) {
				return nil, fmt.Errorf("%w: %s[%d].%s holds a nested value", ErrShape, pathString(ct.Source), i, col.Field)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// movieID extracts the integer primary key.
func movieID(movie map[string]any) (int64, error) {
	raw, ok := movie["id"]
	if !ok || raw == nil {
		return 0, ErrMissingID
	}
	switch x := raw.(type) {
	case number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		if f, err := x.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return int64(f), nil
		}
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<63 {
			return int64(x), nil
		}
	}
	return 0, fmt.Errorf("%w: %v (%T)", ErrInvalidID, raw, raw)
}

// lookup walks path through nested objects. A missing key, a null or a
// non-object parent ends the walk with nil.
func lookup(movie map[string]any, path []string) any {
	var cur any = movie
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[seg]
	}
	return cur
}

func pathString(path []string) string { return strings.Join(path, ".") }
