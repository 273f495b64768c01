// Package jsonparser reads newline-delimited JSON movie objects.
//
// Every non-blank line must hold exactly one JSON object:
//
//	{"id":1,"title":"a"}
//	{"id":2,"title":"b"}
//
// Numbers decode as json.Number so callers can tell integers from reals and
// test for zero exactly. A line that is not valid JSON, holds trailing data
// or holds a non-object value is reported and skipped; it never stops the
// stream.
package jsonparser

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// ErrNotObject is returned for a well-formed line whose value is not a JSON
// object (an array, a scalar or null).
var ErrNotObject = errors.New("json value is not an object")

// ErrTrailingData is returned when a line holds more than one JSON value.
var ErrTrailingData = errors.New("trailing data after json object")

// Decode parses one line into a movie object.
func Decode(line []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	// UseNumber so zero tests and integer ids are exact.
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("json parser: decode: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("json parser: %w (got %s)", ErrNotObject, kind(raw))
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("json parser: %w", ErrTrailingData)
	}
	return obj, nil
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}
