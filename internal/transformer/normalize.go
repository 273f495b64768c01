// Package transformer turns decoded movie objects into storage-ready tuples.
//
// Normalize maps one raw JSON value onto what the database should see: an
// encoded boolean, NULL (nil) for "empty" values, or the value itself. Split
// applies it to every declared column of the schema.
package transformer

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// BoolEncoding selects how JSON booleans are stored.
type BoolEncoding string

const (
	// BoolTokens stores true/false as "yes"/"no".
	BoolTokens BoolEncoding = "token"
	// BoolIntegers stores true/false as 1/0.
	BoolIntegers BoolEncoding = "integer"
)

// ParseBoolEncoding accepts the configured spelling of an encoding.
func ParseBoolEncoding(s string) (BoolEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "token", "tokens", "yes/no", "yesno":
		return BoolTokens, nil
	case "integer", "integers", "int", "1/0":
		return BoolIntegers, nil
	default:
		return "", fmt.Errorf("unknown boolean encoding %q (want token or integer)", s)
	}
}

// Encode returns the stored form of b. The zero BoolEncoding encodes as
// tokens.
func (e BoolEncoding) Encode(b bool) any {
	if e == BoolIntegers {
		if b {
			return EncodedBool(1)
		}
		return EncodedBool(0)
	}
	if b {
		return "yes"
	}
	return "no"
}

// EncodedBool is a boolean already encoded as 1 or 0. Normalize passes it
// through untouched, so an encoded false is never turned into NULL by the
// zero rule.
type EncodedBool int64

// Value implements driver.Valuer.
func (b EncodedBool) Value() (driver.Value, error) { return int64(b), nil }

// number is satisfied by json.Number from both encoding/json and go-json.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// Normalize maps a decoded JSON value to its storage form.
//
// Rules, in order:
//  1. booleans are encoded with enc;
//  2. "", empty arrays, empty objects and nil become nil (NULL);
//  3. numbers equal to zero become nil;
//  4. everything else passes through.
//
// JSON numbers decoded as json.Number come back as int64 when integral and
// float64 otherwise.
func Normalize(v any, enc BoolEncoding) any {
	switch x := v.(type) {
	case bool:
		// Checked before the zero rule: false must not read as 0.
		return enc.Encode(x)
	case EncodedBool:
		return x
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		return x
	case []any:
		if len(x) == 0 {
			return nil
		}
		return x
	case map[string]any:
		if len(x) == 0 {
			return nil
		}
		return x
	case int:
		return zeroToNil(x == 0, x)
	case int32:
		return zeroToNil(x == 0, x)
	case int64:
		return zeroToNil(x == 0, x)
	case uint64:
		return zeroToNil(x == 0, x)
	case float32:
		return zeroToNil(x == 0, x)
	case float64:
		return zeroToNil(x == 0, x)
	case number:
		return normalizeNumber(x)
	default:
		return v
	}
}

func zeroToNil(zero bool, v any) any {
	if zero {
		return nil
	}
	return v
}

func normalizeNumber(n number) any {
	if i, err := n.Int64(); err == nil {
		return zeroToNil(i == 0, i)
	}
	if f, err := n.Float64(); err == nil {
		return zeroToNil(f == 0, f)
	}
	// Out of range for both; keep the literal.
	return n.String()
}

// isNested reports whether a normalized value is still a JSON structure.
func isNested(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return true
	}
	return false
}
