// Package ddl contains SQLite-specific helpers for generating DDL.
//
// SQLite types are affinities, so the logical schema types are used as
// declared: INTEGER, REAL, TEXT and BOOLEAN (NUMERIC affinity, which stores
// both the yes/no tokens and 1/0 unchanged).
package ddl

import "movieetl/internal/schema"

// MapType maps a logical column type into a SQLite column type.
func MapType(t schema.Type) string {
	switch t {
	case schema.TypeInteger, schema.TypeReal, schema.TypeBoolean:
		return string(t)
	default:
		return "TEXT"
	}
}
