// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import "movieetl/internal/schema"

// MapType maps a logical column type into a Postgres SQL type.
//
//	INTEGER -> BIGINT
//	REAL    -> DOUBLE PRECISION
//	BOOLEAN -> SMALLINT when booleans are stored as 1/0, TEXT for yes/no
//	other   -> TEXT
func MapType(t schema.Type, integerBools bool) string {
	switch t {
	case schema.TypeInteger:
		return "BIGINT"
	case schema.TypeReal:
		return "DOUBLE PRECISION"
	case schema.TypeBoolean:
		if integerBools {
			return "SMALLINT"
		}
		return "TEXT"
	default:
		return "TEXT"
	}
}
