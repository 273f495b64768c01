package ddl

import (
	gddl "movieetl/internal/ddl"
	"movieetl/internal/schema"
)

// BuildSchemaSQL returns DROP/CREATE pairs for every table, qualified with
// dbSchema when it is non-empty.
func BuildSchemaSQL(s *schema.Schema, dbSchema string, integerBools bool) ([]string, error) {
	mapType := func(t schema.Type) string { return MapType(t, integerBools) }
	return gddl.RecreateStatements(gddl.FromSchema(s, dbSchema, mapType))
}
