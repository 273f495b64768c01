package ddl

import (
	gddl "movieetl/internal/ddl"
	"movieetl/internal/schema"
)

// BuildSchemaSQL returns the statements that drop and recreate the main
// table and every child table, in that order.
func BuildSchemaSQL(s *schema.Schema) ([]string, error) {
	return gddl.RecreateStatements(gddl.FromSchema(s, "", MapType))
}
