package ddl

import "movieetl/internal/schema"

// ColumnDef describes a single column in a table definition. It uses simple,
// database-agnostic fields.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., INTEGER, BIGINT, TEXT)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name and an ordered list of columns. FQN may be
// dotted ("schema.table"); renderers quote each segment.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// TypeMapper maps a logical schema type onto a dialect SQL type.
type TypeMapper func(schema.Type) string

// FromSchema builds the main table followed by every child table. qualifier,
// when non-empty, is prepended to every table name ("public" gives
// "public.movies").
func FromSchema(s *schema.Schema, qualifier string, mapType TypeMapper) []TableDef {
	qualify := func(name string) string {
		if qualifier == "" {
			return name
		}
		return qualifier + "." + name
	}

	defs := make([]TableDef, 0, len(s.Children)+1)

	main := TableDef{FQN: qualify(s.Table), Columns: make([]ColumnDef, 0, len(s.Columns))}
	for _, c := range s.Columns {
		main.Columns = append(main.Columns, ColumnDef{
			Name:       c.Name,
			SQLType:    mapType(c.Type),
			Nullable:   !c.PrimaryKey,
			PrimaryKey: c.PrimaryKey,
		})
	}
	defs = append(defs, main)

	for _, ct := range s.Children {
		def := TableDef{FQN: qualify(ct.Name), Columns: make([]ColumnDef, 0, len(ct.Columns)+1)}
		// Back-reference only, not a FOREIGN KEY.
		def.Columns = append(def.Columns, ColumnDef{
			Name:     schema.ParentColumn,
			SQLType:  mapType(schema.TypeInteger),
			Nullable: true,
		})
		for _, c := range ct.Columns {
			def.Columns = append(def.Columns, ColumnDef{Name: c.Name, SQLType: mapType(c.Type), Nullable: true})
		}
		defs = append(defs, def)
	}
	return defs
}
