// Package schema declares the relational shape movies are normalized into.
//
// The main table holds one flat row per movie; six child tables hold one row
// per element of a nested array. Everything here is plain data: the DDL
// builders, the record splitter and the insert-statement builders all read the
// same declarations instead of re-deriving column lists on their own.
package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Type is the logical storage type of a column. The values double as the
// SQLite column types used by the embedded backend.
type Type string

const (
	TypeInteger Type = "INTEGER"
	TypeReal    Type = "REAL"
	TypeText    Type = "TEXT"
	TypeBoolean Type = "BOOLEAN"
)

// DefaultTable is the main table name used when none is configured.
const DefaultTable = "movies"

// ParentColumn is the first column of every child table. It carries the id of
// the owning movie; it is a back-reference, not an enforced foreign key.
const ParentColumn = "movie_id"

// Column is one column of the main table.
type Column struct {
	Name       string
	Type       Type
	PrimaryKey bool

	// Path is the location of the source value inside the movie object.
	Path []string
}

// ChildColumn is one element-level column of a child table.
type ChildColumn struct {
	Name string
	Type Type

	// Field is the key read from each array element. It is empty for tables
	// whose elements are plain scalars.
	Field string
}

// ChildTable declares a child table fed by one nested array of the movie.
type ChildTable struct {
	Name string

	// Source is the path to the array inside the movie object, e.g.
	// ["videos", "results"].
	Source []string

	// Scalar is true when the array holds plain values rather than objects;
	// such a table has exactly one element column.
	Scalar bool

	Columns []ChildColumn
}

// ColumnNames returns the full insert column list, parent column first.
func (c ChildTable) ColumnNames() []string {
	out := make([]string, 0, len(c.Columns)+1)
	out = append(out, ParentColumn)
	for _, col := range c.Columns {
		out = append(out, col.Name)
	}
	return out
}

// Options selects the variant of the main table.
type Options struct {
	// Table is the main table name; DefaultTable when empty.
	Table string

	// IncludeAdult keeps the "adult" flag as a main-table column. The
	// filtered pipeline drops it because adult movies never reach storage.
	IncludeAdult bool
}

// Schema is the resolved main table plus the fixed child tables.
type Schema struct {
	Table    string
	Columns  []Column
	Children []ChildTable
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// New resolves the movie schema for the given options.
func New(opts Options) (*Schema, error) {
	table := strings.TrimSpace(opts.Table)
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("schema: invalid table name %q", table)
	}

	children := childTables()
	for _, c := range children {
		if strings.EqualFold(c.Name, table) {
			return nil, fmt.Errorf("schema: table name %q collides with a child table", table)
		}
	}

	cols := make([]Column, 0, len(mainColumns))
	for _, d := range mainColumns {
		if d.name == "adult" && !opts.IncludeAdult {
			continue
		}
		cols = append(cols, Column{
			Name:       d.name,
			Type:       d.typ,
			PrimaryKey: d.name == "id",
			Path:       SourcePath(d.name),
		})
	}

	return &Schema{Table: table, Columns: cols, Children: children}, nil
}

// ColumnNames returns the main-table columns in declared order.
func (s *Schema) ColumnNames() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// TableNames returns the main table followed by the child tables.
func (s *Schema) TableNames() []string {
	out := make([]string, 0, len(s.Children)+1)
	out = append(out, s.Table)
	for _, c := range s.Children {
		out = append(out, c.Name)
	}
	return out
}

// Child looks up a child table by name.
func (s *Schema) Child(name string) (ChildTable, bool) {
	for _, c := range s.Children {
		if c.Name == name {
			return c, true
		}
	}
	return ChildTable{}, false
}

// PrefixRule maps a column-name prefix onto a nested object of the movie.
type PrefixRule struct {
	Prefix string
	Object string
}

// PrefixRules lists the nested objects flattened into the main table.
var PrefixRules = []PrefixRule{
	{Prefix: "collection_", Object: "belongs_to_collection"},
	{Prefix: "external_", Object: "external_ids"},
}

// SourcePath returns where a main-table column reads its value from:
// "collection_name" reads belongs_to_collection.name, "external_imdb_id"
// reads external_ids.imdb_id and everything else reads the like-named
// top-level field.
func SourcePath(column string) []string {
	for _, r := range PrefixRules {
		if suffix, ok := strings.CutPrefix(column, r.Prefix); ok && suffix != "" {
			return []string{r.Object, suffix}
		}
	}
	return []string{column}
}
