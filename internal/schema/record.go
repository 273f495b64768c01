package schema

// Record is one movie split into storage-ready tuples.
//
// Main has exactly len(Schema.Columns) values in declared order. Children is
// keyed by child-table name; every tuple starts with ID.
type Record struct {
	ID       int64
	Main     []any
	Children map[string][][]any
}

// ChildRows returns the number of child tuples across all tables.
func (r Record) ChildRows() int {
	n := 0
	for _, rows := range r.Children {
		n += len(rows)
	}
	return n
}
