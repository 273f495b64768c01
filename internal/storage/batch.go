package storage

import "movieetl/internal/schema"

// Batch holds the tuples of one flush: main rows plus child rows per child
// table. A Batch is owned by one goroutine.
type Batch struct {
	schema   *schema.Schema
	main     [][]any
	children map[string][][]any
}

// NewBatch returns an empty batch sized for capacity main rows.
func NewBatch(s *schema.Schema, capacity int) *Batch {
	b := &Batch{
		schema:   s,
		main:     make([][]any, 0, capacity),
		children: make(map[string][][]any, len(s.Children)),
	}
	for _, ct := range s.Children {
		b.children[ct.Name] = nil
	}
	return b
}

// Schema returns the layout the batch was built for.
func (b *Batch) Schema() *schema.Schema { return b.schema }

// Add appends one split record. Child rows for tables the schema does not
// declare are ignored.
func (b *Batch) Add(rec schema.Record) {
	b.main = append(b.main, rec.Main)
	for name, rows := range rec.Children {
		if len(rows) == 0 {
			continue
		}
		if _, ok := b.children[name]; !ok {
			continue
		}
		b.children[name] = append(b.children[name], rows...)
	}
}

// Len returns the number of main rows.
func (b *Batch) Len() int { return len(b.main) }

// ChildRows returns the number of child rows across all tables.
func (b *Batch) ChildRows() int {
	n := 0
	for _, rows := range b.children {
		n += len(rows)
	}
	return n
}

// Main returns the main rows in insertion order.
func (b *Batch) Main() [][]any { return b.main }

// Children returns the buffered rows of one child table.
func (b *Batch) Children(table string) [][]any { return b.children[table] }

// Reset empties every buffer, keeping the main buffer's capacity.
func (b *Batch) Reset() {
	b.main = b.main[:0]
	for name := range b.children {
		b.children[name] = nil
	}
}
