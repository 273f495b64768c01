package ddl

import (
	"strconv"
	"strings"
	"testing"

	"movieetl/internal/schema"
)

// TestBuildCreateTableSQL verifies the generated CREATE TABLE statements and
// the errors for invalid definitions.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		wantErr     bool
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{FQN: "", Columns: []ColumnDef{{Name: "id", SQLType: "INTEGER"}}},
			wantErr:     true,
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "movies"},
			wantErr:     true,
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "movies", Columns: []ColumnDef{{Name: "", SQLType: "INTEGER"}}},
			wantErr:     true,
			errContains: "column with empty name",
		},
		{
			name:        "column with empty type returns error",
			def:         TableDef{FQN: "movies", Columns: []ColumnDef{{Name: "id", SQLType: " "}}},
			wantErr:     true,
			errContains: "missing SQLType",
		},
		{
			name: "nullable column",
			def: TableDef{
				FQN:     "movie_genres",
				Columns: []ColumnDef{{Name: "movie_id", SQLType: "INTEGER", Nullable: true}},
			},
			wantSQL: "CREATE TABLE \"movie_genres\" (\n  \"movie_id\" INTEGER\n);",
		},
		{
			name: "primary key column",
			def: TableDef{
				FQN: "movies",
				Columns: []ColumnDef{
					{Name: "id", SQLType: "INTEGER", PrimaryKey: true},
					{Name: "title", SQLType: "TEXT", Nullable: true},
				},
			},
			wantSQL: "CREATE TABLE \"movies\" (\n  \"id\" INTEGER NOT NULL,\n  \"title\" TEXT,\n  PRIMARY KEY (\"id\")\n);",
		},
		{
			name: "default expression",
			def: TableDef{
				FQN:     "movies",
				Columns: []ColumnDef{{Name: "status", SQLType: "TEXT", Default: "  'Released'  "}},
			},
			wantSQL: "CREATE TABLE \"movies\" (\n  \"status\" TEXT NOT NULL DEFAULT 'Released'\n);",
		},
		{
			name: "qualified name and whitespace",
			def: TableDef{
				FQN:     "  public.movies  ",
				Columns: []ColumnDef{{Name: "  key  ", SQLType: "  TEXT  ", Nullable: true}},
			},
			wantSQL: "CREATE TABLE \"public\".\"movies\" (\n  \"key\" TEXT\n);",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotSQL, err := BuildCreateTableSQL(tt.def)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("BuildCreateTableSQL() error = nil, want non-nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("BuildCreateTableSQL() error = %q, want substring %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL() unexpected error = %v", err)
			}
			if gotSQL != tt.wantSQL {
				t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", gotSQL, tt.wantSQL)
			}
		})
	}
}

func TestBuildDropTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildDropTableSQL("public.movies")
	if err != nil {
		t.Fatalf("BuildDropTableSQL() unexpected error = %v", err)
	}
	if want := `DROP TABLE IF EXISTS "public"."movies";`; got != want {
		t.Fatalf("BuildDropTableSQL() = %q, want %q", got, want)
	}
	if _, err := BuildDropTableSQL("  "); err == nil {
		t.Fatalf("BuildDropTableSQL(blank) error = nil, want non-nil")
	}
}

// TestQuoteIdent checks double-quote escaping.
func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"name":       `"name"`,
		"":           `""`,
		`weird"name`: `"weird""name"`,
	}
	for in, want := range tests {
		if got := QuoteIdent(in); got != want {
			t.Fatalf("QuoteIdent(%q) = %q, want %q", in, got, want)
		}
	}
	if got := QuoteFQN("main..movies"); got != `"main"."movies"` {
		t.Fatalf("QuoteFQN() = %q", got)
	}
	if got := QuoteList([]string{"id", "key"}); got != `"id", "key"` {
		t.Fatalf("QuoteList() = %q", got)
	}
}

// TestFromSchema checks table order, the primary key and the parent column
// of child tables.
func TestFromSchema(t *testing.T) {
	t.Parallel()

	s, err := schema.New(schema.Options{IncludeAdult: true})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	defs := FromSchema(s, "", func(t schema.Type) string { return "X_" + string(t) })

	if got, want := len(defs), 7; got != want {
		t.Fatalf("len(defs) = %d, want %d", got, want)
	}
	main := defs[0]
	if main.FQN != "movies" || len(main.Columns) != len(s.Columns) {
		t.Fatalf("main table = %s with %d columns", main.FQN, len(main.Columns))
	}
	if c := main.Columns[0]; c.Name != "id" || !c.PrimaryKey || c.Nullable || c.SQLType != "X_INTEGER" {
		t.Fatalf("id column = %+v", c)
	}
	if c := main.Columns[1]; c.Name != "adult" || c.SQLType != "X_BOOLEAN" || !c.Nullable {
		t.Fatalf("adult column = %+v", c)
	}

	for i, ct := range s.Children {
		d := defs[i+1]
		if d.FQN != ct.Name {
			t.Fatalf("defs[%d].FQN = %s, want %s", i+1, d.FQN, ct.Name)
		}
		if d.Columns[0].Name != schema.ParentColumn || d.Columns[0].PrimaryKey {
			t.Fatalf("%s first column = %+v", d.FQN, d.Columns[0])
		}
		if len(d.Columns) != len(ct.Columns)+1 {
			t.Fatalf("%s has %d columns, want %d", d.FQN, len(d.Columns), len(ct.Columns)+1)
		}
	}

	qualified := FromSchema(s, "public", func(schema.Type) string { return "TEXT" })
	if qualified[0].FQN != "public.movies" || qualified[6].FQN != "public."+schema.TableVideos {
		t.Fatalf("qualified names = %s, %s", qualified[0].FQN, qualified[6].FQN)
	}
}

func TestRecreateStatements(t *testing.T) {
	t.Parallel()

	stmts, err := RecreateStatements([]TableDef{
		{FQN: "movies", Columns: []ColumnDef{{Name: "id", SQLType: "INTEGER", PrimaryKey: true}}},
		{FQN: "movie_genres", Columns: []ColumnDef{{Name: "movie_id", SQLType: "INTEGER", Nullable: true}}},
	})
	if err != nil {
		t.Fatalf("RecreateStatements() unexpected error = %v", err)
	}
	if len(stmts) != 4 {
		t.Fatalf("got %d statements, want 4", len(stmts))
	}
	for i, prefix := range []string{"DROP TABLE IF EXISTS \"movies\"", "CREATE TABLE \"movies\"", "DROP TABLE IF EXISTS \"movie_genres\"", "CREATE TABLE \"movie_genres\""} {
		if !strings.HasPrefix(stmts[i], prefix) {
			t.Fatalf("stmts[%d] = %q, want prefix %q", i, stmts[i], prefix)
		}
	}

	if _, err := RecreateStatements([]TableDef{{FQN: "movies"}}); err == nil {
		t.Fatalf("RecreateStatements() error = nil for a table without columns")
	}
}

var benchmarkSink string

// BenchmarkBuildCreateTableSQL_Movies measures rendering the full movie
// schema, the widest table set the pipeline creates.
func BenchmarkBuildCreateTableSQL_Movies(b *testing.B) {
	s, err := schema.New(schema.Options{IncludeAdult: true})
	if err != nil {
		b.Fatal(err)
	}
	defs := FromSchema(s, "", func(t schema.Type) string { return string(t) })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, d := range defs {
			sql, err := BuildCreateTableSQL(d)
			if err != nil {
				b.Fatalf("BuildCreateTableSQL() error = %v", err)
			}
			benchmarkSink = sql
		}
	}
}

// BenchmarkBuildCreateTableSQL_Wide simulates a 64-column table.
func BenchmarkBuildCreateTableSQL_Wide(b *testing.B) {
	cols := make([]ColumnDef, 0, 64)
	for i := 0; i < 64; i++ {
		cols = append(cols, ColumnDef{Name: "col_" + strconv.Itoa(i), SQLType: "TEXT", Nullable: true})
	}
	def := TableDef{FQN: "wide", Columns: cols}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sql, err := BuildCreateTableSQL(def)
		if err != nil {
			b.Fatalf("BuildCreateTableSQL() error = %v", err)
		}
		benchmarkSink = sql
	}
}
