package sqlite

import (
	"fmt"
	"regexp"
	"strings"

	"movieetl/internal/schema"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite file path or connection string, e.g.:
	//   "movies.db"
	//   "file:movies.db?cache=private"
	//   ":memory:"
	DSN string

	// Schema is the table layout to create and write.
	Schema *schema.Schema

	// JournalMode and Synchronous become _pragma parameters of the DSN so
	// every connection the pool opens gets them. Empty keeps the SQLite
	// default.
	JournalMode string
	Synchronous string
}

var pragmaValueRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// BuildDSN appends the configured pragmas to cfg.DSN:
//
//	movies.db?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)
func BuildDSN(cfg Config) (string, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return "", fmt.Errorf("sqlite: DSN must not be empty")
	}

	var pragmas []string
	for _, p := range []struct{ name, value string }{
		{"journal_mode", cfg.JournalMode},
		{"synchronous", cfg.Synchronous},
	} {
		v := strings.TrimSpace(p.value)
		if v == "" {
			continue
		}
		if !pragmaValueRe.MatchString(v) {
			return "", fmt.Errorf("sqlite: invalid %s value %q", p.name, v)
		}
		pragmas = append(pragmas, fmt.Sprintf("_pragma=%s(%s)", p.name, strings.ToUpper(v)))
	}
	if len(pragmas) == 0 {
		return dsn, nil
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&"), nil
}
