package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite3"
	Postgres = "postgres"
)

// Names lists the supported dialects.
var Names = []string{MySQL, Postgres, SQLite}

// Parse normalizes a dialect name. "postgresql", "pgx" and "sqlite" are
// accepted as aliases.
func Parse(name string) (string, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case MySQL, "mariadb":
		return MySQL, nil
	case Postgres, "postgresql", "pgx":
		return Postgres, nil
	case SQLite, "sqlite":
		return SQLite, nil
	default:
		return "", fmt.Errorf("dialect: unsupported dialect %q", name)
	}
}

// Quote quotes an identifier for the given dialect.
func Quote(d, ident string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Placeholder returns the i-th (1-based) bind placeholder of the dialect.
func Placeholder(d string, i int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}
