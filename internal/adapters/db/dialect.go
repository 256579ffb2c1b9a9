// internal/adapters/db/dialect.go
package db

import "github.com/Masterminds/squirrel"

// Dialect captures the SQL differences between the supported drivers.
type Dialect struct {
	Name        string
	placeholder squirrel.PlaceholderFormat
	lockSuffix  string
	returning   bool
}

var (
	// Postgres locks selected rows and reads new ids with RETURNING.
	Postgres = Dialect{
		Name:        "postgres",
		placeholder: squirrel.Dollar,
		lockSuffix:  "FOR UPDATE",
		returning:   true,
	}

	// SQLite has no row locks; its single connection serializes writers.
	SQLite = Dialect{
		Name:        "sqlite3",
		placeholder: squirrel.Question,
	}
)

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, bool) {
	switch driver {
	case "postgres", "pgx":
		return Postgres, true
	case "sqlite", "sqlite3":
		return SQLite, true
	}
	return Dialect{}, false
}

func (d Dialect) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(d.placeholder)
}

func (d Dialect) lock(q squirrel.SelectBuilder) squirrel.SelectBuilder {
	if d.lockSuffix == "" {
		return q
	}
	return q.Suffix(d.lockSuffix)
}
