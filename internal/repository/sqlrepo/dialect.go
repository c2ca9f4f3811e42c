// Package sqlrepo implements the credential store and metrics query engine
// against a relational database through sqlx. The same repository serves
// MySQL, PostgreSQL, and SQLite; only identifier quoting and parameter
// placeholders differ per dialect.
package sqlrepo

import (
	"fmt"
	"strings"
)

// Dialect captures the identifier quoting and parameter placeholder style of
// a SQL engine, plus the driver name registered with database/sql.
type Dialect struct {
	Name        string
	DriverName  string
	Quote       func(name string) string
	Placeholder func(index int) string
}

// MySQL uses backtick quoting and ? placeholders.
var MySQL = Dialect{
	Name:        "mysql",
	DriverName:  "mysql",
	Quote:       backtickQuote,
	Placeholder: questionPlaceholder,
}

// Postgres uses double-quote quoting and $N placeholders (pgx stdlib driver).
var Postgres = Dialect{
	Name:        "postgres",
	DriverName:  "pgx",
	Quote:       doubleQuote,
	Placeholder: dollarPlaceholder,
}

// SQLite uses double-quote quoting and ? placeholders (modernc driver).
var SQLite = Dialect{
	Name:        "sqlite",
	DriverName:  "sqlite",
	Quote:       doubleQuote,
	Placeholder: questionPlaceholder,
}

// DialectFor resolves a configured driver name to its Dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q; supported: mysql, postgres, sqlite", driver)
	}
}

func backtickQuote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func questionPlaceholder(_ int) string {
	return "?"
}

func dollarPlaceholder(index int) string {
	return fmt.Sprintf("$%d", index)
}
