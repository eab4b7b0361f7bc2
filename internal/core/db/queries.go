package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// requiredQueries are the statement names the rule store depends on.
// Checked at load time so a missing "-- name:" marker fails at startup
// rather than on first use.
var requiredQueries = []string{
	"create-rule",
	"get-rule",
	"get-rule-by-name",
	"list-rules",
	"list-all-rules",
	"delete-rule",
}

// Queries resolves dotsql "-- name:" markers to SQL statements and runs
// them through sqlx. Statements are written with ? placeholders; Rebind
// translates them for the connected driver, so one set of .sql files
// serves both sqlite and postgres.
type Queries struct {
	statements *dotsql.DotSql
	conn       *sqlx.DB
}

// LoadQueries parses the embedded .sql files and verifies every statement
// the store needs is present.
func LoadQueries(conn *sqlx.DB) (*Queries, error) {
	entries, err := fs.ReadDir(queriesFS, "queries")
	if err != nil {
		return nil, fmt.Errorf("failed to list query files: %w", err)
	}

	var combined strings.Builder
	for _, e := range entries {
		body, err := queriesFS.ReadFile("queries/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read query file %s: %w", e.Name(), err)
		}
		combined.Write(body)
		combined.WriteByte('\n')
	}

	statements, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse query files: %w", err)
	}
	for _, name := range requiredQueries {
		if _, err := statements.Raw(name); err != nil {
			return nil, fmt.Errorf("query %q missing from embedded files", name)
		}
	}

	return &Queries{statements: statements, conn: conn}, nil
}

// resolve returns the named statement rebound for the connected driver.
func (q *Queries) resolve(name string) (string, error) {
	raw, err := q.statements.Raw(name)
	if err != nil {
		return "", fmt.Errorf("unknown query %q", name)
	}
	return q.conn.Rebind(raw), nil
}

// Exec runs a named statement.
func (q *Queries) Exec(name string, args ...any) (sql.Result, error) {
	stmt, err := q.resolve(name)
	if err != nil {
		return nil, err
	}
	return q.conn.Exec(stmt, args...)
}

// Get runs a named statement expecting exactly one row scanned into dest.
func (q *Queries) Get(name string, dest any, args ...any) error {
	stmt, err := q.resolve(name)
	if err != nil {
		return err
	}
	return q.conn.Get(dest, stmt, args...)
}

// Select runs a named statement scanning every row into the slice dest.
func (q *Queries) Select(name string, dest any, args ...any) error {
	stmt, err := q.resolve(name)
	if err != nil {
		return err
	}
	return q.conn.Select(dest, stmt, args...)
}
