// generate_schema replays the embedded migrations into an in-memory
// database and writes the resulting schema to sqlc/schema.sql for sqlc.
//
// Run from the module root via: go generate ./internal/database
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"picpath/internal/database"
	"picpath/internal/database/migrations"
)

const schemaHeader = `-- Generated from internal/database/migrations/files by
-- 'go generate ./internal/database'. Do not edit.

`

func main() {
	out := filepath.Join("internal", "database", "sqlc", "schema.sql")
	if err := run(out); err != nil {
		fmt.Fprintf(os.Stderr, "generate_schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", out)
}

func run(out string) error {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		return err
	}

	stmts, err := schemaStatements(db)
	if err != nil {
		return err
	}
	return os.WriteFile(out, []byte(schemaHeader+strings.Join(stmts, "\n\n")+"\n"), 0644)
}

// schemaStatements returns the CREATE statements for user tables and their
// indexes, tables first. The migration bookkeeping table is left out.
func schemaStatements(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY type = 'index', name`)
	if err != nil {
		return nil, fmt.Errorf("querying sqlite_master: %w", err)
	}
	defer rows.Close()

	var stmts []string
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return nil, fmt.Errorf("scanning statement: %w", err)
		}
		stmts = append(stmts, stmt)
	}
	return stmts, rows.Err()
}
