package database

import _ "embed"

// Schema is the full schema produced by applying every migration. Tests use
// it to set up an in-memory database without going through golang-migrate.
//
//go:embed sqlc/schema.sql
var Schema string
