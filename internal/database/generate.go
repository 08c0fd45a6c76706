package database

// Schema and query code are generated from the migrations:
//
//	go generate ./internal/database
//
// The first step replays internal/database/migrations/files into an
// in-memory database and dumps the result to sqlc/schema.sql, which sqlc
// then reads alongside sqlc/queries.

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
