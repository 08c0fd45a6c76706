package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"picpath/internal/database/migrations"
	"picpath/internal/database/sqlc"
	"picpath/internal/picpath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const memoryPath = ":memory:"

// SQLiteStore implements picpath.Store and picpath.ScanRecorder using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	logger  picpath.Logger

	// changes is bumped after every committed snapshot replace; live
	// queries re-run whenever it moves.
	changes   *picpath.State[uint64]
	done      chan struct{}
	closeOnce sync.Once
}

// NewSQLiteStore opens a SQLite store at path.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string, logger picpath.Logger) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	s := NewSQLiteStoreFromDB(db, logger)
	s.path = path
	return s, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB, logger picpath.Logger) *SQLiteStore {
	if logger == nil {
		logger = picpath.NewNopLogger()
	}
	return &SQLiteStore{
		db:      db,
		queries: sqlc.New(db),
		logger:  logger,
		changes: picpath.NewState[uint64](0),
		done:    make(chan struct{}),
	}
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	if path == memoryPath {
		db, err := sql.Open("sqlite3", path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// Every pooled connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		return db, nil
	}

	// Per-connection PRAGMAs go in the DSN so every pooled connection gets them.
	// WAL lets readers keep seeing the previous snapshot while a replace commits.
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Image queries

func (s *SQLiteStore) QueryAll(ctx context.Context) <-chan picpath.QueryResult {
	return s.live(ctx, "all images", func(ctx context.Context) ([]sqlc.Image, error) {
		return s.queries.ListImages(ctx)
	})
}

func (s *SQLiteStore) QueryByName(ctx context.Context, text string) <-chan picpath.QueryResult {
	pattern := escapeLike(text)
	return s.live(ctx, "images by name", func(ctx context.Context) ([]sqlc.Image, error) {
		return s.queries.ListImagesByName(ctx, pattern)
	})
}

func (s *SQLiteStore) QueryByCategory(ctx context.Context, category picpath.Category) <-chan picpath.QueryResult {
	return s.live(ctx, "images by category", func(ctx context.Context) ([]sqlc.Image, error) {
		return s.queries.ListImagesByCategory(ctx, string(category))
	})
}

func (s *SQLiteStore) QueryByNameAndCategory(ctx context.Context, text string, category picpath.Category) <-chan picpath.QueryResult {
	params := sqlc.ListImagesByNameAndCategoryParams{
		Category: string(category),
		Name:     escapeLike(text),
	}
	return s.live(ctx, "images by name and category", func(ctx context.Context) ([]sqlc.Image, error) {
		return s.queries.ListImagesByNameAndCategory(ctx, params)
	})
}

// live runs query now and again after every committed change, until ctx is
// done or the store is closed.
func (s *SQLiteStore) live(ctx context.Context, what string, query func(context.Context) ([]sqlc.Image, error)) <-chan picpath.QueryResult {
	out := make(chan picpath.QueryResult, 1)
	changes, unsubscribe := s.changes.Subscribe()

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
			}

			rows, err := query(ctx)
			if ctx.Err() != nil {
				return
			}

			var res picpath.QueryResult
			if err != nil {
				s.logger.Warn("live query failed", "query", what, "error", err)
				res.Err = fmt.Errorf("querying %s: %w", what, err)
			} else {
				res.Images = toRecords(rows)
			}
			sendLatest(out, res)
		}
	}()

	return out
}

// sendLatest puts res into out, replacing a result the consumer has not
// read yet. out must have a single sender.
func sendLatest(out chan picpath.QueryResult, res picpath.QueryResult) {
	select {
	case out <- res:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- res
}

// escapeLike escapes LIKE wildcards so text matches literally under ESCAPE '\'.
func escapeLike(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(text)
}

func toRecord(row sqlc.Image) picpath.ImageRecord {
	return picpath.ImageRecord{
		ID:          row.ID,
		DisplayName: row.DisplayName,
		LocatorURI:  row.Uri,
		Path:        row.Path,
		DateAdded:   row.DateAdded,
		SizeBytes:   row.Size,
		MIMEType:    row.MimeType,
		Category:    picpath.Category(row.Category),
	}
}

func toRecords(rows []sqlc.Image) []picpath.ImageRecord {
	records := make([]picpath.ImageRecord, len(rows))
	for i, row := range rows {
		records[i] = toRecord(row)
	}
	return records
}

// Snapshot replace

func (s *SQLiteStore) ReplaceAll(ctx context.Context, records []picpath.ImageRecord) error {
	for _, r := range records {
		if !r.Category.Storable() {
			return fmt.Errorf("image %d (%s) has non-storable category %q", r.ID, r.DisplayName, r.Category)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	if err := qtx.DeleteAllImages(ctx); err != nil {
		return fmt.Errorf("deleting images: %w", err)
	}

	for _, r := range records {
		err := qtx.InsertImage(ctx, sqlc.InsertImageParams{
			ID:          r.ID,
			DisplayName: r.DisplayName,
			Uri:         r.LocatorURI,
			Path:        r.Path,
			DateAdded:   r.DateAdded,
			Size:        r.SizeBytes,
			MimeType:    r.MIMEType,
			Category:    string(r.Category),
		})
		if err != nil {
			return fmt.Errorf("inserting image %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	generation := s.changes.Update(func(g uint64) uint64 { return g + 1 })
	s.logger.Debug("replaced image snapshot", "images", len(records), "generation", generation)
	return nil
}

func (s *SQLiteStore) FindByID(ctx context.Context, id int64) (*picpath.ImageRecord, error) {
	row, err := s.queries.GetImageByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding image by id: %w", err)
	}
	rec := toRecord(row)
	return &rec, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	n, err := s.queries.CountImages(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting images: %w", err)
	}
	return n, nil
}

// Scan history

func (s *SQLiteStore) StartScan(ctx context.Context, operationID string, startedAt time.Time) (*picpath.ScanOperation, error) {
	id, err := s.queries.InsertScanOperation(ctx, sqlc.InsertScanOperationParams{
		OperationID: operationID,
		StartedAt:   startedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("creating scan operation: %w", err)
	}
	return &picpath.ScanOperation{
		ID:          id,
		OperationID: operationID,
		StartedAt:   startedAt,
		Status:      picpath.ScanStatusRunning,
	}, nil
}

func (s *SQLiteStore) FinishScan(ctx context.Context, id int64, finishedAt time.Time, status string, imageCount int64, errText string) error {
	err := s.queries.UpdateScanOperationFinished(ctx, sqlc.UpdateScanOperationFinishedParams{
		FinishedAt: sql.NullTime{Time: finishedAt, Valid: true},
		Status:     status,
		ImageCount: imageCount,
		Error:      errText,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing scan operation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListScans(ctx context.Context, limit int) ([]*picpath.ScanOperation, error) {
	rows, err := s.queries.ListScanOperations(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing scan operations: %w", err)
	}
	ops := make([]*picpath.ScanOperation, len(rows))
	for i, row := range rows {
		ops[i] = toScanOperation(row)
	}
	return ops, nil
}

func toScanOperation(row sqlc.ScanOperation) *picpath.ScanOperation {
	op := &picpath.ScanOperation{
		ID:          row.ID,
		OperationID: row.OperationID,
		StartedAt:   row.StartedAt,
		Status:      row.Status,
		ImageCount:  row.ImageCount,
		Error:       row.Error,
	}
	if row.FinishedAt.Valid {
		t := row.FinishedAt.Time
		op.FinishedAt = &t
	}
	return op
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteStore) Path() string {
	return s.path
}

// Migrate brings the schema up to date.
func (s *SQLiteStore) Migrate() error {
	return migrations.Up(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.Check(s.db)
}

// SchemaVersion reports the database's migration version.
func (s *SQLiteStore) SchemaVersion() (migrations.Version, error) {
	return migrations.ReadVersion(s.db)
}

// Close stops every live query and closes the database connection.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.db != nil {
			err = s.db.Close()
		}
	})
	return err
}

// Compile-time checks that SQLiteStore implements the picpath interfaces
var (
	_ picpath.Store        = (*SQLiteStore)(nil)
	_ picpath.ScanRecorder = (*SQLiteStore)(nil)
)
