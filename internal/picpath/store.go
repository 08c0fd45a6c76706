package picpath

import (
	"context"
	"time"
)

// Store is the access layer over the persisted image table.
//
// Query methods return live results: the channel emits the current result
// straight away and again after every committed change, until ctx is
// cancelled, at which point it is closed. A consumer that falls behind only
// sees the latest result.
type Store interface {
	// QueryAll returns every record, newest first.
	QueryAll(ctx context.Context) <-chan QueryResult

	// QueryByName returns records whose display name contains text.
	QueryByName(ctx context.Context, text string) <-chan QueryResult

	// QueryByCategory returns records in the given category.
	QueryByCategory(ctx context.Context, category Category) <-chan QueryResult

	// QueryByNameAndCategory combines QueryByName and QueryByCategory.
	QueryByNameAndCategory(ctx context.Context, text string, category Category) <-chan QueryResult

	// ReplaceAll deletes every record and inserts records in one transaction.
	// Readers observe either the previous generation or the new one.
	ReplaceAll(ctx context.Context, records []ImageRecord) error

	// FindByID returns the record with the given ID, or nil if absent.
	FindByID(ctx context.Context, id int64) (*ImageRecord, error)

	// Count returns the number of records in the current generation.
	Count(ctx context.Context) (int64, error)

	Close() error
}

// ScanOperation is the bookkeeping row for one refresh.
type ScanOperation struct {
	ID          int64
	OperationID string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Status      string // "running", "success" or "error"
	ImageCount  int64
	Error       string
}

const (
	ScanStatusRunning = "running"
	ScanStatusSuccess = "success"
	ScanStatusError   = "error"
)

// ScanRecorder keeps a history of refreshes.
type ScanRecorder interface {
	StartScan(ctx context.Context, operationID string, startedAt time.Time) (*ScanOperation, error)
	FinishScan(ctx context.Context, id int64, finishedAt time.Time, status string, imageCount int64, errText string) error
	ListScans(ctx context.Context, limit int) ([]*ScanOperation, error)
}
