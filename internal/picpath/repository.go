package picpath

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Repository composes the store's queries with the scanner's refresh.
// There is one Repository per process; it is the only writer of the store.
type Repository struct {
	store    Store
	scanner  *Scanner
	recorder ScanRecorder
	logger   Logger
	clock    Clock
	idgen    IDGenerator
}

// NewRepository creates a Repository. recorder may be nil, in which case
// refreshes are not recorded.
func NewRepository(store Store, scanner *Scanner, recorder ScanRecorder, logger Logger, clock Clock, idgen IDGenerator) *Repository {
	return &Repository{
		store:    store,
		scanner:  scanner,
		recorder: recorder,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// ObserveAll returns a live query over every record.
func (r *Repository) ObserveAll(ctx context.Context) <-chan QueryResult {
	return r.store.QueryAll(ctx)
}

// ObserveFiltered returns a live query for the given search text and category.
// Blank text means no name filter and CategoryAll means no category filter.
func (r *Repository) ObserveFiltered(ctx context.Context, query string, category Category) <-chan QueryResult {
	blank := strings.TrimSpace(query) == ""
	all := category == CategoryAll

	switch {
	case blank && all:
		return r.store.QueryAll(ctx)
	case blank && !all:
		return r.store.QueryByCategory(ctx, category)
	case !blank && all:
		return r.store.QueryByName(ctx, query)
	default:
		return r.store.QueryByNameAndCategory(ctx, query, category)
	}
}

// Refresh scans the image index and replaces the store's contents with the
// result. If the scan fails the store is not touched. Returns the number of
// records written.
func (r *Repository) Refresh(ctx context.Context) (int, error) {
	op := r.startScan(ctx)

	records, err := r.scanner.Scan(ctx)
	if err != nil {
		r.finishScan(ctx, op, 0, err)
		return 0, err
	}

	if err := r.store.ReplaceAll(ctx, records); err != nil {
		err = fmt.Errorf("%w: replacing records: %w", ErrStoreFailed, err)
		r.finishScan(ctx, op, 0, err)
		return 0, err
	}

	r.finishScan(ctx, op, len(records), nil)
	r.logger.Info("index refreshed", "images", len(records))
	return len(records), nil
}

// History returns the most recent refreshes, newest first.
func (r *Repository) History(ctx context.Context, limit int) ([]*ScanOperation, error) {
	if r.recorder == nil {
		return nil, nil
	}
	ops, err := r.recorder.ListScans(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: listing scans: %w", ErrStoreFailed, err)
	}
	return ops, nil
}

// FindByID returns the record with the given ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*ImageRecord, error) {
	rec, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: finding image %d: %w", ErrStoreFailed, id, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return rec, nil
}

// Count returns the number of indexed images.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: counting images: %w", ErrStoreFailed, err)
	}
	return n, nil
}

// ResolvePath turns a locator URI, a file:// URI or an absolute path into a
// filesystem path.
func (r *Repository) ResolvePath(ctx context.Context, raw string) (string, error) {
	if id, err := ParseLocatorURI(raw); err == nil {
		rec, err := r.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return rec.Path, nil
	}

	if strings.HasPrefix(raw, "file://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %w", ErrInvalidLocator, raw, err)
		}
		return u.Path, nil
	}

	if filepath.IsAbs(raw) {
		return raw, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidLocator, raw)
}

func (r *Repository) startScan(ctx context.Context) *ScanOperation {
	if r.recorder == nil {
		return nil
	}
	op, err := r.recorder.StartScan(ctx, r.idgen.New(), r.clock.Now())
	if err != nil {
		r.logger.Warn("recording scan start failed", "error", err)
		return nil
	}
	return op
}

func (r *Repository) finishScan(ctx context.Context, op *ScanOperation, count int, scanErr error) {
	if op == nil {
		return
	}

	status, errText := ScanStatusSuccess, ""
	if scanErr != nil {
		status, errText = ScanStatusError, scanErr.Error()
	}

	// A cancelled refresh still gets its row closed.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	if err := r.recorder.FinishScan(ctx, op.ID, r.clock.Now(), status, int64(count), errText); err != nil {
		r.logger.Warn("recording scan finish failed", "operation", op.OperationID, "error", err)
	}
}
