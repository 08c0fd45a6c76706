package testutil

import (
	"context"
	"path/filepath"
	"sync"

	"picpath/internal/picpath"
)

// StubIndex is an in-memory picpath.ImageIndex. Rows and failures can be
// swapped between scans.
type StubIndex struct {
	mu    sync.Mutex
	rows  []picpath.IndexRow
	err   error
	calls int
}

func NewStubIndex(rows ...picpath.IndexRow) *StubIndex {
	return &StubIndex{rows: rows}
}

func (x *StubIndex) Rows(ctx context.Context) ([]picpath.IndexRow, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if x.err != nil {
		return nil, x.err
	}
	return append([]picpath.IndexRow(nil), x.rows...), nil
}

// SetRows replaces the rows returned by later scans.
func (x *StubIndex) SetRows(rows ...picpath.IndexRow) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.rows = rows
}

// Fail makes later scans return err. Pass nil to recover.
func (x *StubIndex) Fail(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.err = err
}

// Calls returns how many times Rows was called.
func (x *StubIndex) Calls() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.calls
}

// Row builds an IndexRow for a file at path, named after its last element.
func Row(id int64, path string, dateAdded int64) picpath.IndexRow {
	return picpath.IndexRow{
		ID:          id,
		DisplayName: filepath.Base(path),
		Path:        path,
		DateAdded:   dateAdded,
		Size:        1024,
		MIMEType:    "image/png",
	}
}

var _ picpath.ImageIndex = (*StubIndex)(nil)
