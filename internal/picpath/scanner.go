package picpath

import (
	"context"
	"fmt"
)

// Scanner turns the rows of an ImageIndex into image records.
type Scanner struct {
	index  ImageIndex
	logger Logger
}

// NewScanner creates a Scanner reading from index.
func NewScanner(index ImageIndex, logger Logger) *Scanner {
	return &Scanner{index: index, logger: logger}
}

// Scan enumerates the index and returns a full snapshot of image records.
// It blocks for as long as the enumeration takes, so callers on an
// interactive goroutine should run it elsewhere. If the enumeration fails
// nothing is returned.
func (s *Scanner) Scan(ctx context.Context) ([]ImageRecord, error) {
	rows, err := s.index.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating image index: %w", ErrScanFailed, err)
	}

	records := make([]ImageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ImageRecord{
			ID:          row.ID,
			DisplayName: row.DisplayName,
			LocatorURI:  LocatorURI(row.ID),
			Path:        row.Path,
			DateAdded:   row.DateAdded,
			SizeBytes:   row.Size,
			MIMEType:    row.MIMEType,
			Category:    CategoryForPath(row.Path),
		})
	}

	s.logger.Debug("scan complete", "images", len(records))
	return records, nil
}
