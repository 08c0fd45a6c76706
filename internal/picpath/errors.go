package picpath

import "errors"

var (
	// ErrScanFailed wraps failures while enumerating the image index.
	ErrScanFailed = errors.New("scan failed")

	// ErrStoreFailed wraps failures of the record store.
	ErrStoreFailed = errors.New("store failed")

	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidLocator  = errors.New("invalid locator")
	ErrNotFound        = errors.New("image not found")
)
