package picpath

import "context"

// ImageIndex is the device-wide enumeration of images. It is read only and
// queried once per scan.
type ImageIndex interface {
	// Rows returns every image row across all volumes, newest first.
	// An error means the enumeration as a whole failed.
	Rows(ctx context.Context) ([]IndexRow, error)
}
