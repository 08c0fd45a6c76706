package picpath

// ImageRecord is one device image as it looked at the last scan.
// Records are only ever created by a full snapshot replace and are never
// updated in place.
type ImageRecord struct {
	ID          int64    // Stable identifier assigned by the image index
	DisplayName string   // File name shown to the user
	LocatorURI  string   // Opaque handle the presentation layer can resolve
	Path        string   // Absolute filesystem path
	DateAdded   int64    // Unix seconds
	SizeBytes   int64    // File size in bytes
	MIMEType    string   // e.g. "image/png"
	Category    Category // Derived from Path, never All
}

// QueryResult is a single emission of a live query.
// Err is set when the underlying store failed to run the query; Images is
// then nil and the live query keeps waiting for the next change.
type QueryResult struct {
	Images []ImageRecord
	Err    error
}

// IndexRow is one raw row read from an ImageIndex.
type IndexRow struct {
	ID          int64
	DisplayName string
	Path        string
	DateAdded   int64
	Size        int64
	MIMEType    string
}
