package picpath

import (
	"fmt"
	"strings"
)

// Category is a coarse, folder-derived classification of an image.
// All is a query-only wildcard and is never stored on a record.
type Category string

const (
	CategoryAll         Category = "All"
	CategoryScreenshots Category = "Screenshots"
	CategoryCamera      Category = "Camera"
	CategoryDownloads   Category = "Downloads"
	CategoryOther       Category = "Other"
)

// DefaultCategory is the category a new browse session starts on.
const DefaultCategory = CategoryScreenshots

// Categories lists every category in display order, wildcard first.
var Categories = []Category{
	CategoryAll,
	CategoryScreenshots,
	CategoryCamera,
	CategoryDownloads,
	CategoryOther,
}

func (c Category) String() string { return string(c) }

// Storable reports whether c may be assigned to a record.
func (c Category) Storable() bool {
	switch c {
	case CategoryScreenshots, CategoryCamera, CategoryDownloads, CategoryOther:
		return true
	default:
		return false
	}
}

// ParseCategory matches s against the known categories, ignoring case.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// CategoryForPath derives the category of an image from its path.
// The first matching rule wins; matching ignores case.
func CategoryForPath(path string) Category {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "/screenshots"):
		return CategoryScreenshots
	case strings.Contains(p, "/camera"), strings.Contains(p, "/dcim"):
		return CategoryCamera
	case strings.Contains(p, "/download"):
		return CategoryDownloads
	default:
		return CategoryOther
	}
}
