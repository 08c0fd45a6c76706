package picpath

import (
	"fmt"
	"strconv"
	"strings"
)

// locatorPrefix is prepended to an image ID to form its locator URI.
const locatorPrefix = "picpath://images/"

// LocatorURI returns the locator for the image with the given ID.
func LocatorURI(id int64) string {
	return locatorPrefix + strconv.FormatInt(id, 10)
}

// ParseLocatorURI extracts the image ID from a locator produced by LocatorURI.
func ParseLocatorURI(uri string) (int64, error) {
	rest, ok := strings.CutPrefix(uri, locatorPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLocator, uri)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLocator, uri)
	}
	return id, nil
}
