package fs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-volume file holding extra ignore patterns.
const IgnoreFileName = ".picpathignore"

// defaultIgnorePatterns apply to every volume ahead of config and
// .picpathignore rules. Thumbnail caches and trashed items are never real
// images.
var defaultIgnorePatterns = []string{".thumbnails", ".trashed-*", IgnoreFileName}

type ignoreRule struct {
	glob     string
	anchored bool // matched against the volume-relative path instead of the basename
	negate   bool
}

// IgnoreMatcher decides which volume entries the index skips.
//
// Rules use path.Match globs. A rule containing '/' (or starting with one)
// is matched against the slash-separated path relative to the volume root,
// any other rule against the entry's basename. A rule starting with '!'
// re-includes what an earlier rule excluded: the last matching rule wins.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher parses lines into rules. Blank lines, '#' comments and
// malformed globs are dropped.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		if r, ok := parseIgnoreRule(line); ok {
			m.rules = append(m.rules, r)
		}
	}
	return m
}

func parseIgnoreRule(line string) (ignoreRule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	var r ignoreRule
	line, r.negate = strings.CutPrefix(line, "!")
	line = strings.TrimSuffix(line, "/")
	if rest, ok := strings.CutPrefix(line, "/"); ok {
		line, r.anchored = rest, true
	}
	if line == "" {
		return ignoreRule{}, false
	}
	if _, err := path.Match(line, ""); err != nil {
		return ignoreRule{}, false
	}

	r.glob = line
	r.anchored = r.anchored || strings.Contains(line, "/")
	return r, true
}

// Match reports whether rel, a path relative to the volume root, is ignored.
func (m *IgnoreMatcher) Match(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)

	ignored := false
	for _, r := range m.rules {
		target := base
		if r.anchored {
			target = rel
		}
		if ok, _ := path.Match(r.glob, target); ok {
			ignored = !r.negate
		}
	}
	return ignored
}

// ParseIgnoreFile returns the non-empty lines of an ignore file, or nil if
// the file does not exist.
func ParseIgnoreFile(name string) ([]string, error) {
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return strings.FieldsFunc(string(data), func(r rune) bool {
		return r == '\n' || r == '\r'
	}), nil
}
