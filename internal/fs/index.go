package fs

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"math"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"picpath/internal/picpath"
)

// noMediaFile marks a directory whose contents must not be indexed.
const noMediaFile = ".nomedia"

var knownMIMETypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"heic": "image/heic",
	"heif": "image/heif",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"avif": "image/avif",
}

// VolumeIndexConfig selects what a VolumeIndex enumerates.
type VolumeIndexConfig struct {
	Volumes        []string // Absolute directory roots
	Extensions     []string // Lowercase, without the dot
	Ignore         []string // Extra ignore patterns
	FollowSymlinks bool
	MaxFileSize    int64 // 0 means unlimited
}

// VolumeIndex is the filesystem implementation of picpath.ImageIndex.
// It enumerates image files under a set of volume roots.
type VolumeIndex struct {
	volumes   []string
	mimeTypes map[string]string
	ignore    []string
	follow    bool
	maxSize   int64
	logger    picpath.Logger
}

// NewVolumeIndex creates an index over the configured volumes.
func NewVolumeIndex(cfg VolumeIndexConfig, logger picpath.Logger) (*VolumeIndex, error) {
	if len(cfg.Volumes) == 0 {
		return nil, fmt.Errorf("no volumes configured")
	}
	if len(cfg.Extensions) == 0 {
		return nil, fmt.Errorf("no image extensions configured")
	}

	volumes := make([]string, 0, len(cfg.Volumes))
	for _, v := range cfg.Volumes {
		abs, err := filepath.Abs(v)
		if err != nil {
			return nil, fmt.Errorf("resolving volume %q: %w", v, err)
		}
		volumes = append(volumes, abs)
	}

	mimeTypes := make(map[string]string, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		mimeTypes[ext] = mimeTypeFor(ext)
	}

	return &VolumeIndex{
		volumes:   volumes,
		mimeTypes: mimeTypes,
		ignore:    append(slices.Clone(defaultIgnorePatterns), cfg.Ignore...),
		follow:    cfg.FollowSymlinks,
		maxSize:   cfg.MaxFileSize,
		logger:    logger,
	}, nil
}

func mimeTypeFor(ext string) string {
	if t, ok := knownMIMETypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Volumes returns the absolute volume roots.
func (x *VolumeIndex) Volumes() []string {
	return x.volumes
}

// Rows enumerates every image under every volume. The result is sorted by
// path so repeated scans of an unchanged volume are identical.
func (x *VolumeIndex) Rows(ctx context.Context) ([]picpath.IndexRow, error) {
	var rows []picpath.IndexRow
	for _, volume := range x.volumes {
		volumeRows, err := x.walkVolume(ctx, volume)
		if err != nil {
			return nil, err
		}
		rows = append(rows, volumeRows...)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	return dedupeByID(rows), nil
}

func (x *VolumeIndex) walkVolume(ctx context.Context, volume string) ([]picpath.IndexRow, error) {
	info, err := os.Stat(volume)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			x.logger.Warn("volume not found, skipping", "volume", volume)
			return nil, nil
		}
		return nil, fmt.Errorf("stat volume %s: %w", volume, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("volume is not a directory: %s", volume)
	}

	extra, err := ParseIgnoreFile(filepath.Join(volume, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	matcher := NewIgnoreMatcher(append(slices.Clone(x.ignore), extra...))

	var (
		mu   sync.Mutex
		rows []picpath.IndexRow
	)

	conf := &fastwalk.Config{Follow: x.follow}
	err = fastwalk.Walk(conf, volume, func(fullPath string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			x.logger.Debug("skipping unreadable entry", "path", fullPath, "error", err)
			return nil
		}
		if fullPath == volume {
			return nil
		}

		rel, err := filepath.Rel(volume, fullPath)
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || matcher.Match(rel) {
				return fastwalk.SkipDir
			}
			if _, err := os.Lstat(filepath.Join(fullPath, noMediaFile)); err == nil {
				x.logger.Debug("skipping directory with .nomedia", "path", fullPath)
				return fastwalk.SkipDir
			}
			return nil
		}

		if matcher.Match(rel) {
			return nil
		}
		mimeType, ok := x.mimeTypes[extensionOf(d.Name())]
		if !ok {
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			x.logger.Debug("skipping unreadable file", "path", fullPath, "error", err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if x.maxSize > 0 && info.Size() > x.maxSize {
			x.logger.Debug("skipping oversized file", "path", fullPath, "size", info.Size())
			return nil
		}

		row := picpath.IndexRow{
			ID:          pathID(fullPath),
			DisplayName: d.Name(),
			Path:        fullPath,
			DateAdded:   dateAdded(info),
			Size:        info.Size(),
			MIMEType:    mimeType,
		}

		mu.Lock()
		rows = append(rows, row)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking volume %s: %w", volume, err)
	}

	x.logger.Debug("walked volume", "volume", volume, "images", len(rows))
	return rows, nil
}

func extensionOf(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// pathID derives a stable positive ID from an absolute path.
func pathID(path string) int64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	return int64(h.Sum64() & math.MaxInt64)
}

// dedupeByID drops rows reached twice through overlapping volumes or
// symlinks. rows must be sorted by path.
func dedupeByID(rows []picpath.IndexRow) []picpath.IndexRow {
	seen := make(map[int64]struct{}, len(rows))
	out := rows[:0]
	for _, r := range rows {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

var _ picpath.ImageIndex = (*VolumeIndex)(nil)
