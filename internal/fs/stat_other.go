//go:build !linux

package fs

import "io/fs"

func dateAdded(info fs.FileInfo) int64 {
	return info.ModTime().Unix()
}
