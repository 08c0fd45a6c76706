//go:build linux

package fs

import (
	"io/fs"
	"syscall"
)

// dateAdded returns the inode change time, the closest thing Linux has to
// the moment a file appeared on the volume.
func dateAdded(info fs.FileInfo) int64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime().Unix()
	}
	return stat.Ctim.Sec
}
