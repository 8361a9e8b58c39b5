//go:build darwin

package repository

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

func birthTime(path string, info fs.FileInfo) time.Time {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return info.ModTime()
	}
	return time.Unix(st.Btim.Unix())
}
