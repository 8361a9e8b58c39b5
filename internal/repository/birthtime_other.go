//go:build !linux && !darwin

package repository

import (
	"io/fs"
	"time"
)

func birthTime(_ string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
