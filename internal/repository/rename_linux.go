//go:build linux

package repository

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// renameNoReplace moves oldpath to newpath with renameat2(RENAME_NOREPLACE).
func renameNoReplace(oldpath, newpath string) error {
	err := unix.Renameat2(unix.AT_FDCWD, oldpath, unix.AT_FDCWD, newpath, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		return models.ErrReportConflict
	case errors.Is(err, unix.ENOENT):
		return models.ErrReportNotFound
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EOPNOTSUPP):
		// kernel or filesystem without RENAME_NOREPLACE
		return fmt.Errorf("%w: %v", models.ErrAtomicRenameUnavailable, err)
	default:
		return &os.LinkError{Op: "renameat2", Old: oldpath, New: newpath, Err: err}
	}
}
