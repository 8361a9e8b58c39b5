//go:build darwin

package repository

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// renameNoReplace moves oldpath to newpath with renamex_np(RENAME_EXCL).
func renameNoReplace(oldpath, newpath string) error {
	err := unix.RenamexNp(oldpath, newpath, unix.RENAME_EXCL)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		return models.ErrReportConflict
	case errors.Is(err, unix.ENOENT):
		return models.ErrReportNotFound
	case errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.EINVAL):
		return fmt.Errorf("%w: %v", models.ErrAtomicRenameUnavailable, err)
	default:
		return &os.LinkError{Op: "renamex_np", Old: oldpath, New: newpath, Err: err}
	}
}
