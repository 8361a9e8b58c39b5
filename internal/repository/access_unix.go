//go:build linux || darwin

package repository

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// checkWritable reports whether this process may write path, using access(2)
// so ACLs and read-only mounts are honoured.
func checkWritable(path string) error {
	err := unix.Access(path, unix.W_OK)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ENOENT):
		return models.ErrReportNotFound
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM), errors.Is(err, unix.EROFS):
		return fmt.Errorf("%w: %v", models.ErrReportNotWritable, err)
	default:
		return &os.PathError{Op: "access", Path: path, Err: err}
	}
}
