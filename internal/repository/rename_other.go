//go:build !linux && !darwin

package repository

import (
	"fmt"
	"runtime"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

func renameNoReplace(oldpath, newpath string) error {
	return fmt.Errorf("%w on %s", models.ErrAtomicRenameUnavailable, runtime.GOOS)
}
