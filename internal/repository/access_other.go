//go:build !linux && !darwin

package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

func checkWritable(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.ErrReportNotFound
	}
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0o200 == 0 {
		return fmt.Errorf("%w: %s is read-only", models.ErrReportNotWritable, path)
	}
	return nil
}
