package repository

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// File naming of the two report states. Suffixes are matched case-insensitively.
const (
	ReportExt       = ".csv"
	ProcessedSuffix = "_processed" + ReportExt
)

// ReportFileMode is the permission of every saved report.
const ReportFileMode os.FileMode = 0o644

// Parser turns a report file into rows.
type Parser interface {
	Parse(r io.Reader) ([]models.ParsedOperation, error)
}

// FileRepository keeps reports as files in one directory. A report is
// unprocessed while it is named *.csv and processed once renamed to
// *_processed.csv; the rename never replaces an existing file, so the
// directory itself is the only state.
type FileRepository struct {
	dir    string
	parser Parser
}

// rename and writable are swapped in tests to simulate filesystems without a
// no-replace rename and permission failures regardless of the test user.
var (
	rename   = renameNoReplace
	writable = checkWritable
)

// New opens the report directory. The directory must exist and be listable.
func New(dir string, p Parser) (*FileRepository, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: report directory not set", models.ErrInvalidConfiguration)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: report directory %q: %v", models.ErrInvalidConfiguration, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: report directory %q is not a directory", models.ErrInvalidConfiguration, dir)
	}
	if _, err := os.ReadDir(dir); err != nil {
		return nil, fmt.Errorf("%w: report directory %q: %v", models.ErrInvalidConfiguration, dir, err)
	}
	return &FileRepository{dir: dir, parser: p}, nil
}

// Dir returns the report directory.
func (r *FileRepository) Dir() string {
	return r.dir
}

// IsReportName reports whether name has the report extension.
func IsReportName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ReportExt)
}

// IsProcessedName reports whether name is in the processed state.
func IsProcessedName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ProcessedSuffix)
}

// ProcessedName returns the name a report takes once processed.
func ProcessedName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ProcessedSuffix
}

// Save stores a new unprocessed report. The content is written to a hidden
// temporary file first and then published under name, so a partially
// written report is never listed.
func (r *FileRepository) Save(name string, content io.Reader) (models.ReportID, error) {
	if err := validateName(name); err != nil {
		return models.ReportID{}, err
	}
	if IsProcessedName(name) {
		return models.ReportID{}, fmt.Errorf("save %q: %w", name, models.ErrAlreadyProcessed)
	}
	if exists(r.path(ProcessedName(name))) {
		return models.ReportID{}, fmt.Errorf("save %q: %w", name, models.ErrAlreadyProcessed)
	}
	if exists(r.path(name)) {
		return models.ReportID{}, fmt.Errorf("save %q: %w", name, models.ErrReportConflict)
	}

	tmp, err := os.CreateTemp(r.dir, "."+name+".*.part")
	if err != nil {
		return models.ReportID{}, fmt.Errorf("save %q: %w", name, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		return models.ReportID{}, fmt.Errorf("save %q: writing content: %w", name, err)
	}
	if err := tmp.Chmod(ReportFileMode); err != nil {
		tmp.Close()
		return models.ReportID{}, fmt.Errorf("save %q: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return models.ReportID{}, fmt.Errorf("save %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return models.ReportID{}, fmt.Errorf("save %q: %w", name, err)
	}

	if err := rename(tmpPath, r.path(name)); err != nil {
		if errors.Is(err, models.ErrReportNotFound) {
			return models.ReportID{}, fmt.Errorf("save %q: temporary file vanished: %w", name, err)
		}
		return models.ReportID{}, fmt.Errorf("save %q: %w", name, err)
	}

	return r.reportID(name)
}

// Find loads and parses one report.
func (r *FileRepository) Find(id models.ReportID) (*models.Report, error) {
	if err := validateName(id.Name); err != nil {
		return nil, err
	}
	f, err := os.Open(r.path(id.Name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("find %q: %w", id.Name, models.ErrReportNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", id.Name, err)
	}
	defer f.Close()

	operations, err := r.parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", id.Name, err)
	}
	return &models.Report{ID: id, Operations: operations}, nil
}

// FindAll lists every report in either state, in no particular order.
func (r *FileRepository) FindAll() ([]models.ReportID, error) {
	return r.list(func(string) bool { return true })
}

// FindUnprocessed lists reports that have not been marked processed.
func (r *FileRepository) FindUnprocessed() ([]models.ReportID, error) {
	return r.list(func(name string) bool { return !IsProcessedName(name) })
}

// MarkProcessed renames an unprocessed report to its processed name. The
// report file must exist and be writable. It fails, rather than replaces,
// when the processed name is taken, so a report can be marked at most once;
// marking it again is ErrAlreadyProcessed.
func (r *FileRepository) MarkProcessed(id models.ReportID) error {
	if err := validateName(id.Name); err != nil {
		return err
	}
	if IsProcessedName(id.Name) {
		return fmt.Errorf("mark processed %q: %w", id.Name, models.ErrAlreadyProcessed)
	}
	src, dest := r.path(id.Name), r.path(ProcessedName(id.Name))

	err := writable(src)
	if err == nil {
		err = rename(src, dest)
	}
	if err != nil {
		if errors.Is(err, models.ErrReportNotFound) && exists(dest) {
			// marked by an earlier call
			return fmt.Errorf("mark processed %q: %w", id.Name, models.ErrAlreadyProcessed)
		}
		return fmt.Errorf("mark processed %q: %w", id.Name, err)
	}
	return nil
}

func (r *FileRepository) list(keep func(name string) bool) ([]models.ReportID, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", r.dir, err)
	}

	var ids []models.ReportID
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !IsReportName(name) || strings.HasPrefix(name, ".") || !keep(name) {
			continue
		}
		id, err := r.reportID(name)
		if errors.Is(err, models.ErrReportNotFound) {
			// renamed or removed since the directory was read
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *FileRepository) reportID(name string) (models.ReportID, error) {
	path := r.path(name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.ReportID{}, fmt.Errorf("stat %q: %w", name, models.ErrReportNotFound)
	}
	if err != nil {
		return models.ReportID{}, fmt.Errorf("stat %q: %w", name, err)
	}
	return models.ReportID{Name: name, CreatedAt: birthTime(path, info)}, nil
}

func (r *FileRepository) path(name string) string {
	return filepath.Join(r.dir, name)
}

// InvalidNameError is returned for names that cannot be stored as reports.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid report name %q: %s", e.Name, e.Reason)
}

func validateName(name string) error {
	switch {
	case name == "":
		return &InvalidNameError{Name: name, Reason: "empty"}
	case strings.ContainsAny(name, `/\`) || name != filepath.Base(name):
		return &InvalidNameError{Name: name, Reason: "must not contain path separators"}
	case strings.HasPrefix(name, "."):
		return &InvalidNameError{Name: name, Reason: "must not start with a dot"}
	case strings.ContainsRune(name, '*'):
		return &InvalidNameError{Name: name, Reason: "must not contain '*'"}
	case !IsReportName(name) || len(name) == len(ReportExt):
		return &InvalidNameError{Name: name, Reason: "must end with " + ReportExt}
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
