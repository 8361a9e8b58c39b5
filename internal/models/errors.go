package models

import "errors"

var (
	// ErrInvalidConfiguration is returned when the report directory is unusable.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMalformedReport is returned when a report cannot be parsed.
	ErrMalformedReport = errors.New("malformed report")

	// ErrIntegrity is returned when a row violates deposit/withdraw exclusivity
	// or carries an unusable currency.
	ErrIntegrity = errors.New("report integrity violated")

	// ErrNotFound is the common parent of the not-found errors below.
	ErrNotFound = errors.New("not found")

	// ErrReportNotFound is returned when a report file does not exist.
	ErrReportNotFound = subError(ErrNotFound, "report not found")

	// ErrAccountNotFound is returned by the ledger for unknown accounts.
	ErrAccountNotFound = subError(ErrNotFound, "account not found")

	// ErrReportNotWritable is returned when a report cannot be marked because
	// its file is not writable by this process.
	ErrReportNotWritable = errors.New("report not writable")

	// ErrReportConflict is returned when a name is already taken in either state.
	ErrReportConflict = errors.New("report already exists")

	// ErrAlreadyProcessed is returned when saving or marking a processed report.
	ErrAlreadyProcessed = subError(ErrReportConflict, "report already processed")

	// ErrAtomicRenameUnavailable is returned when the platform or filesystem
	// cannot rename without replacing the destination.
	ErrAtomicRenameUnavailable = errors.New("atomic no-replace rename unavailable")
)

// kindError is a sentinel that also matches a broader parent sentinel.
type kindError struct {
	msg    string
	parent error
}

func subError(parent error, msg string) error {
	return &kindError{msg: msg, parent: parent}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.parent }
