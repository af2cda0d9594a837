package migrateerrors

import "errors"

var (
	ErrSourceNotFound = errors.New("sqlite database not found")

	ErrSourceUnavailable = errors.New("sqlite database unavailable")

	ErrSchemaMismatch = errors.New("schema mismatch")

	ErrTargetNotEmpty = errors.New("target table is not empty")

	ErrVerificationMismatch = errors.New("verification failed")

	ErrMissingPassword = errors.New("mariadb password required")
)

// TableError records the table and the pipeline step that failed.
type TableError struct {
	Table string
	Op    string
	Err   error
}

func (e *TableError) Error() string {
	return e.Op + " " + e.Table + ": " + e.Err.Error()
}

func (e *TableError) Unwrap() error { return e.Err }
