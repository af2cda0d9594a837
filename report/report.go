// Package report accumulates per-table migration outcomes into the
// JSON status document written once at the end of every run.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusOK         Status = "ok"
	StatusFailed     Status = "failed"
)

// dryRunSentinel is the verified value of tables never compared against a target.
const dryRunSentinel = "dry_run"

// Verified is the per-table verification outcome: unset, true, false,
// or the "dry_run" sentinel.
type Verified struct {
	set    bool
	ok     bool
	dryRun bool
}

func VerifiedResult(ok bool) Verified { return Verified{set: true, ok: ok} }

func VerifiedDryRun() Verified { return Verified{set: true, dryRun: true} }

func (v Verified) IsDryRun() bool { return v.dryRun }

// OK reports whether the table was compared and matched.
func (v Verified) OK() bool { return v.set && !v.dryRun && v.ok }

func (v Verified) String() string {
	switch {
	case !v.set:
		return "null"
	case v.dryRun:
		return dryRunSentinel
	case v.ok:
		return "true"
	default:
		return "false"
	}
}

func (v Verified) MarshalJSON() ([]byte, error) {
	switch {
	case !v.set:
		return []byte("null"), nil
	case v.dryRun:
		return json.Marshal(dryRunSentinel)
	default:
		return json.Marshal(v.ok)
	}
}

func (v *Verified) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "null":
		*v = Verified{}
	case "true":
		*v = VerifiedResult(true)
	case "false":
		*v = VerifiedResult(false)
	case `"` + dryRunSentinel + `"`:
		*v = VerifiedDryRun()
	default:
		return fmt.Errorf("report: invalid verified value %s", data)
	}

	return nil
}

// Table is the outcome of migrating a single table.
//
//nolint:tagliatelle
type Table struct {
	SourceCount    int64    `json:"source_count"`
	SourceChecksum string   `json:"source_checksum"`
	TargetCount    *int64   `json:"target_count"`
	TargetChecksum *string  `json:"target_checksum"`
	Verified       Verified `json:"verified"`
	AutoIncrement  *int64   `json:"auto_increment,omitempty"`
}

// Target holds the non-secret target connection parameters.
type Target struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Schema string `json:"schema"`
	User   string `json:"user"`
}

// Report is the run status document.
//
//nolint:tagliatelle
type Report struct {
	RunID             string           `json:"run_id"`
	GeneratedAtUTC    time.Time        `json:"generated_at_utc"`
	DryRun            bool             `json:"dry_run"`
	TruncateTarget    bool             `json:"truncate_target"`
	SQLitePath        string           `json:"sqlite_path"`
	MariaDB           Target           `json:"mariadb"`
	TableOrder        []string         `json:"table_order"`
	ChecksumAlgorithm string           `json:"checksum_algorithm"`
	Tables            map[string]Table `json:"tables"`
	Status            Status           `json:"status"`
	Error             string           `json:"error,omitempty"`
}

// Options are the run parameters recorded in the report header.
type Options struct {
	DryRun            bool
	TruncateTarget    bool
	SQLitePath        string
	MariaDB           Target
	TableOrder        []string
	ChecksumAlgorithm string
}

var nowFunc = time.Now

// New returns an in-progress report for a new run.
func New(opts Options) *Report {
	return &Report{
		RunID:             uuid.NewString(),
		GeneratedAtUTC:    nowFunc().UTC(),
		DryRun:            opts.DryRun,
		TruncateTarget:    opts.TruncateTarget,
		SQLitePath:        opts.SQLitePath,
		MariaDB:           opts.MariaDB,
		TableOrder:        append([]string(nil), opts.TableOrder...),
		ChecksumAlgorithm: opts.ChecksumAlgorithm,
		Tables:            make(map[string]Table, len(opts.TableOrder)),
		Status:            StatusInProgress,
	}
}

// Record stores the outcome for table, replacing any previous entry.
func (r *Report) Record(table string, t Table) {
	r.Tables[table] = t
}

// Succeed marks the run as successful.
func (r *Report) Succeed() {
	r.Status = StatusOK
	r.Error = ""
}

// Fail marks the run as failed with err's message.
func (r *Report) Fail(err error) {
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
}

// Write persists the report as indented JSON, creating parent directories.
// The file is replaced atomically.
func (r *Report) Write(path string) error {
	if path == "" {
		return errors.New("report: output path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create output directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}

	return writeFileAtomic(path, append(data, '\n'))
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partial report.
func writeFileAtomic(path string, data []byte) (retErr error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".migration_report-*.tmp")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}

	tmp := f.Name()

	defer func() {
		if retErr != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("report: write file: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("report: sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("report: close file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("report: rename file: %w", err)
	}

	return nil
}

// Read loads a report previously written by [Report.Write].
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("report: read file: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: parse file: %w", err)
	}

	return &r, nil
}

// DefaultPath returns a timestamped report file name in the working directory.
func DefaultPath(now time.Time) string {
	return fmt.Sprintf("migration_report_%s.json", now.UTC().Format("20060102T150405Z"))
}
