// Package migration drives a verified copy of every catalog table from a
// source store into a target store.
//
// A run moves through preflight, a per-table copy inside one target
// transaction, and commit or rollback. Each table is checksummed on both
// sides and any mismatch aborts the whole run.
package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/ladzaretti/chatmigrate/catalog"
	"github.com/ladzaretti/chatmigrate/checksum"
	"github.com/ladzaretti/chatmigrate/migrateerrors"
	"github.com/ladzaretti/chatmigrate/report"
)

// Source is a read-only store of ordered table projections.
type Source interface {
	CheckSchema(ctx context.Context, spec catalog.TableSpec) error
	Read(ctx context.Context, spec catalog.TableSpec) ([]catalog.Row, error)
}

// Target is a transactional store the rows are copied into.
type Target interface {
	CheckSchema(ctx context.Context, spec catalog.TableSpec) error
	VerifyEmpty(ctx context.Context, table string) error
	TruncateAll(ctx context.Context, tables []string) error

	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	InsertAll(ctx context.Context, spec catalog.TableSpec, rows []catalog.Row) error
	SyncAutoIncrement(ctx context.Context, spec catalog.TableSpec) (int64, error)
	Read(ctx context.Context, spec catalog.TableSpec) ([]catalog.Row, error)

	Close() error
}

// OpenTargetFunc connects to the target. It is never called on a dry run.
type OpenTargetFunc func(ctx context.Context) (Target, error)

type Logger interface {
	Infof(format string, args ...any)
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

type Options struct {
	Catalog        *catalog.Catalog
	Algorithm      checksum.Algorithm
	DryRun         bool
	TruncateTarget bool
	OpenTarget     OpenTargetFunc
	Logger         Logger
}

// Migrator runs a single migration. It is not safe for concurrent use.
type Migrator struct {
	opts  Options
	log   Logger
	state State
}

func New(opts Options) (*Migrator, error) {
	if opts.Catalog == nil {
		return nil, errors.New("migration: catalog is required")
	}

	if !opts.DryRun && opts.OpenTarget == nil {
		return nil, errors.New("migration: target opener is required unless dry run")
	}

	if opts.Algorithm == "" {
		opts.Algorithm = checksum.SHA256
	}

	if _, err := checksum.New(opts.Algorithm); err != nil {
		return nil, err
	}

	var log Logger = nopLogger{}
	if opts.Logger != nil {
		log = opts.Logger
	}

	return &Migrator{opts: opts, log: log}, nil
}

func (m *Migrator) State() State { return m.state }

func (m *Migrator) transition(s State) {
	m.log.Debugf("migration: %s -> %s\n", m.state, s)
	m.state = s
}

// Run copies every catalog table from src into the target, recording
// per-table outcomes and the final status in rep.
func (m *Migrator) Run(ctx context.Context, src Source, rep *report.Report) (retErr error) {
	if m.state != StateIdle {
		return fmt.Errorf("migration: run already started (state %s)", m.state)
	}

	defer func() {
		if retErr != nil {
			rep.Fail(retErr)
			return
		}

		rep.Succeed()
	}()

	m.transition(StatePreflight)

	if m.opts.DryRun && m.opts.TruncateTarget {
		m.log.Warnf("dry run: --truncate-target is ignored\n")
	}

	tables := m.opts.Catalog.Tables()

	for _, spec := range tables {
		if err := src.CheckSchema(ctx, spec); err != nil {
			return &migrateerrors.TableError{Table: spec.Name(), Op: "check source schema", Err: err}
		}
	}

	var tgt Target

	if !m.opts.DryRun {
		t, err := m.opts.OpenTarget(ctx)
		if err != nil {
			return fmt.Errorf("open target: %w", err)
		}

		tgt = t

		defer func() {
			if err := tgt.Close(); err != nil {
				retErr = errors.Join(retErr, fmt.Errorf("close target: %w", err))
			}
		}()

		if err := m.preflightTarget(ctx, tgt, tables); err != nil {
			return err
		}

		if err := tgt.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			if retErr == nil {
				return
			}

			if err := tgt.Rollback(); err != nil {
				retErr = errors.Join(retErr, err)
			}

			m.transition(StateRolledBack)
			m.log.Warnf("target transaction rolled back\n")
		}()
	}

	m.transition(StateCopying)

	for _, spec := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := m.copyTable(ctx, src, tgt, spec, rep); err != nil {
			return err
		}
	}

	if tgt != nil {
		if err := m.syncAutoIncrements(ctx, tgt, tables, rep); err != nil {
			return err
		}

		if err := tgt.Commit(); err != nil {
			return err
		}
	}

	m.transition(StateCommitted)

	return nil
}

func (m *Migrator) preflightTarget(ctx context.Context, tgt Target, tables []catalog.TableSpec) error {
	for _, spec := range tables {
		if err := tgt.CheckSchema(ctx, spec); err != nil {
			return &migrateerrors.TableError{Table: spec.Name(), Op: "check target schema", Err: err}
		}
	}

	if m.opts.TruncateTarget {
		reverse := m.opts.Catalog.Reverse()

		names := make([]string, len(reverse))
		for i, s := range reverse {
			names[i] = s.Name()
		}

		if err := tgt.TruncateAll(ctx, names); err != nil {
			return err
		}

		m.log.Warnf("truncated %d target tables; truncation is committed and not undone by a rollback\n", len(names))

		return nil
	}

	for _, spec := range tables {
		if err := tgt.VerifyEmpty(ctx, spec.Name()); err != nil {
			return &migrateerrors.TableError{Table: spec.Name(), Op: "verify empty", Err: err}
		}
	}

	return nil
}

// copyTable copies and verifies one table. Once the source side is
// checksummed, a failure records the table with verified=false.
func (m *Migrator) copyTable(ctx context.Context, src Source, tgt Target, spec catalog.TableSpec, rep *report.Report) (retErr error) {
	name := spec.Name()

	rows, err := src.Read(ctx, spec)
	if err != nil {
		return &migrateerrors.TableError{Table: name, Op: "read source", Err: err}
	}

	srcSum, err := checksum.Sum(m.opts.Algorithm, rows)
	if err != nil {
		return err
	}

	tr := report.Table{
		SourceCount:    srcSum.Count,
		SourceChecksum: srcSum.Digest,
	}

	if m.opts.DryRun {
		tr.Verified = report.VerifiedDryRun()
		rep.Record(name, tr)
		m.log.Infof("%s: %d rows (dry run)\n", name, srcSum.Count)

		return nil
	}

	defer func() {
		if retErr != nil {
			tr.Verified = report.VerifiedResult(false)
		}

		rep.Record(name, tr)
	}()

	if err := tgt.InsertAll(ctx, spec, rows); err != nil {
		return &migrateerrors.TableError{Table: name, Op: "insert", Err: err}
	}

	targetRows, err := tgt.Read(ctx, spec)
	if err != nil {
		return &migrateerrors.TableError{Table: name, Op: "read target", Err: err}
	}

	tgtSum, err := checksum.Sum(m.opts.Algorithm, targetRows)
	if err != nil {
		return err
	}

	tr.TargetCount = &tgtSum.Count
	tr.TargetChecksum = &tgtSum.Digest
	tr.Verified = report.VerifiedResult(srcSum.Equal(tgtSum))

	if !tr.Verified.OK() {
		return &migrateerrors.TableError{
			Table: name,
			Op:    "verify",
			Err: fmt.Errorf("%w: source_count=%d target_count=%d",
				migrateerrors.ErrVerificationMismatch, srcSum.Count, tgtSum.Count),
		}
	}

	m.log.Infof("%s: %d rows verified\n", name, srcSum.Count)

	return nil
}

// syncAutoIncrements moves every generated-key counter past the copied
// keys. It runs only after all tables verified: ALTER TABLE commits
// implicitly on MariaDB, so it must not run while unverified rows are pending.
func (m *Migrator) syncAutoIncrements(ctx context.Context, tgt Target, tables []catalog.TableSpec, rep *report.Report) error {
	for _, spec := range tables {
		if _, ok := spec.AutoIncrement(); !ok {
			continue
		}

		name := spec.Name()
		tr := rep.Tables[name]

		next, err := tgt.SyncAutoIncrement(ctx, spec)
		if err != nil {
			tr.Verified = report.VerifiedResult(false)
			rep.Record(name, tr)

			return &migrateerrors.TableError{Table: name, Op: "sync auto increment", Err: err}
		}

		if next > 0 {
			tr.AutoIncrement = &next
			rep.Record(name, tr)
			m.log.Debugf("%s: next auto increment %d\n", name, next)
		}
	}

	return nil
}

// Finalize persists rep to path. It runs after [Migrator.Run] on every
// exit path.
func (m *Migrator) Finalize(rep *report.Report, path string) error {
	if err := rep.Write(path); err != nil {
		return err
	}

	m.transition(StateReportWritten)
	m.log.Infof("migration report written to %s\n", path)
	m.transition(StateDone)

	return nil
}
