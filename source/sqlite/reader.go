// Package sqlite reads ordered table projections from a stationchat SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/ladzaretti/chatmigrate/catalog"
	"github.com/ladzaretti/chatmigrate/migrateerrors"

	// Package sqlite is a CGo-free port of SQLite/SQLite3.
	_ "modernc.org/sqlite"
)

// Reader is a read-only handle on the source database.
type Reader struct {
	Path string

	db *sql.DB
}

// Open opens the SQLite file at path in read-only mode.
//
// It returns [migrateerrors.ErrSourceNotFound] if the file does not exist,
// and [migrateerrors.ErrSourceUnavailable] if it cannot be opened as a database.
func Open(ctx context.Context, path string) (*Reader, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", migrateerrors.ErrSourceNotFound, path)
		}

		return nil, fmt.Errorf("%w: stat %s: %v", migrateerrors.ErrSourceUnavailable, path, err)
	}

	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", migrateerrors.ErrSourceUnavailable, path)
	}

	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite open: %v", migrateerrors.ErrSourceUnavailable, err)
	}

	// a file that is not a database only fails on first access.
	if _, err := db.ExecContext(ctx, "PRAGMA schema_version"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", migrateerrors.ErrSourceUnavailable, err)
	}

	return &Reader{Path: path, db: db}, nil
}

func readOnlyDSN(path string) string {
	u := url.URL{
		Scheme:   "file",
		Opaque:   path,
		RawQuery: "mode=ro",
	}

	return u.String()
}

func (r *Reader) Close() error {
	return r.db.Close()
}

const tableInfo = `SELECT name FROM pragma_table_info(?)`

// Columns returns the column names of table as declared in the source schema.
func (r *Reader) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, tableInfo, table)
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}

		cols = append(cols, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}

	return cols, nil
}

// CheckSchema verifies that the table and all of its declared columns exist.
func (r *Reader) CheckSchema(ctx context.Context, spec catalog.TableSpec) error {
	cols, err := r.Columns(ctx, spec.Name())
	if err != nil {
		return err
	}

	if len(cols) == 0 {
		return fmt.Errorf("%w: source table %q does not exist", migrateerrors.ErrSchemaMismatch, spec.Name())
	}

	have := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		have[strings.ToLower(c)] = struct{}{}
	}

	var missing []string

	for _, c := range spec.Columns() {
		if _, ok := have[strings.ToLower(c)]; !ok {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: source table %q is missing columns: %s",
			migrateerrors.ErrSchemaMismatch, spec.Name(), strings.Join(missing, ", "))
	}

	return nil
}

// Read returns all rows of the table projected onto its declared
// columns and ordered by its sort key.
func (r *Reader) Read(ctx context.Context, spec catalog.TableSpec) ([]catalog.Row, error) {
	if err := r.CheckSchema(ctx, spec); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, selectQuery(spec))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", spec.Name(), err)
	}
	defer func() { _ = rows.Close() }()

	var (
		n   = len(spec.Columns())
		out []catalog.Row
	)

	for rows.Next() {
		row := make(catalog.Row, n)

		ptrs := make([]any, n)
		for i := range row {
			ptrs[i] = &row[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", spec.Name(), err)
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", spec.Name(), err)
	}

	return out, nil
}

func selectQuery(spec catalog.TableSpec) string {
	return fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`,
		quoteList(spec.Columns()), quote(spec.Name()), quoteList(spec.OrderBy()))
}

func quote(name string) string {
	return `"` + name + `"`
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}

	return strings.Join(quoted, ", ")
}
