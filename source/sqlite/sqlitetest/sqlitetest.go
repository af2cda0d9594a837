// Package sqlitetest builds SQLite source databases for tests.
package sqlitetest

import (
	"database/sql"
	"embed"
	"path/filepath"
	"testing"

	"github.com/ladzaretti/migrate"

	// Package sqlite is a CGo-free port of SQLite/SQLite3.
	_ "modernc.org/sqlite"
)

var (
	//go:embed migrations
	embedFS embed.FS

	stationchatMigrations = migrate.EmbeddedMigrations{
		FS:   embedFS,
		Path: "migrations",
	}
)

// fixtureDialect tracks applied fixture migrations in their own table;
// stationchat already owns schema_version.
type fixtureDialect struct{}

func (fixtureDialect) CreateVersionTableQuery() string {
	return `
		CREATE TABLE
			IF NOT EXISTS fixture_version (
				id INTEGER PRIMARY KEY CHECK (id = 0),
				version INTEGER,
				checksum TEXT NOT NULL
			);
	`
}

func (fixtureDialect) CurrentVersionQuery() string {
	return `SELECT id, version, checksum FROM fixture_version;`
}

func (fixtureDialect) SaveVersionQuery() string {
	return `
		INSERT INTO fixture_version (id, version, checksum)
		VALUES (0, $1, $2)
		ON CONFLICT(id)
		DO UPDATE SET version = EXCLUDED.version, checksum = EXCLUDED.checksum;
	`
}

func open(t *testing.T) (*sql.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stationchat.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}

	return db, path
}

func exec(t *testing.T, db *sql.DB, statements []string) {
	t.Helper()

	for _, stmt := range statements {
		if _, err := db.ExecContext(t.Context(), stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

// Create writes a new SQLite file under t.TempDir(), executes the given
// statements in order, and returns the file path.
func Create(t *testing.T, statements ...string) string {
	t.Helper()

	db, path := open(t)
	defer func() { _ = db.Close() }()

	exec(t, db, statements)

	return path
}

// CreateStationchat creates a source with the stationchat schema applied
// and runs the given statements, typically INSERTs, afterwards.
func CreateStationchat(t *testing.T, inserts ...string) string {
	t.Helper()

	db, path := open(t)
	defer func() { _ = db.Close() }()

	m := migrate.New(db, fixtureDialect{})

	if _, err := m.ApplyContext(t.Context(), stationchatMigrations); err != nil {
		t.Fatalf("apply stationchat schema: %v", err)
	}

	exec(t, db, inserts)

	return path
}
