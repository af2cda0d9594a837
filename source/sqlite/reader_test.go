package sqlite_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ladzaretti/chatmigrate/catalog"
	"github.com/ladzaretti/chatmigrate/checksum"
	"github.com/ladzaretti/chatmigrate/migrateerrors"
	"github.com/ladzaretti/chatmigrate/source/sqlite"
	"github.com/ladzaretti/chatmigrate/source/sqlite/sqlitetest"

	gocmp "github.com/google/go-cmp/cmp"
)

var friendSpec = catalog.NewTableSpec("friend",
	[]string{"avatar_id", "friend_avatar_id", "comment"},
	[]string{"avatar_id", "friend_avatar_id"},
	"")

func mustOpen(t *testing.T, path string) *sqlite.Reader {
	t.Helper()

	r, err := sqlite.Open(t.Context(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	t.Cleanup(func() { _ = r.Close() })

	return r
}

func TestOpen_NotFound(t *testing.T) {
	_, err := sqlite.Open(t.Context(), filepath.Join(t.TempDir(), "missing.db"))
	if !errors.Is(err, migrateerrors.ErrSourceNotFound) {
		t.Fatalf("want ErrSourceNotFound, got %v", err)
	}
}

func TestOpen_NotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db")
	if err := os.WriteFile(path, []byte("definitely not an sqlite file, padded to exceed the header size"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := sqlite.Open(t.Context(), path)
	if !errors.Is(err, migrateerrors.ErrSourceUnavailable) {
		t.Fatalf("want ErrSourceUnavailable, got %v", err)
	}
}

func TestOpen_Directory(t *testing.T) {
	_, err := sqlite.Open(t.Context(), t.TempDir())
	if !errors.Is(err, migrateerrors.ErrSourceUnavailable) {
		t.Fatalf("want ErrSourceUnavailable, got %v", err)
	}
}

func TestRead_OrderedBySortKey(t *testing.T) {
	path := sqlitetest.CreateStationchat(t,
		`INSERT INTO friend VALUES (2, 1, 'b')`,
		`INSERT INTO friend VALUES (1, 3, NULL)`,
		`INSERT INTO friend VALUES (1, 2, 'a')`,
	)

	r := mustOpen(t, path)

	got, err := r.Read(t.Context(), friendSpec)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	want := []catalog.Row{
		{int64(1), int64(2), "a"},
		{int64(1), int64(3), nil},
		{int64(2), int64(1), "b"},
	}

	if diff := gocmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_PhysicalOrderDoesNotChangeDigest(t *testing.T) {
	forward := sqlitetest.CreateStationchat(t,
		`INSERT INTO friend VALUES (1, 2, 'a')`,
		`INSERT INTO friend VALUES (1, 3, 'b')`,
		`INSERT INTO friend VALUES (4, 1, 'c')`,
	)
	backward := sqlitetest.CreateStationchat(t,
		`INSERT INTO friend VALUES (4, 1, 'c')`,
		`INSERT INTO friend VALUES (1, 3, 'b')`,
		`INSERT INTO friend VALUES (1, 2, 'a')`,
	)

	sum := func(path string) checksum.Result {
		rows, err := mustOpen(t, path).Read(t.Context(), friendSpec)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}

		res, err := checksum.Sum(checksum.SHA256, rows)
		if err != nil {
			t.Fatal(err)
		}

		return res
	}

	if a, b := sum(forward), sum(backward); !a.Equal(b) {
		t.Errorf("digest depends on physical order: %v != %v", a, b)
	}
}

func TestRead_Blob(t *testing.T) {
	path := sqlitetest.CreateStationchat(t,
		`INSERT INTO persistent_message VALUES (1, 1, 'from', 'addr', 'subj', 100, 0, 'inbox', 'cat', 'hi', X'FF00')`,
	)

	spec, _ := catalog.Default().Lookup("persistent_message")

	rows, err := mustOpen(t, path).Read(t.Context(), spec)
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	if got := checksum.Canonical(rows[0][10]); got != "ff00" {
		t.Errorf("oob canonical = %q, want ff00", got)
	}
}

func TestRead_SchemaMismatch(t *testing.T) {
	path := sqlitetest.Create(t, `CREATE TABLE friend (avatar_id INTEGER, friend_avatar_id INTEGER)`)
	r := mustOpen(t, path)

	_, err := r.Read(t.Context(), friendSpec)
	if !errors.Is(err, migrateerrors.ErrSchemaMismatch) {
		t.Fatalf("want ErrSchemaMismatch for missing column, got %v", err)
	}

	missingTable := catalog.NewTableSpec("nope", []string{"a"}, []string{"a"}, "")

	_, err = r.Read(t.Context(), missingTable)
	if !errors.Is(err, migrateerrors.ErrSchemaMismatch) {
		t.Fatalf("want ErrSchemaMismatch for missing table, got %v", err)
	}
}

func TestColumns(t *testing.T) {
	path := sqlitetest.CreateStationchat(t)

	got, err := mustOpen(t, path).Columns(t.Context(), "avatar")
	if err != nil {
		t.Fatalf("columns: %v", err)
	}

	want := []string{"id", "user_id", "name", "address", "attributes"}
	if diff := gocmp.Diff(want, got); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}
