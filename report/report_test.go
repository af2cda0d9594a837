package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	nowFunc = func() time.Time { return now }

	t.Cleanup(func() { nowFunc = time.Now })

	return now
}

func TestVerified_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   Verified
		want string
	}{
		{"unset", Verified{}, "null"},
		{"true", VerifiedResult(true), "true"},
		{"false", VerifiedResult(false), "false"},
		{"dry run", VerifiedDryRun(), `"dry_run"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatal(err)
			}

			if string(got) != tt.want {
				t.Errorf("marshal = %s, want %s", got, tt.want)
			}

			var back Verified
			if err := json.Unmarshal(got, &back); err != nil {
				t.Fatal(err)
			}

			if back != tt.in {
				t.Errorf("unmarshal = %v, want %v", back, tt.in)
			}
		})
	}
}

func TestVerified_OK(t *testing.T) {
	if VerifiedDryRun().OK() {
		t.Error("dry run must not count as verified")
	}

	if !VerifiedResult(true).OK() {
		t.Error("true result must be verified")
	}

	if (Verified{}).OK() {
		t.Error("unset result must not be verified")
	}
}

func TestReport_WriteRead(t *testing.T) {
	now := fixedNow(t)

	r := New(Options{
		SQLitePath:        "stationchat.db",
		MariaDB:           Target{Host: "127.0.0.1", Port: 3306, Schema: "stationchat", User: "root"},
		TableOrder:        []string{"avatar", "room"},
		ChecksumAlgorithm: "sha256",
	})

	if r.Status != StatusInProgress {
		t.Fatalf("new report status = %q, want %q", r.Status, StatusInProgress)
	}

	count, digest := int64(2), "abc"
	r.Record("avatar", Table{
		SourceCount:    2,
		SourceChecksum: "abc",
		TargetCount:    &count,
		TargetChecksum: &digest,
		Verified:       VerifiedResult(true),
	})
	r.Record("room", Table{SourceChecksum: "def", Verified: VerifiedResult(true)})
	r.Succeed()

	path := filepath.Join(t.TempDir(), "nested", "report.json")
	if err := r.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if !got.GeneratedAtUTC.Equal(now) {
		t.Errorf("generated_at_utc = %v, want %v", got.GeneratedAtUTC, now)
	}

	if diff := gocmp.Diff(r, got, gocmp.AllowUnexported(Verified{}), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestReport_WriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	if err := os.WriteFile(path, []byte("stale"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := New(Options{TableOrder: []string{"avatar"}, ChecksumAlgorithm: "sha256"})
	r.Fail(errors.New("boom"))

	if err := r.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Status != StatusFailed || got.Error != "boom" {
		t.Errorf("status/error = %q/%q", got.Status, got.Error)
	}

	// a directory at the target path makes the final rename fail.
	blocked := filepath.Join(dir, "blocked")
	if err := os.Mkdir(blocked, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := r.Write(blocked); err == nil {
		t.Error("expected error writing over a directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	if diff := gocmp.Diff([]string{"blocked", "report.json"}, names); diff != "" {
		t.Errorf("leftover files (-want +got):\n%s", diff)
	}
}

func TestReport_FailedShape(t *testing.T) {
	fixedNow(t)

	r := New(Options{DryRun: true, TableOrder: []string{"avatar"}})
	r.Record("avatar", Table{SourceCount: 1, SourceChecksum: "x", Verified: VerifiedDryRun()})
	r.Fail(errors.New("boom"))

	path := filepath.Join(t.TempDir(), "report.json")
	if err := r.Write(path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}

	if doc["status"] != "failed" || doc["error"] != "boom" {
		t.Errorf("status/error = %v/%v", doc["status"], doc["error"])
	}

	avatar := doc["tables"].(map[string]any)["avatar"].(map[string]any)
	if avatar["verified"] != "dry_run" {
		t.Errorf("verified = %v, want dry_run", avatar["verified"])
	}

	if v, ok := avatar["target_count"]; !ok || v != nil {
		t.Errorf("target_count = %v (present=%v), want explicit null", v, ok)
	}

	if _, ok := avatar["auto_increment"]; ok {
		t.Error("auto_increment should be omitted when unset")
	}
}

func TestReport_RunIDUnique(t *testing.T) {
	a, b := New(Options{}), New(Options{})
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("run ids not unique: %q %q", a.RunID, b.RunID)
	}
}

func TestDefaultPath(t *testing.T) {
	got := DefaultPath(time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC))
	if want := "migration_report_20261019T083000Z.json"; got != want {
		t.Errorf("DefaultPath = %q, want %q", got, want)
	}

	if !strings.HasSuffix(got, ".json") {
		t.Error("missing json suffix")
	}
}
