package checksum_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/ladzaretti/chatmigrate/checksum"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"binary", []byte{0xFF, 0x00}, "ff00"},
		{"empty binary", []byte{}, ""},
		{"null", nil, "NULL"},
		{"string", "hello", "hello"},
		{"literal NULL string", "NULL", "NULL"},
		{"int64", int64(-42), "-42"},
		{"uint64", uint64(18446744073709551615), "18446744073709551615"},
		{"int", 7, "7"},
		{"whole float", float64(3), "3"},
		{"fractional float", 1.5, "1.5"},
		{"bool", true, "1"},
		{"time", time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC), "2024-05-01 10:20:30"},
		{"time with micros", time.Date(2024, 5, 1, 10, 20, 30, 123000, time.UTC), "2024-05-01 10:20:30.000123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checksum.Canonical(tt.in); got != tt.want {
				t.Errorf("Canonical(%#v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSum_MatchesCanonicalEncoding(t *testing.T) {
	rows := [][]any{
		{int64(1), "alice", []byte{0xFF, 0x00}, nil},
		{int64(2), "bob", []byte{0x01}, "x"},
	}

	h := sha256.New()
	h.Write([]byte("1\x1falice\x1fff00\x1fNULL\n"))
	h.Write([]byte("2\x1fbob\x1f01\x1fx\n"))
	want := hex.EncodeToString(h.Sum(nil))

	got, err := checksum.Sum(checksum.SHA256, rows)
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}

	if got.Count != 2 {
		t.Errorf("count = %d, want 2", got.Count)
	}

	if got.Digest != want {
		t.Errorf("digest = %s, want %s", got.Digest, want)
	}
}

func TestSum_Deterministic(t *testing.T) {
	rows := [][]any{{int64(1), "a"}, {int64(2), "b"}, {int64(3), "c"}}

	for _, a := range checksum.Algorithms {
		first, err := checksum.Sum(a, rows)
		if err != nil {
			t.Fatalf("%s: %v", a, err)
		}

		second, _ := checksum.Sum(a, rows)
		if !first.Equal(second) {
			t.Errorf("%s: digest not deterministic: %v != %v", a, first, second)
		}
	}
}

func TestSum_OrderSensitive(t *testing.T) {
	ordered := [][]any{{int64(1), "a"}, {int64(2), "b"}}
	swapped := [][]any{{int64(2), "b"}, {int64(1), "a"}}

	a, _ := checksum.Sum(checksum.SHA256, ordered)
	b, _ := checksum.Sum(checksum.SHA256, swapped)

	if a.Count != b.Count {
		t.Fatalf("counts differ: %d != %d", a.Count, b.Count)
	}

	if a.Digest == b.Digest {
		t.Error("permuted rows produced the same digest")
	}
}

func TestSum_DriverTypesAgree(t *testing.T) {
	// sqlite yields int64 where mariadb may yield uint64 for unsigned columns.
	a, _ := checksum.Sum(checksum.SHA256, [][]any{{int64(9), "x"}})
	b, _ := checksum.Sum(checksum.SHA256, [][]any{{uint64(9), "x"}})

	if !a.Equal(b) {
		t.Errorf("int64 and uint64 rows differ: %v != %v", a, b)
	}
}

func TestSum_Empty(t *testing.T) {
	got, err := checksum.Sum(checksum.SHA256, nil)
	if err != nil {
		t.Fatal(err)
	}

	empty := sha256.Sum256(nil)
	if got.Count != 0 || got.Digest != hex.EncodeToString(empty[:]) {
		t.Errorf("empty sum = %+v", got)
	}
}

func TestAlgorithms_Differ(t *testing.T) {
	rows := [][]any{{int64(1)}}

	s, _ := checksum.Sum(checksum.SHA256, rows)
	b, _ := checksum.Sum(checksum.BLAKE2b, rows)

	if s.Digest == b.Digest {
		t.Error("sha256 and blake2b produced the same digest")
	}

	if len(b.Digest) != 64 {
		t.Errorf("blake2b digest length = %d, want 64", len(b.Digest))
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    checksum.Algorithm
		wantErr bool
	}{
		{"", checksum.SHA256, false},
		{"SHA256", checksum.SHA256, false},
		{" blake2b ", checksum.BLAKE2b, false},
		{"md5", "", true},
	}

	for _, tt := range tests {
		got, err := checksum.ParseAlgorithm(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAlgorithm(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}

		if got != tt.want {
			t.Errorf("ParseAlgorithm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
