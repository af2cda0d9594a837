// Package checksum computes order-sensitive content digests over row sequences.
//
// Each value is canonicalized to text, the values of a row are joined with
// the ASCII unit separator (0x1f), and every canonical row followed by a
// newline is fed into the hash. Two row sequences are equivalent iff both
// their row count and digest match.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	// Separator joins the canonical values of a single row.
	Separator = "\x1f"

	// Null is the canonical form of a SQL NULL.
	Null = "NULL"

	timeLayout = "2006-01-02 15:04:05.999999"
)

// Algorithm names a digest function.
type Algorithm string

const (
	SHA256  Algorithm = "sha256"
	BLAKE2b Algorithm = "blake2b"
)

// Algorithms lists the supported digest functions, default first.
var Algorithms = []Algorithm{SHA256, BLAKE2b}

func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case SHA256, "":
		return sha256.New(), nil
	case BLAKE2b:
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("checksum: unsupported algorithm %q", string(a))
	}
}

// ParseAlgorithm resolves a digest name, case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if a == "" {
		return SHA256, nil
	}

	if _, err := a.newHash(); err != nil {
		return "", err
	}

	return a, nil
}

// Result is the outcome of checksumming a row sequence.
type Result struct {
	Count  int64
	Digest string
}

// Equal reports whether both the row counts and digests match.
func (r Result) Equal(o Result) bool {
	return r.Count == o.Count && r.Digest == o.Digest
}

// Hasher accumulates rows into a running digest.
type Hasher struct {
	h     hash.Hash
	count int64
	sb    strings.Builder
}

// New returns a [Hasher] for the given algorithm.
func New(a Algorithm) (*Hasher, error) {
	h, err := a.newHash()
	if err != nil {
		return nil, err
	}

	return &Hasher{h: h}, nil
}

// Add feeds one row into the digest.
func (h *Hasher) Add(row []any) {
	h.sb.Reset()

	for i, v := range row {
		if i > 0 {
			h.sb.WriteString(Separator)
		}

		h.sb.WriteString(Canonical(v))
	}

	h.sb.WriteByte('\n')

	_, _ = h.h.Write([]byte(h.sb.String()))
	h.count++
}

// Result returns the count and lowercase hex digest of the rows added so far.
func (h *Hasher) Result() Result {
	return Result{
		Count:  h.count,
		Digest: hex.EncodeToString(h.h.Sum(nil)),
	}
}

// Sum checksums rows in the given order.
func Sum(a Algorithm, rows [][]any) (Result, error) {
	h, err := New(a)
	if err != nil {
		return Result{}, err
	}

	for _, r := range rows {
		h.Add(r)
	}

	return h.Result(), nil
}

// Canonical returns the text form of a single column value.
//
// Binary values are encoded as lowercase hex and NULL as [Null].
func Canonical(v any) string {
	switch x := v.(type) {
	case nil:
		return Null
	case []byte:
		if x == nil {
			return Null
		}

		return hex.EncodeToString(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case bool:
		if x {
			return "1"
		}

		return "0"
	case time.Time:
		return x.UTC().Format(timeLayout)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// formatFloat renders integral floats without an exponent or fraction
// so REAL columns holding whole numbers match their integer form.
func formatFloat(f float64) string {
	if f == float64(int64(f)) && f < 1e15 && f > -1e15 {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}
