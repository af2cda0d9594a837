package cli

import (
	"strings"

	"github.com/ladzaretti/chatmigrate/checksum"

	"github.com/spf13/pflag"
)

// checksumValue is a [pflag.Value] restricted to the supported digest algorithms.
type checksumValue struct {
	algo *checksum.Algorithm
}

var _ pflag.Value = checksumValue{}

func newChecksumValue(p *checksum.Algorithm) checksumValue {
	return checksumValue{algo: p}
}

func (v checksumValue) String() string {
	if v.algo == nil {
		return ""
	}

	return string(*v.algo)
}

func (v checksumValue) Set(s string) error {
	a, err := checksum.ParseAlgorithm(s)
	if err != nil {
		return err
	}

	*v.algo = a

	return nil
}

func (checksumValue) Type() string {
	return "algorithm"
}

func checksumUsage() string {
	names := make([]string, len(checksum.Algorithms))
	for i, a := range checksum.Algorithms {
		names[i] = string(a)
	}

	return "row checksum algorithm, one of: " + strings.Join(names, ", ") + " (default: sha256)"
}
