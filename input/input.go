package input

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPasswordFunc is used to read passwords securely.
var readPasswordFunc = term.ReadPassword

// SetDefaultReadPassword overrides readPasswordFunc for testing.
func SetDefaultReadPassword(f func(fd int) ([]byte, error)) {
	readPasswordFunc = f
}

// ResetDefaultReadPassword restores the terminal password reader.
func ResetDefaultReadPassword() {
	readPasswordFunc = term.ReadPassword
}

func IsPipedOrRedirected(fi os.FileInfo) bool {
	return (fi.Mode() & os.ModeCharDevice) == 0
}

// ReadLine reads a single line from r, without the trailing newline
// or surrounding carriage returns.
func ReadLine(r io.Reader) (string, error) {
	line, err := readUntil(r, '\n')
	if err != nil {
		return "", fmt.Errorf("read line: %w", err)
	}

	return strings.TrimRight(string(line), "\r"), nil
}

// readUntil reads from r until the given delimiter is found.
// It reads one byte at a time so nothing past the delimiter is consumed.
func readUntil(r io.Reader, delim byte) ([]byte, error) {
	buf := make([]byte, 0, 64)
	tmp := make([]byte, 1)

	for {
		n, err := r.Read(tmp)
		if n > 0 {
			if tmp[0] == delim {
				break
			}

			buf = append(buf, tmp[0])
		}

		if err != nil {
			if err == io.EOF {
				break
			}

			return buf, fmt.Errorf("readUntil failed: %w", err)
		}
	}

	return buf, nil
}

// PromptReadSecure prompts the user via w for input and securely reads it
// from the given file descriptor.
func PromptReadSecure(w io.Writer, fd int, prompt string, a ...any) ([]byte, error) {
	fmt.Fprintf(w, prompt, a...)
	defer fmt.Fprintln(w)

	bs, err := readPasswordFunc(fd)
	if err != nil {
		return nil, fmt.Errorf("term read password: %w", err)
	}

	return bs, nil
}

// PromptPassword prompts for the password of user@host without echo.
// The prompt is displayed via the writer w, and input is read from the
// given file descriptor fd.
func PromptPassword(w io.Writer, fd int, user, host string) ([]byte, error) {
	return PromptReadSecure(w, fd, "Enter MariaDB password for %s@%s: ", user, host)
}
