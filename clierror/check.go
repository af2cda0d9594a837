package clierror

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ladzaretti/chatmigrate/migrateerrors"
)

const (
	DefaultErrorExitCode = 1

	// SourceNotFoundExitCode is returned when the source database is missing.
	// No report is written in that case.
	SourceNotFoundExitCode = 2
)

var (
	// errHandler is the function used to handle cli errors.
	errHandler = FatalErrHandler

	// errWriter is used to output cli error messages.
	errWriter io.Writer = os.Stderr

	// fprintf is the function used to format and print errors.
	fprintf = fmt.Fprintf

	// debugMode enables always printing raw error values.
	debugMode bool
)

// SetErrorHandler overrides the default [FatalErrHandler] error handler.
func SetErrorHandler(f func(string, int)) {
	errHandler = f
}

// ResetErrorHandler restores the default error handler.
func ResetErrorHandler() {
	errHandler = FatalErrHandler
}

// SetErrWriter overrides the default error output writer [os.Stderr].
func SetErrWriter(w io.Writer) {
	errWriter = w
}

// ResetErrWriter restores the default error output writer to [os.Stderr].
func ResetErrWriter() {
	errWriter = os.Stderr
}

// DebugMode sets whether debug logging is enabled.
//
// When enabled, raw error values are printed to stderr.
func DebugMode(enabled bool) {
	debugMode = enabled
}

// FatalErrHandler prints the message provided and then exits with the given code.
func FatalErrHandler(msg string, code int) {
	printError(msg)

	//nolint:revive // Intentional exit after fatal error.
	os.Exit(code)
}

func PrintErrHandler(msg string, _ int) {
	printError(msg)
}

func printError(msg string) {
	if len(msg) == 0 {
		return
	}

	// add newline if needed
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	_, _ = fprintf(errWriter, "%s", msg)
}

func debugPrint(err error) {
	if !debugMode {
		return
	}

	_, _ = fprintf(errWriter, "DEBUG %+v\n", err)
}

// Check prints a user-friendly error message and invokes the configured error handler.
//
// When the [FatalErrHandler] is used, the program will exit before this function returns.
func Check(err error) error {
	check(err, errHandler)
	return err
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, migrateerrors.ErrSourceNotFound):
		return SourceNotFoundExitCode
	default:
		return DefaultErrorExitCode
	}
}

//nolint:revive
func check(err error, handleErr func(string, int)) {
	if err == nil {
		return
	}

	debugPrint(err)

	code := ExitCode(err)

	switch {
	case errors.Is(err, migrateerrors.ErrSourceNotFound):
		handleErr("chatmigrate: "+err.Error(), code)
	case errors.Is(err, migrateerrors.ErrTargetNotEmpty):
		handleErr("chatmigrate: "+err.Error()+"\nStart from a clean baseline schema or rerun with --truncate-target.", code)
	case errors.Is(err, migrateerrors.ErrSchemaMismatch):
		handleErr("chatmigrate: "+err.Error()+"\nApply the stationchat schema to the target before migrating.", code)
	case errors.Is(err, migrateerrors.ErrMissingPassword):
		handleErr("chatmigrate: "+err.Error()+"\nUse --mariadb-password, --password-stdin, or run interactively to be prompted.", code)
	default:
		msg := err.Error()
		if !strings.HasPrefix(msg, "chatmigrate: ") {
			msg = "chatmigrate: " + msg
		}

		handleErr(msg, code)
	}
}
