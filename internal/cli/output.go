package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/roach88/cafesync/internal/config"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/realtime"
	"github.com/roach88/cafesync/internal/remote"
)

// Process exit statuses.
const (
	ExitSuccess = 0
	// ExitFailure: the command ran but the backend, the loop or a scenario
	// said no.
	ExitFailure = 1
	// ExitCommandError: the command could not start (flags, config, state
	// file, missing backend).
	ExitCommandError = 2
)

// ExitError carries the exit status a command wants Main to return.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit status and context to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit status. Errors without an
// ExitError in their chain count as ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Error codes reported in CLIError.Code.
const (
	CodeConfig      = "CONFIG"
	CodeNotFound    = "NOT_FOUND"
	CodeInvalid     = "INVALID_INPUT"
	CodeUnavailable = "BACKEND_UNAVAILABLE"
	CodeFailure     = "FAILURE"
	CodeCommand     = "COMMAND"
)

// ErrorCode classifies err for machine-readable output. Sync loop errors
// keep their own code.
func ErrorCode(err error) string {
	var syncErr *realtime.SyncError
	switch {
	case errors.As(err, &syncErr):
		return string(syncErr.Code)
	case errors.Is(err, config.ErrInvalid):
		return CodeConfig
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case remote.IsUnavailable(err):
		return CodeUnavailable
	case isInvalidInput(err):
		return CodeInvalid
	case GetExitCode(err) == ExitCommandError:
		return CodeCommand
	}
	return CodeFailure
}

var invalidInput = []error{
	domain.ErrInvalidID,
	domain.ErrInvalidStatus,
	domain.ErrInvalidTransition,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidPrice,
	domain.ErrInvalidAmount,
	domain.ErrMissingCustomer,
	domain.ErrNoItems,
	domain.ErrMissingName,
	domain.ErrInvalidDate,
	domain.ErrInvalidEmail,
	domain.ErrInvalidPhone,
}

func isInvalidInput(err error) bool {
	for _, target := range invalidInput {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// OutputFormatter writes command results either as text for operators or
// as one JSON envelope per call for scripts.
type OutputFormatter struct {
	Format string
	Writer io.Writer
	// ErrWriter receives diagnostics. Nil means Writer.
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope. Status is "ok" or "error".
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success prints data, or wraps it in an "ok" envelope.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Result writes data as a JSON response, or calls text to render it for
// humans.
func (f *OutputFormatter) Result(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	return text(f.Writer)
}

// Error reports a failed command. Details are printed in text mode only
// when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog writes a diagnostic line when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func newTableWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// writeTable renders rows under headers as aligned columns.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	tw := newTableWriter(w)
	writeRow(tw, headers)
	for _, row := range rows {
		writeRow(tw, row)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, cell)
	}
	fmt.Fprintln(w)
}
