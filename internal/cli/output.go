package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/registry"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The registry refused the request (compile failure, name collision, ...)
	ExitCommandError = 2 // Command error (bad arguments, unreadable files, database errors)
)

// ExitError represents an error with a specific exit code.
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
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

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	Txn    string    `json:"txn,omitempty"`
}

// CLIError is the error structure for CLI responses. Code is a registry
// result code or "COMMAND" for command errors.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(txn string, data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data, Txn: txn})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(txn, code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
			Txn:    txn,
		})
	}
	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	switch d := details.(type) {
	case nil:
	case []ir.Message:
		for _, m := range d {
			if _, err := fmt.Fprintf(f.Writer, "  %s\n", m); err != nil {
				return err
			}
		}
	default:
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", d)
		return err
	}
	return nil
}

// OutcomeView is the printable form of a registry outcome.
type OutcomeView struct {
	Name     string       `json:"name"`
	Result   string       `json:"result"`
	Tag      string       `json:"tag,omitempty"`
	Messages []ir.Message `json:"messages,omitempty"`
}

func newOutcomeView(name string, out registry.Outcome) OutcomeView {
	v := OutcomeView{Name: name, Result: string(out.Result), Messages: out.Messages}
	if out.Tag.IsValid() {
		v.Tag = out.Tag.String()
	}
	return v
}

func (v OutcomeView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", v.Name, v.Result)
	if v.Tag != "" {
		fmt.Fprintf(&b, " (%s)", v.Tag)
	}
	for _, m := range v.Messages {
		fmt.Fprintf(&b, "\n  %s", m)
	}
	return b.String()
}

// report prints out and turns a failed outcome into an ExitFailure.
func report(f *OutputFormatter, txn, name string, out registry.Outcome) error {
	view := newOutcomeView(name, out)
	if out.OK() {
		return f.Success(txn, view)
	}
	if err := f.Error(txn, string(out.Result), fmt.Sprintf("%s: %v", name, out.Err), view.Messages); err != nil {
		return err
	}
	return WrapExitError(ExitFailure, string(out.Result), out.Err)
}
