package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/roach88/arthouse/internal/engine"
	"github.com/roach88/arthouse/internal/ledger"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the ledger or engine refused the request, a scenario failed, replay diverged
	ExitCommandError = 2 // bad flags or input, unreadable config, storage failure
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors without an
// ExitError in their chain exit with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return ExitFailure
	}
	return exitErr.Code
}

// OutputFormatter writes command results as text or as one JSON
// CLIResponse per call.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose diagnostics; falls back to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status    string    `json:"status"` // "ok" or "error"
	Data      any       `json:"data,omitempty"`
	Error     *CLIError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// CLIError describes a refused request. Code is a ledger or engine error
// code, or an E_ code for command level checks.
type CLIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (f *OutputFormatter) json() bool { return f.Format == "json" }

func (f *OutputFormatter) encode(resp CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success writes data. Text output prints it with fmt.
func (f *OutputFormatter) Success(data any) error {
	if f.json() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes err as a refusal. Contract errors keep their details;
// engine errors report the seq and request they held and their cause.
func (f *OutputFormatter) Error(err error) error {
	body, requestID := describeError(err)
	if f.json() {
		return f.encode(CLIResponse{Status: "error", Error: body, RequestID: requestID})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", body.Code, body.Message)
	if f.Verbose {
		writeDetails(f.Writer, body.Details)
	}
	return nil
}

// reject reports err and returns the matching exit error. Contract errors
// and refused genesis requests are written out and exit with ExitFailure.
// Anything else is left to main as a command error.
func (f *OutputFormatter) reject(message string, err error) error {
	if !isRejection(err) {
		return WrapExitError(ExitCommandError, message, err)
	}
	if werr := f.Error(err); werr != nil {
		return werr
	}
	return WrapExitError(ExitFailure, message, err)
}

// VerboseLog writes a diagnostic line in verbose mode. It goes to
// ErrWriter when set so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// isRejection reports whether err is the ledger or engine refusing the
// request, as opposed to the command failing to run. Host failures wrap
// contract errors, so engine errors are checked first.
func isRejection(err error) bool {
	var ee *engine.EngineError
	if errors.As(err, &ee) {
		return ee.Code == engine.ErrCodeGenesisExists || ee.Code == engine.ErrCodeInvalidGenesis
	}
	return ledger.IsContractError(err)
}

func describeError(err error) (*CLIError, string) {
	var ee *engine.EngineError
	if errors.As(err, &ee) {
		details := map[string]string{}
		if ee.Seq > 0 {
			details["seq"] = strconv.FormatInt(ee.Seq, 10)
		}
		if ee.Err != nil {
			details["cause"] = ee.Err.Error()
			if code := ledger.CodeOf(ee.Err); code != "" {
				details["contract_code"] = string(code)
			}
		}
		if len(details) == 0 {
			details = nil
		}
		return &CLIError{Code: string(ee.Code), Message: ee.Message, Details: details}, ee.RequestID
	}

	var ce *ledger.ContractError
	if errors.As(err, &ce) {
		msg := ce.Message
		if msg == "" {
			msg = string(ce.Code)
		}
		return &CLIError{Code: string(ce.Code), Message: msg, Details: ce.Details}, ""
	}

	return &CLIError{Code: "E_COMMAND", Message: err.Error()}, ""
}

func writeDetails(w io.Writer, details map[string]string) {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s=%s\n", k, details[k])
	}
}
