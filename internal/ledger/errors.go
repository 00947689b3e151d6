package ledger

import (
	"errors"
	"fmt"

	"github.com/roach88/arthouse/internal/kv"
)

// ContractError is a typed handler failure. The host discards the
// invocation's writes and journals Code as the output case.
type ContractError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes contract errors.
type ErrorCode string

const (
	CodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	CodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	CodeEmptyBalance        ErrorCode = "EMPTY_BALANCE"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeAlreadyInitialized  ErrorCode = "ALREADY_INITIALIZED"
	CodeOverflow            ErrorCode = "OVERFLOW"
	CodeInvalidRequest      ErrorCode = "INVALID_REQUEST"

	// CodeCorrupt marks stored bytes that failed to decode. Always fatal.
	CodeCorrupt ErrorCode = "CORRUPT"
)

// Sentinels for errors.Is. Only the code is compared.
var (
	ErrUnauthorized        = &ContractError{Code: CodeUnauthorized}
	ErrInsufficientBalance = &ContractError{Code: CodeInsufficientBalance}
	ErrEmptyBalance        = &ContractError{Code: CodeEmptyBalance}
	ErrNotFound            = &ContractError{Code: CodeNotFound}
	ErrAlreadyInitialized  = &ContractError{Code: CodeAlreadyInitialized}
	ErrOverflow            = &ContractError{Code: CodeOverflow}
	ErrInvalidRequest      = &ContractError{Code: CodeInvalidRequest}
	ErrCorrupt             = &ContractError{Code: CodeCorrupt}
)

func (e *ContractError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// Is matches any ContractError with the same code.
func (e *ContractError) Is(target error) bool {
	t, ok := target.(*ContractError)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first ContractError in err's chain, or
// "" if there is none.
func CodeOf(err error) ErrorCode {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsContractError reports whether err is a typed contract failure, as
// opposed to an infrastructure error.
func IsContractError(err error) bool {
	return CodeOf(err) != ""
}

// IsUnauthorized returns true for authorization failures.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsNotFound returns true for missing records.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInsufficientBalance returns true when a debit exceeds the balance.
func IsInsufficientBalance(err error) bool { return errors.Is(err, ErrInsufficientBalance) }

func unauthorized(format string, args ...any) *ContractError {
	return &ContractError{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func insufficientBalance(account Addr, have, want Amount) *ContractError {
	return &ContractError{
		Code:    CodeInsufficientBalance,
		Message: fmt.Sprintf("balance %s is less than %s", have, want),
		Details: map[string]string{
			"account": string(account),
			"balance": have.String(),
			"needed":  want.String(),
		},
	}
}

func invalidRequest(format string, args ...any) *ContractError {
	return &ContractError{Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func overflow(what string) *ContractError {
	return &ContractError{Code: CodeOverflow, Message: what + " overflows"}
}

// storeError converts adapter errors. Missing records become NotFound,
// undecodable bytes become Corrupt; anything else is an infrastructure
// error and passes through wrapped.
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case kv.IsCorrupt(err):
		return &ContractError{Code: CodeCorrupt, Message: what, Err: err}
	case errors.Is(err, kv.ErrNotFound):
		return &ContractError{Code: CodeNotFound, Message: what + " not found", Err: err}
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
