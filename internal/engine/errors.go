package engine

import (
	"errors"
	"fmt"
)

// EngineError is a host-side failure. It is never journaled: a request
// that fails with an EngineError leaves no trace in state or the journal.
type EngineError struct {
	Code EngineErrorCode

	Message string

	// Seq is the seq the failed invocation held, if one was assigned.
	Seq int64

	RequestID string

	Err error
}

// EngineErrorCode categorizes engine errors.
type EngineErrorCode string

const (
	// ErrCodeGenesisExists indicates genesis was requested on a non-empty journal.
	ErrCodeGenesisExists EngineErrorCode = "GENESIS_EXISTS"

	// ErrCodeInvalidGenesis indicates a genesis the ledger refused. Nothing
	// is journaled.
	ErrCodeInvalidGenesis EngineErrorCode = "INVALID_GENESIS"

	// ErrCodeCommitFailed indicates the backend or journal refused a write.
	ErrCodeCommitFailed EngineErrorCode = "COMMIT_FAILED"

	// ErrCodeHostFailure indicates a read or decode failure while running
	// an invocation.
	ErrCodeHostFailure EngineErrorCode = "HOST_FAILURE"

	// ErrCodeStopped indicates the engine no longer accepts submissions.
	ErrCodeStopped EngineErrorCode = "ENGINE_STOPPED"

	// ErrCodeJournalCorrupt indicates a journal entry could not be replayed.
	ErrCodeJournalCorrupt EngineErrorCode = "JOURNAL_CORRUPT"
)

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Seq > 0 {
		msg += fmt.Sprintf(" (seq=%d)", e.Seq)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code EngineErrorCode) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// IsGenesisExists reports whether err is a repeated-genesis error.
func IsGenesisExists(err error) bool { return hasCode(err, ErrCodeGenesisExists) }

// IsInvalidGenesis reports whether err is a rejected genesis.
func IsInvalidGenesis(err error) bool { return hasCode(err, ErrCodeInvalidGenesis) }

// IsCommitError reports whether err is a failed commit.
func IsCommitError(err error) bool { return hasCode(err, ErrCodeCommitFailed) }

// IsEngineError reports whether err is any host-side failure.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}

func newCommitError(seq int64, requestID string, err error) *EngineError {
	return &EngineError{
		Code:      ErrCodeCommitFailed,
		Message:   "commit invocation",
		Seq:       seq,
		RequestID: requestID,
		Err:       err,
	}
}
