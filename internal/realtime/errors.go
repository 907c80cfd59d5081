package realtime

import (
	"errors"
	"fmt"
)

// SyncError represents a non-fatal failure during a sync cycle.
type SyncError struct {
	// Code identifies the error category.
	Code SyncErrorCode

	// Message is a human-readable description.
	Message string

	// Source names the poll that failed (orders, reservations, mailbox).
	Source string

	// Err is the underlying cause, if any.
	Err error
}

// SyncErrorCode categorizes sync errors.
type SyncErrorCode string

const (
	// ErrCodeConnectivity indicates the remote fetch failed.
	ErrCodeConnectivity SyncErrorCode = "CONNECTIVITY"

	// ErrCodeMalformedEntry indicates a mailbox entry was missing required fields.
	ErrCodeMalformedEntry SyncErrorCode = "MALFORMED_MAILBOX_ENTRY"

	// ErrCodeRenderFailure indicates a notification could not be displayed.
	ErrCodeRenderFailure SyncErrorCode = "RENDER_FAILURE"

	// ErrCodeState indicates local state could not be read or written.
	ErrCodeState SyncErrorCode = "STATE"
)

// ErrPollInFlight is returned by PollRemote when a previous remote poll has
// not completed.
var ErrPollInFlight = errors.New("remote poll already in flight")

// Error implements the error interface.
func (e *SyncError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Source != "" {
		msg = fmt.Sprintf("%s (source=%s)", msg, e.Source)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsConnectivityError returns true if the error is a connectivity error.
// Uses errors.As to handle wrapped errors.
func IsConnectivityError(err error) bool {
	return hasCode(err, ErrCodeConnectivity)
}

// IsMalformedEntry returns true if the error is a malformed mailbox entry.
func IsMalformedEntry(err error) bool {
	return hasCode(err, ErrCodeMalformedEntry)
}

// IsRenderFailure returns true if the error is a render failure.
func IsRenderFailure(err error) bool {
	return hasCode(err, ErrCodeRenderFailure)
}

func hasCode(err error, code SyncErrorCode) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// NewConnectivityError creates a SyncError for a failed remote fetch.
func NewConnectivityError(source string, err error) *SyncError {
	return &SyncError{
		Code:    ErrCodeConnectivity,
		Message: "remote fetch failed",
		Source:  source,
		Err:     err,
	}
}

// NewMalformedEntryError creates a SyncError for a skipped mailbox entry.
func NewMalformedEntryError(index int, err error) *SyncError {
	return &SyncError{
		Code:    ErrCodeMalformedEntry,
		Message: fmt.Sprintf("mailbox entry %d skipped", index),
		Source:  "mailbox",
		Err:     err,
	}
}

// NewRenderError creates a SyncError for a dropped notification.
func NewRenderError(source string, err error) *SyncError {
	return &SyncError{
		Code:    ErrCodeRenderFailure,
		Message: "notification not rendered",
		Source:  source,
		Err:     err,
	}
}

func newStateError(source, message string, err error) *SyncError {
	return &SyncError{
		Code:    ErrCodeState,
		Message: message,
		Source:  source,
		Err:     err,
	}
}
