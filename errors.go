package mongomq

import (
	"errors"
	"fmt"
)

// Error represents a mongomq library error with categorization.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes for channel operations.
const (
	// ErrCodeNoMessage indicates no message was available. This is a normal
	// outcome of dequeue on an empty queue, never a failure.
	ErrCodeNoMessage = "NO_MESSAGE"

	// ErrCodeStore indicates a store operation failed.
	ErrCodeStore = "STORE_ERROR"

	// ErrCodeConnection indicates a network or authentication failure while
	// talking to the store.
	ErrCodeConnection = "CONNECTION_ERROR"

	// ErrCodeChannel indicates an operation-level failure distinct from
	// connectivity, such as malformed collection or index state.
	ErrCodeChannel = "CHANNEL_ERROR"

	// ErrCodeCompatibility indicates the store server version is below the
	// minimum supported. Fatal at bootstrap; never retried.
	ErrCodeCompatibility = "COMPATIBILITY_ERROR"

	// ErrCodeValidation indicates validation failed.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
)

// Common errors.
var (
	// ErrNoMessage is returned when a dequeue finds nothing to deliver.
	// Callers poll again later; this is not an error condition.
	ErrNoMessage = &Error{
		Code:    ErrCodeNoMessage,
		Message: "no message available",
	}

	// ErrChannelClosed is returned when an operation is attempted on a
	// closed channel.
	ErrChannelClosed = &Error{
		Code:    ErrCodeChannel,
		Message: "channel is closed",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// codeOf extracts the mongomq error code from err, or "" if err carries none.
func codeOf(err error) string {
	var mqErr *Error
	if errors.As(err, &mqErr) {
		return mqErr.Code
	}
	return ""
}

// IsNoMessage checks if an error is the empty-queue outcome.
func IsNoMessage(err error) bool {
	return codeOf(err) == ErrCodeNoMessage || errors.Is(err, ErrNoMessage)
}

// IsConnectionError checks if an error is a connection-class failure.
func IsConnectionError(err error) bool {
	return codeOf(err) == ErrCodeConnection
}

// IsChannelError checks if an error is a channel-class failure.
// Store operation failures classify as channel errors for the surrounding
// framework, matching the broker error taxonomy.
func IsChannelError(err error) bool {
	c := codeOf(err)
	return c == ErrCodeChannel || c == ErrCodeStore
}

// IsCompatibilityError checks if an error is the version-gate failure.
func IsCompatibilityError(err error) bool {
	return codeOf(err) == ErrCodeCompatibility
}
