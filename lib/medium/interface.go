package medium

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Factory is a function type that creates a new medium.
// This is used to abstract the creation of the medium from the components using it.
type Factory func() (IMedium, error)

// IMedium is a synchronous, string-keyed storage medium (the kind a browser exposes as
// localStorage or sessionStorage). It offers no transactions and no compare-and-swap:
// the last writer wins.
type IMedium interface {
	// Get returns the value stored for key. The boolean reports whether the key is present.
	Get(key string) (value string, ok bool, err error)
	// Set inserts or overwrites the value for key.
	// Implementations with a capacity limit return an error with code RetCQuotaExceeded
	// and leave the previous value untouched.
	Set(key, value string) (err error)
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) (err error)
	// Clear deletes every key of the medium.
	Clear() (err error)
	// Keys returns all keys currently present, in no particular order.
	Keys() (keys []string, err error)
	// Close releases resources held by the medium. The medium must not be used afterwards.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error wraps a return code and a message. Use errors.Is with the sentinel
// errors of this package to test for a specific code.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("medium error (code %s): %s", e.Code, e.Msg)
}

// Is reports whether target is a *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new medium error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Sentinel errors for errors.Is checks.
var (
	ErrInternal      = NewError(RetCInternalError, "internal error")
	ErrQuotaExceeded = NewError(RetCQuotaExceeded, "quota exceeded")
	ErrUnavailable   = NewError(RetCUnavailable, "medium unavailable")
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint8

const (
	RetCSuccess        RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                 // 1: Operation failed due to an internal error.
	RetCQuotaExceeded                 // 2: Write refused because the medium is full.
	RetCUnavailable                   // 3: The medium cannot be reached or is closed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCQuotaExceeded:
		return "QuotaExceeded"
	case RetCUnavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}
