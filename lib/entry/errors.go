package entry

import "fmt"

// DecodeError is returned when a stored string is not a valid entry, or when a
// value does not fit the requested Go type.
type DecodeError struct {
	Msg string
	Err error // optional cause
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Msg, e.Err)
	}
	return "decode error: " + e.Msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches any *DecodeError, so errors.Is(err, ErrDecode) works for all of them.
func (e *DecodeError) Is(target error) bool {
	_, ok := target.(*DecodeError)
	return ok
}

// EncodeError is returned when a value cannot be serialized.
type EncodeError struct {
	Msg string
	Err error // optional cause
}

func (e *EncodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encode error: %s: %v", e.Msg, e.Err)
	}
	return "encode error: " + e.Msg
}

func (e *EncodeError) Unwrap() error { return e.Err }

func (e *EncodeError) Is(target error) bool {
	_, ok := target.(*EncodeError)
	return ok
}

// Sentinels for errors.Is checks.
var (
	ErrDecode = &DecodeError{Msg: "invalid entry"}
	ErrEncode = &EncodeError{Msg: "unserializable value"}
)
