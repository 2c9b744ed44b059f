package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty          = errors.New("empty signaling message")
	ErrBase64         = errors.New("malformed base64")
	ErrJSON           = errors.New("malformed session description")
	ErrUnexpectedType = errors.New("unexpected session description type")
)

// Error describes a failure to encode or decode a signaling message.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}
