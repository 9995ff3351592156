package process

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	ErrCodePrecondition      = "PRECONDITION_FAILED"
	ErrCodeEmptyBatch        = "EMPTY_BATCH"
	ErrCodeLaunchFailed      = "LAUNCH_FAILED"
	ErrCodeTerminationFailed = "TERMINATION_FAILED"
)

// Error is a supervisor error. Index and Name identify the child it
// concerns; Index is -1 for errors about the batch as a whole.
type Error struct {
	Code    string
	Index   int
	Name    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Code + ": "
	if e.Index >= 0 {
		msg += fmt.Sprintf("child %d", e.Index)
		if e.Name != "" {
			msg += " (" + e.Name + ")"
		}
		msg += ": "
	}
	msg += e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code string, index int, name, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Index:   index,
		Name:    name,
		Message: message,
		Cause:   cause,
	}
}

// NewPreconditionError reports a failure detected before anything was
// launched: a missing program or invalid input.
func NewPreconditionError(message string, cause error) *Error {
	return newError(ErrCodePrecondition, -1, "", message, cause)
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Code == code
}

// IsPrecondition reports whether err must abort the invocation before any
// child is started.
func IsPrecondition(err error) bool {
	return HasCode(err, ErrCodePrecondition) || HasCode(err, ErrCodeEmptyBatch)
}
