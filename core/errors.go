package core

import "github.com/pkg/errors"

// Kind classifies domain errors so that transports can map them to stable responses.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindNotEnrolled
	KindNotCompleted
	KindValidation
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindNotEnrolled:
		return "NotEnrolled"
	case KindNotCompleted:
		return "NotCompleted"
	case KindValidation:
		return "ValidationError"
	case KindStorage:
		return "StorageError"
	}
	return "Unknown"
}

// Error is a domain error with a stable Kind. Packages declare them as sentinels:
//
//	var ErrNotFound = core.NewError(core.KindNotFound, "course not found")
type Error struct {
	Kind Kind
	msg  string
}

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func (err *Error) Error() string {
	return err.msg
}

// KindOf returns the Kind of the root cause of err, or 0 if err is not a domain error.
func KindOf(err error) Kind {
	switch e := errors.Cause(err).(type) {
	case *Error:
		return e.Kind
	case *ValidationError:
		return KindValidation
	case *StorageError:
		return KindStorage
	}
	return 0
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// StorageError wraps a persistence failure.
// It must not implement `Cause()`: errors.Cause has to stop here.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(err error, op string) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (err *StorageError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err *StorageError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
