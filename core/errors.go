package core

import "github.com/pkg/errors"

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
		return ""
	}
	return err.Err.Error()
}

// ErrorKind classifies domain errors for the transport layers.
type ErrorKind int

const (
	KindInvalid ErrorKind = iota + 1
	KindNotFound
	KindConflict
)

// DomainError is a business rule violation surfaced to the caller.
// Several sentinels may share a Code on the wire; errors.Is matches the sentinel an error was
// derived from, whatever its message.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string

	sentinel *DomainError
}

func NewDomainError(kind ErrorKind, code, msg string) *DomainError {
	err := &DomainError{Kind: kind, Code: code, Message: msg}
	err.sentinel = err
	return err
}

func (err *DomainError) Error() string {
	return err.Message
}

// Is falls back to comparing codes when either side was not built with NewDomainError.
func (err *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.sentinel != nil && err.sentinel != nil {
		return t.sentinel == err.sentinel
	}
	return t.Code == err.Code
}

// WithReason returns a copy of err whose message ends with reason.
func (err *DomainError) WithReason(reason string) error {
	return &DomainError{Kind: err.Kind, Code: err.Code, Message: err.Message + ": " + reason, sentinel: err.sentinel}
}

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
