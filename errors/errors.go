// Package errors defines the error types reported by the filter compiler.
package errors

import (
	stderrors "errors"
	"fmt"
)

// FatalError is an error that must stop compilation.
type FatalError interface {
	error
	IsFatal() bool
}

// InvariantError reports a tree or program the compiler was never meant to
// see. No program is produced when one is raised.
type InvariantError struct {
	Code    ErrorCode
	Message string
}

func (e *InvariantError) Error() string {
	return "compile error: " + e.Message
}

func (e *InvariantError) IsFatal() bool {
	return true
}

// Invariantf returns an InvariantError with a formatted message.
func Invariantf(code ErrorCode, format string, args ...any) *InvariantError {
	return &InvariantError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsInvariant returns the first InvariantError in err's chain. For a
// multierror the first wrapped InvariantError is returned.
func AsInvariant(err error) (*InvariantError, bool) {
	var ie *InvariantError
	if stderrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// IsFatal reports whether err, or an error it wraps, is a FatalError that
// must stop compilation.
func IsFatal(err error) bool {
	var fe FatalError
	return stderrors.As(err, &fe) && fe.IsFatal()
}

// CodeOf returns the code of the first InvariantError or TreeError in err's
// chain.
func CodeOf(err error) (ErrorCode, bool) {
	if ie, ok := AsInvariant(err); ok {
		return ie.Code, true
	}
	var te *TreeError
	if stderrors.As(err, &te) {
		return te.Code, true
	}
	return "", false
}

// TreeError reports a problem decoding a filter tree.
type TreeError struct {
	Code    ErrorCode
	Path    string
	Message string
	Hint    string
}

func (e *TreeError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// TreeErrorf returns a TreeError with a formatted message.
func TreeErrorf(code ErrorCode, path, format string, args ...any) *TreeError {
	return &TreeError{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}
