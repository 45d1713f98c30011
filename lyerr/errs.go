// Package lyerr holds the error kinds shared by the LYB codec and its
// input/output layer.
//
// Every error returned by the packages of this module matches exactly one of
// the kind sentinels with errors.Is:
//
//	if errors.Is(err, lyerr.ErrValid) { ... }
//
// Errors that concern a particular schema or data node are *Error values and
// carry the node path and a validation code.
package lyerr

import (
	"errors"
	"fmt"
)

var (
	// ErrArg reports a violated caller contract: nil handles, wrong handle
	// kind for a kind-specific accessor, bad option values.
	ErrArg = errors.New("invalid argument")
	// ErrIO reports a failing system call (open, mmap, read, write).
	ErrIO = errors.New("i/o error")
	// ErrEOD reports that fewer bytes are available than requested.
	ErrEOD = errors.New("end of data")
	// ErrFormat reports malformed LYB data.
	ErrFormat = errors.New("invalid LYB data")
	// ErrVersion reports an LYB header of an unsupported format revision.
	ErrVersion = errors.New("incompatible LYB version")
	// ErrValid reports structurally invalid data.
	ErrValid = errors.New("validation failed")
	// ErrDeferred reports a value that could not be resolved after parsing.
	ErrDeferred = errors.New("unresolved value")
	// ErrInternal reports a programming mistake by the caller or a broken
	// invariant of the library.
	ErrInternal = errors.New("internal error")
)

// Code refines validation errors.
type Code int

const (
	CodeNone Code = iota
	CodeSyntax
	CodeData
	CodeInNode
	CodeType
	CodeReference
	CodeWhen
	CodeHash
)

func (c Code) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeSyntax:
		return "syntax"
	case CodeData:
		return "data"
	case CodeInNode:
		return "innode"
	case CodeType:
		return "type"
	case CodeReference:
		return "reference"
	case CodeWhen:
		return "when"
	case CodeHash:
		return "hash"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error is an error of a given kind, optionally attached to a node path.
type Error struct {
	Kind error
	Code Code
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path %s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Kind == nil {
		return msg
	}
	return fmt.Sprintf("%v: %s", e.Kind, msg)
}

func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind with cause err.
func Wrap(kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Val creates a validation error for the node at path.
func Val(code Code, path, format string, args ...any) *Error {
	return &Error{Kind: ErrValid, Code: code, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the validation code carried by err, if any.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeNone
}

// PathOf returns the node path carried by err, if any.
func PathOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Path
	}
	return ""
}

// Deferred creates an error for a value or condition of the node at path
// that failed to resolve after parsing.
func Deferred(code Code, path, format string, args ...any) *Error {
	return &Error{Kind: ErrDeferred, Code: code, Path: path, Msg: fmt.Sprintf(format, args...)}
}
