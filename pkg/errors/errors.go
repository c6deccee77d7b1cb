package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is an error with a category and an explanation that can be
// shown to whoever is running the promotion. The categories are
// distinguished by what happens next:
//  - per-document and per-record errors (parse, validation, not-found,
//    duplicate) are reported, and the thing they refer to is skipped;
//  - IO errors abort the stage that hit them.
type Error struct {
	Type Type
	// a message that can be printed out for the user
	Help string
	// the underlying error that can be e.g., logged for developers to look at
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

// Cause makes Error work with errors.Cause from github.com/pkg/errors.
func (e *Error) Cause() error {
	return e.Err
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Type string

const (
	// A document could not be decoded
	Parse Type = "parse"
	// A change record is not well-formed
	Validation Type = "validation"
	// A change record refers to something that isn't there
	NotFound Type = "not-found"
	// A change record adds something that is already there
	Duplicate Type = "duplicate"
	// The medium or a directory could not be read or written
	IO Type = "io"
)

func ParseError(source string, err error) *Error {
	return &Error{
		Type: Parse,
		Err:  errors.Wrapf(err, "parsing %s", source),
		Help: fmt.Sprintf("The document %s could not be parsed, so it was left out. Fix the syntax and run again.", source),
	}
}

func ValidationError(format string, args ...interface{}) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{
		Type: Validation,
		Err:  err,
		Help: "The change record was rejected: " + err.Error(),
	}
}

func PathNotFoundError(entity, path string) *Error {
	return &Error{
		Type: NotFound,
		Err:  fmt.Errorf("%s: path %q not found", entity, path),
		Help: fmt.Sprintf("The change to %q in %s was skipped because the target does not exist; reconcile it by hand.", path, entity),
	}
}

func DuplicateKeyError(entity, path string) *Error {
	return &Error{
		Type: Duplicate,
		Err:  fmt.Errorf("%s: %q already exists", entity, path),
		Help: fmt.Sprintf("The addition of %q to %s was skipped because it is already present.", path, entity),
	}
}

func IOError(err error, format string, args ...interface{}) *Error {
	return &Error{
		Type: IO,
		Err:  errors.Wrapf(err, format, args...),
		Help: "Could not read or write " + fmt.Sprintf(format, args...) + ": " + err.Error(),
	}
}

// TypeOf returns the type of the first *Error found by following
// the chain of causes from err, or the empty Type.
func TypeOf(err error) Type {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Type
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			break
		}
		err = cause.Cause()
	}
	return ""
}

func IsParse(err error) bool {
	return TypeOf(err) == Parse
}

func IsValidation(err error) bool {
	return TypeOf(err) == Validation
}

func IsNotFound(err error) bool {
	return TypeOf(err) == NotFound
}

func IsDuplicate(err error) bool {
	return TypeOf(err) == Duplicate
}

func IsIO(err error) bool {
	return TypeOf(err) == IO
}
