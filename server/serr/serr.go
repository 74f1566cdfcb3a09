// Package serr holds common error objects used across the sequitur server.
// Notably, it contains the Error type, which can be created with one or more
// 'cause' errors. Calling errors.Is() on this Error type with an argument
// consisting of any of the errors it has as a cause will return true.
package serr

import "errors"

var (
	ErrBadCredentials = errors.New("the supplied username/password combination is incorrect")
	ErrPermissions    = errors.New("you don't have permission to do that")
	ErrNotFound       = errors.New("the requested entity could not be found")
	ErrAlreadyExists  = errors.New("resource with same identifying information already exists")
	ErrDB             = errors.New("an error occurred with the DB")
	ErrBadArgument    = errors.New("one or more of the arguments is invalid")
	ErrBodyUnmarshal  = errors.New("malformed data in request")
	ErrTooLarge       = errors.New("the request exceeds the maximum allowed input size")
)

// Error is a typed error returned by functions in the sequitur server as
// their error value. It holds a message plus one or more causes, and is
// compatible with errors.Is: calling errors.Is on an Error along with any
// value it holds as a cause returns true.
//
// Error should not be used directly; call New to create one.
type Error struct {
	msg   string
	cause []error
}

func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}
	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}
	return e.msg
}

// Unwrap returns the causes of Error, or nil if none were defined.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is returns whether Error either is itself the given target, or one of its
// causes is.
func (e Error) Is(target error) bool {
	if errTarget, ok := target.(Error); ok {
		if e.msg == errTarget.msg && len(e.cause) == len(errTarget.cause) {
			allEqual := true
			for i := range e.cause {
				if e.cause[i] != errTarget.cause[i] {
					allEqual = false
					break
				}
			}
			if allEqual {
				return true
			}
		}
	}

	for i := range e.cause {
		if e.cause[i] == target {
			return true
		}
	}
	return false
}

// WrapDB creates a new Error that wraps err as a cause and adds ErrDB as
// another cause.
func WrapDB(msg string, err error) Error {
	return Error{msg: msg, cause: []error{err, ErrDB}}
}

// New creates a new Error with the given message and causes. Providing
// causes is not required, but makes errors.Is(err, cause) succeed for each.
func New(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}
