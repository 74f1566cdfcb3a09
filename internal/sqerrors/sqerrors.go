// Package sqerrors wraps the invariant violations internal packages detect
// about their own state (a count going negative, a node missing where one
// must exist) with both a short technical message and an operator-facing
// detail string.
package sqerrors

import "fmt"

// invariantError is an error raised when the grammar engine detects that
// one of its own internal invariants does not hold. It carries a short
// technical message and an operator-facing detail string, on the model of
// an error type that distinguishes what to log from what to show a user.
type invariantError struct {
	msg    string
	detail string
	wrap   error
}

func (e *invariantError) Error() string {
	return e.msg
}

// Detail returns the operator-facing description of the error.
func (e *invariantError) Detail() string {
	return e.detail
}

// Unwrap gives the error that invariantError wraps, if it wraps one.
func (e *invariantError) Unwrap() error {
	return e.wrap
}

// Invariant returns a new error with both an operator-facing detail and a
// technical description.
func Invariant(detail, technical string) error {
	if technical == "" {
		technical = fmt.Sprintf("invariant violated: %q", detail)
	}
	return &invariantError{msg: technical, detail: detail}
}

// Invariantf returns a new error whose operator-facing detail is built from
// the given format string, with an automatically generated Error().
func Invariantf(detailFormat string, a ...interface{}) error {
	return Invariant(fmt.Sprintf(detailFormat, a...), "")
}

// WrapInvariant is Invariant, but also wraps e for errors.Is/As.
func WrapInvariant(e error, detail, technical string) error {
	if technical == "" {
		technical = fmt.Sprintf("invariant violated: %q", detail)
	}
	return &invariantError{msg: technical, detail: detail, wrap: e}
}

// WrapInvariantf is Invariantf, but also wraps e for errors.Is/As.
func WrapInvariantf(e error, detailFormat string, a ...interface{}) error {
	return WrapInvariant(e, fmt.Sprintf(detailFormat, a...), "")
}

// Detail gets the operator-facing description for err. If err is not one of
// the types defined in this package, err.Error() is returned instead.
func Detail(err error) string {
	if invErr, ok := err.(*invariantError); ok {
		return invErr.Detail()
	}
	return err.Error()
}
