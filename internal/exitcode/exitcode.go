// Package exitcode defines exit codes for the CLI.
package exitcode

import "errors"

// Exit codes.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task, validation).
	UserError = 1

	// AuthError indicates an auth or session error (not signed in, unreadable session).
	AuthError = 2

	// BackendError indicates a remote service or network error.
	BackendError = 3
)

// Error attaches an exit code to an error.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Wrap returns err with code attached, or nil if err is nil.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// Of returns the exit code for err: Success for nil, the attached code
// for a wrapped error, BackendError otherwise.
func Of(err error) int {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return BackendError
}
