package github

import (
	"errors"
	"fmt"
)

// Sentinel errors for GitHub API operations.
var (
	ErrNotFound      = errors.New("github: not found")
	ErrConflict      = errors.New("github: conflict")
	ErrUnauthorized  = errors.New("github: unauthorized")
	ErrUnprocessable = errors.New("github: unprocessable entity")
	ErrRateLimited   = errors.New("github: rate limited by server")
	ErrServer        = errors.New("github: server error")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op   string // Operation: "getContent", "createRef", "createPull", ...
	Path string // Repo path or ref, if applicable
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("github %s [%s]: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("github %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, path string, err error) error {
	return &Error{Op: op, Path: path, Err: err}
}
