package store

import "fmt"

// Error is returned by Save and Load. It holds the operation, the file involved and the cause.
type Error struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s vocabulary %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the cause, so errors.Is and errors.As see through Error.
func (e *Error) Unwrap() error { return e.Err }

// Cause implements the github.com/pkg/errors causer interface.
func (e *Error) Cause() error { return e.Err }
