package store

import "errors"

var (
	// ErrNotFound is returned when a row addressed by id or name does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks any failure to reach or use the relational backend.
	ErrUnavailable = errors.New("backend unavailable")
)

// OpError is a failed backend operation. It matches ErrUnavailable.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return "backend " + e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return target == ErrUnavailable }

func unavailable(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return &OpError{Op: op, Err: err}
}
