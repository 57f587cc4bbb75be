package docstore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned for empty document names and names containing "..".
	ErrInvalidName = errors.New("docstore: invalid document name")
	// ErrMalformedDocument is returned when a stored document is not valid JSON.
	ErrMalformedDocument = errors.New("docstore: malformed JSON document")
)

// Error records the failed operation and the document it was applied to.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("docstore: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Name: name, Err: err}
}
