package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

var (
	// ErrMissingCredentials is returned when host, user or password is not configured.
	ErrMissingCredentials = errors.New("remote: transport host, user or password not configured")
	// ErrInvalidConfig is returned for malformed transport settings.
	ErrInvalidConfig = errors.New("remote: invalid transport configuration")
	// ErrPathOutsideRoot is returned by LocalDialer sessions for paths escaping the root.
	ErrPathOutsideRoot = errors.New("remote: path escapes storage root")
)

// Kind classifies a transport failure.
type Kind int

const (
	// KindFatal failures are never retried.
	KindFatal Kind = iota
	// KindTransient failures are retried according to the RetryPolicy.
	KindTransient
	// KindNotFound means the requested file or directory does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindNotFound:
		return "not_found"
	default:
		return "fatal"
	}
}

// TransportError is returned by every Session and Dialer method.
type TransportError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("remote %s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("remote %s %s (%s): %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// KindOf reports the Kind of err. Errors that did not come from an adapter are fatal.
func KindOf(err error) Kind {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindFatal
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool { return err != nil && KindOf(err) == KindTransient }

// IsNotFound reports whether err means the target is absent.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

func newError(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Kind: kind, Op: op, Path: path, Err: err}
}

// networkKind maps socket-level failures shared by all network adapters.
func networkKind(err error) Kind {
	switch {
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ENOTCONN),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed):
		return KindTransient
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTransient
	}
	return KindFatal
}
