package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Operation records the logical store operation ("read", "write_json", ...).
func Operation(op string) slog.Attr {
	return slog.String("operation", op)
}

// Document records the logical document name.
func Document(name string) slog.Attr {
	return slog.String("document", name)
}

// RemotePath records the resolved path on the remote transport.
func RemotePath(path string) slog.Attr {
	return slog.String("remote_path", path)
}

// Attempt records the 1-based attempt number of a retried operation.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Delay records a backoff delay.
func Delay(d time.Duration) slog.Attr {
	return slog.Duration("delay", d)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
