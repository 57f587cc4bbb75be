package remote

import (
	"context"
	"io"
	"time"
)

// EntryType distinguishes directory listing entries.
type EntryType int

const (
	EntryFile EntryType = iota
	EntryDir
	EntryOther
)

// Entry is one item of a directory listing.
type Entry struct {
	Name    string
	Type    EntryType
	Size    int64
	ModTime time.Time
}

// IsFile reports whether the entry is a regular file.
func (e Entry) IsFile() bool { return e.Type == EntryFile }

// Session is a single connection to the backend. Paths are absolute,
// slash-separated remote paths. Implementations are not safe for concurrent use.
type Session interface {
	// Size returns the size of the file at path.
	Size(ctx context.Context, path string) (int64, error)
	// Retrieve copies the file at path into w.
	Retrieve(ctx context.Context, path string, w io.Writer) error
	// Store uploads r to path, replacing any existing file.
	Store(ctx context.Context, path string, r io.Reader) error
	// MakeDirAll creates dir and any missing parents.
	MakeDirAll(ctx context.Context, dir string) error
	// List returns the entries of dir, without "." and "..".
	List(ctx context.Context, dir string) ([]Entry, error)
	// ModTime returns the last modification time of path.
	ModTime(ctx context.Context, path string) (time.Time, error)
	// Close releases the session. It is safe to call more than once.
	Close() error
}

// Dialer opens sessions.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Session, error)

func (f DialerFunc) Dial(ctx context.Context) (Session, error) { return f(ctx) }
