package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dmitrymomot/docvault/pkg/logger"
	"github.com/dmitrymomot/docvault/pkg/remote"
)

// Store reads and writes documents through a remote.Manager.
// It holds no session between calls and is safe for concurrent use.
type Store struct {
	manager    *remote.Manager
	resolver   Resolver
	stagingDir string
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for snapshot and write events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used for backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store rooted at cfg.Dir().
func New(m *remote.Manager, cfg Config, opts ...Option) *Store {
	s := &Store{
		manager:    m,
		resolver:   NewResolver(cfg.Dir()),
		stagingDir: cfg.StagingDir,
		logger:     logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("docstore"))
	return s
}

// BaseDir returns the remote directory holding the documents.
func (s *Store) BaseDir() string { return s.resolver.Base() }

// Exists reports whether the document is present on the remote.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	p, err := s.resolver.Resolve(name)
	if err != nil {
		return false, wrap("exists", name, err)
	}
	ctx = logger.ContextWithDocument(ctx, name)
	_, err = remote.Call(ctx, s.manager, "exists", func(ctx context.Context, sess remote.Session) (int64, error) {
		return sess.Size(ctx, p)
	})
	if remote.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, wrap("exists", name, err)
	}
	return true, nil
}

// Read returns the raw content of the document. found is false when the
// document does not exist.
func (s *Store) Read(ctx context.Context, name string) (data []byte, found bool, err error) {
	p, err := s.resolver.Resolve(name)
	if err != nil {
		return nil, false, wrap("read", name, err)
	}
	ctx = logger.ContextWithDocument(ctx, name)
	data, err = remote.Call(ctx, s.manager, "read", func(ctx context.Context, sess remote.Session) ([]byte, error) {
		var out []byte
		err := withStaging(s.stagingDir, "docstore_read", func(f *os.File) error {
			if err := sess.Retrieve(ctx, p, f); err != nil {
				return err
			}
			if err := rewind(f); err != nil {
				return err
			}
			b, err := io.ReadAll(f)
			if err != nil {
				return fmt.Errorf("read staging file: %w", err)
			}
			out = b
			return nil
		})
		return out, err
	})
	if remote.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap("read", name, err)
	}
	return data, true, nil
}

// Write uploads data as the document, creating the parent directory if needed.
// No backup is taken.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	p, err := s.resolver.Resolve(name)
	if err != nil {
		return wrap("write", name, err)
	}
	ctx = logger.ContextWithDocument(ctx, name)
	err = s.manager.Do(ctx, "write", func(ctx context.Context, sess remote.Session) error {
		return s.upload(ctx, sess, p, data)
	})
	if err != nil {
		return wrap("write", name, err)
	}
	s.logger.DebugContext(ctx, "document written", logger.RemotePath(p))
	return nil
}

func (s *Store) upload(ctx context.Context, sess remote.Session, p string, data []byte) error {
	return withStaging(s.stagingDir, "docstore_write", func(f *os.File) error {
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write staging file: %w", err)
		}
		if err := rewind(f); err != nil {
			return err
		}
		if err := sess.MakeDirAll(ctx, path.Dir(p)); err != nil {
			return err
		}
		return sess.Store(ctx, p, f)
	})
}

// ReadJSON decodes the document into dst. found is false when the document
// does not exist; invalid JSON yields ErrMalformedDocument.
func (s *Store) ReadJSON(ctx context.Context, name string, dst any) (found bool, err error) {
	data, found, err := s.Read(ctx, name)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, wrap("read_json", name, fmt.Errorf("%w: %v", ErrMalformedDocument, err))
	}
	return true, nil
}

// WriteOption configures a single WriteJSON call.
type WriteOption func(*writeOptions)

type writeOptions struct {
	backup bool
}

// WithBackup controls whether the current content is snapshotted before
// the overwrite. The default is true.
func WithBackup(enabled bool) WriteOption {
	return func(o *writeOptions) { o.backup = enabled }
}

// WriteJSON encodes v as indented JSON and writes it as the document.
// Unless disabled with WithBackup(false), the existing content is first
// copied to a timestamped backup; if that copy fails the document is left
// untouched.
func (s *Store) WriteJSON(ctx context.Context, name string, v any, opts ...WriteOption) error {
	o := writeOptions{backup: true}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := EncodeJSON(v)
	if err != nil {
		return wrap("write_json", name, err)
	}
	clean, err := normalizeName(name)
	if err != nil {
		return wrap("write_json", name, err)
	}
	p := path.Join(s.resolver.Base(), clean)
	ctx = logger.ContextWithDocument(ctx, clean)

	var (
		outcome    SnapshotOutcome
		backupPath string
	)
	err = s.manager.Do(ctx, "write_json", func(ctx context.Context, sess remote.Session) error {
		if o.backup {
			var err error
			outcome, backupPath, err = s.snapshot(ctx, sess, clean, p)
			if err != nil {
				return fmt.Errorf("snapshot before overwrite: %w", err)
			}
		}
		return s.upload(ctx, sess, p, data)
	})
	if err != nil {
		return wrap("write_json", name, err)
	}

	if o.backup {
		s.logger.InfoContext(ctx, "document snapshot",
			slog.String("outcome", outcome.String()),
			logger.RemotePath(backupPath),
		)
	}
	return nil
}

// EncodeJSON renders v the way documents are stored: two-space indentation,
// no HTML escaping, trailing newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// List returns the names of the .json files in the base directory.
// A missing directory yields an empty list.
func (s *Store) List(ctx context.Context) ([]string, error) {
	dir := s.resolver.Base()
	entries, err := remote.Call(ctx, s.manager, "list", func(ctx context.Context, sess remote.Session) ([]remote.Entry, error) {
		return sess.List(ctx, dir)
	})
	if remote.IsNotFound(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, wrap("list", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsFile() && strings.HasSuffix(strings.ToLower(e.Name), ".json") {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// ModifiedAt returns the last modification time of the document. ok is
// false when the document does not exist.
func (s *Store) ModifiedAt(ctx context.Context, name string) (t time.Time, ok bool, err error) {
	p, err := s.resolver.Resolve(name)
	if err != nil {
		return time.Time{}, false, wrap("modified_at", name, err)
	}
	ctx = logger.ContextWithDocument(ctx, name)
	t, err = remote.Call(ctx, s.manager, "modified_at", func(ctx context.Context, sess remote.Session) (time.Time, error) {
		return sess.ModTime(ctx, p)
	})
	if remote.IsNotFound(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, wrap("modified_at", name, err)
	}
	if t.IsZero() {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// ISOTimestamp formats t as an ISO-8601 UTC timestamp with milliseconds.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
