package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalDialer serves sessions backed by a directory on the local filesystem.
// Remote paths are mapped under root; paths escaping root are rejected.
type LocalDialer struct {
	root string
}

// NewLocalDialer resolves root to an absolute path and creates it if needed.
func NewLocalDialer(root string) (*LocalDialer, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("%w: local storage root is required", ErrInvalidConfig)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve local root: %v", ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create local root: %v", ErrInvalidConfig, err)
	}
	return &LocalDialer{root: abs}, nil
}

// Root returns the absolute directory sessions operate in.
func (d *LocalDialer) Root() string { return d.root }

func (d *LocalDialer) Dial(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindFatal, "dial", d.root, err)
	}
	return &localSession{root: d.root}, nil
}

type localSession struct {
	root string
}

// resolve maps a slash-separated remote path onto the filesystem under root.
func (s *localSession) resolve(op, p string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &TransportError{Kind: KindFatal, Op: op, Path: p, Err: ErrPathOutsideRoot}
	}
	return full, nil
}

func classifyLocal(op, p string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindFatal
	if errors.Is(err, fs.ErrNotExist) {
		kind = KindNotFound
	}
	return newError(kind, op, p, err)
}

func (s *localSession) Size(_ context.Context, p string) (int64, error) {
	full, err := s.resolve("size", p)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return 0, classifyLocal("size", p, err)
	}
	if info.IsDir() {
		return 0, &TransportError{Kind: KindFatal, Op: "size", Path: p, Err: errors.New("is a directory")}
	}
	return info.Size(), nil
}

func (s *localSession) Retrieve(_ context.Context, p string, w io.Writer) error {
	full, err := s.resolve("retrieve", p)
	if err != nil {
		return err
	}
	f, err := os.Open(full)
	if err != nil {
		return classifyLocal("retrieve", p, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(w, f); err != nil {
		return classifyLocal("retrieve", p, err)
	}
	return nil
}

// Store writes to a temporary sibling and renames it over the target.
func (s *localSession) Store(_ context.Context, p string, r io.Reader) error {
	full, err := s.resolve("store", p)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), "."+filepath.Base(full)+".*")
	if err != nil {
		return classifyLocal("store", p, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return classifyLocal("store", p, err)
	}
	if err := tmp.Close(); err != nil {
		return classifyLocal("store", p, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return classifyLocal("store", p, err)
	}
	return classifyLocal("store", p, os.Rename(tmpName, full))
}

func (s *localSession) MakeDirAll(_ context.Context, dir string) error {
	full, err := s.resolve("mkdir", dir)
	if err != nil {
		return err
	}
	return classifyLocal("mkdir", dir, os.MkdirAll(full, 0o755))
}

func (s *localSession) List(_ context.Context, dir string) ([]Entry, error) {
	full, err := s.resolve("list", dir)
	if err != nil {
		return nil, err
	}
	items, err := os.ReadDir(full)
	if err != nil {
		return nil, classifyLocal("list", dir, err)
	}
	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		info, err := it.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    it.Name(),
			Type:    localEntryType(info.Mode()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

func (s *localSession) ModTime(_ context.Context, p string) (time.Time, error) {
	full, err := s.resolve("modtime", p)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return time.Time{}, classifyLocal("modtime", p, err)
	}
	return info.ModTime(), nil
}

func (s *localSession) Close() error { return nil }

func localEntryType(m fs.FileMode) EntryType {
	switch {
	case m.IsRegular():
		return EntryFile
	case m.IsDir():
		return EntryDir
	default:
		return EntryOther
	}
}
