package docstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// withStaging creates a uniquely named file in dir, hands it to fn and removes
// it afterwards, whatever fn returns or however it exits.
func withStaging(dir, prefix string, fn func(f *os.File) error) (err error) {
	if dir == "" {
		dir = os.TempDir()
	}
	name := filepath.Join(dir, fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), uuid.NewString()))
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(name)
	}()
	return fn(f)
}

// rewind positions f at its start for the next reader.
func rewind(f *os.File) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind staging file: %w", err)
	}
	return nil
}
