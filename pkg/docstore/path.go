package docstore

import (
	"fmt"
	"path"
	"strings"
)

// Resolver maps logical document names to remote paths under a base directory.
type Resolver struct {
	base string
}

// NewResolver returns a Resolver rooted at base.
func NewResolver(base string) Resolver {
	return Resolver{base: base}
}

// Base returns the base directory.
func (r Resolver) Base() string { return r.base }

// Resolve validates name and joins it with the base directory.
// Backslashes are treated as separators. Other bytes are kept as given, so a
// name returned by List addresses the same file.
func (r Resolver) Resolve(name string) (string, error) {
	clean, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	return path.Join(r.base, clean), nil
}

func normalizeName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if strings.Contains(n, "..") {
		return "", fmt.Errorf("%w: %q contains \"..\"", ErrInvalidName, n)
	}
	n = strings.ReplaceAll(n, `\`, "/")
	// Names that clean to the root would address the base directory itself.
	if path.Clean("/"+n) == "/" {
		return "", fmt.Errorf("%w: %q names no file", ErrInvalidName, name)
	}
	return n, nil
}
