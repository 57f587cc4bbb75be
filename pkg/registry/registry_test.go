package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docvault/pkg/registry"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	r := registry.Default()
	require.Equal(t, 9, r.Len())

	entries := r.Entries()
	assert.Equal(t, "fournisseur-pl", entries[0].Key)
	assert.Equal(t, "documents-atelier", entries[8].Key)

	e, ok := r.Lookup("  demande-ramasse ")
	require.True(t, ok)
	assert.Equal(t, registry.Entry{
		Key:      "demande-ramasse",
		Label:    "Demande ramasse (fournisseurs)",
		Page:     "demande-ramasse.html",
		Filename: "fournisseur.json",
		Editor:   "fournisseurs_ramasse",
	}, e)

	_, ok = r.Lookup("unknown")
	assert.False(t, ok)
	_, ok = r.Lookup("")
	assert.False(t, ok)

	entries[0].Key = "mutated"
	assert.Equal(t, "fournisseur-pl", r.Entries()[0].Key, "Entries returns a copy")
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := registry.New([]registry.Entry{{Key: "a"}})
	assert.ErrorIs(t, err, registry.ErrInvalidRegistry)

	_, err = registry.New([]registry.Entry{{Key: "a", Filename: "a.json"}, {Key: " a ", Filename: "b.json"}})
	assert.ErrorIs(t, err, registry.ErrInvalidRegistry)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- key: tarifs
  label: Tarifs
  filename: tarifs.json
  editor: table
- key: notes
  filename: notes.json
`), 0o600))

	r, err := registry.Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	e, ok := r.Lookup("tarifs")
	require.True(t, ok)
	assert.Equal(t, "tarifs.html", e.Page)
	assert.Equal(t, "table", e.Editor)

	e, ok = r.Lookup("notes")
	require.True(t, ok)
	assert.Equal(t, "notes", e.Label)

	_, err = registry.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, registry.ErrFailedToLoad)

	_, err = registry.Parse([]byte("key: [unclosed"))
	assert.ErrorIs(t, err, registry.ErrFailedToLoad)
}
