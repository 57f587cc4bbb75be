// Package registry lists the JSON documents exposed for editing: a stable
// key, a human label, the page that renders it, the stored file name and the
// editor kind used by the front end.
//
// Default returns the built-in list. Load reads a YAML file with the same
// fields to override it:
//
//	- key: fournisseur-pl
//	  label: Fournisseur PL
//	  page: fournisseur-pl.html
//	  filename: fournisseur_pl.json
//	  editor: fournisseur_pl
package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidRegistry is returned for entries missing a key or file name, or duplicated keys.
	ErrInvalidRegistry = errors.New("registry: invalid registry")
	// ErrFailedToLoad is returned when the registry file cannot be read or parsed.
	ErrFailedToLoad = errors.New("registry: failed to load registry file")
)

// Entry describes one editable document.
type Entry struct {
	Key      string `yaml:"key" json:"key"`
	Label    string `yaml:"label" json:"label"`
	Page     string `yaml:"page" json:"page"`
	Filename string `yaml:"filename" json:"filename"`
	Editor   string `yaml:"editor" json:"editor"`
}

// Registry is an ordered, immutable set of entries indexed by key.
type Registry struct {
	entries []Entry
	byKey   map[string]int
}

// New validates entries and builds a Registry preserving their order.
func New(entries []Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		e.Key = strings.TrimSpace(e.Key)
		e.Filename = strings.TrimSpace(e.Filename)
		if e.Key == "" || e.Filename == "" {
			return nil, fmt.Errorf("%w: entry %d needs a key and a filename", ErrInvalidRegistry, i)
		}
		if _, dup := r.byKey[e.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidRegistry, e.Key)
		}
		if e.Page == "" {
			e.Page = e.Key + ".html"
		}
		if e.Label == "" {
			e.Label = e.Key
		}
		r.byKey[e.Key] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Parse builds a Registry from a YAML list of entries.
func Parse(data []byte) (*Registry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Join(ErrFailedToLoad, err)
	}
	return New(entries)
}

// Load reads and parses the YAML registry file at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoad, err)
	}
	return Parse(data)
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(defaultEntries)
	if err != nil {
		panic(err)
	}
	return r
}

// Entries returns a copy of the entries in registry order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup finds the entry for key; surrounding whitespace is ignored.
func (r *Registry) Lookup(key string) (Entry, bool) {
	i, ok := r.byKey[strings.TrimSpace(key)]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

var defaultEntries = []Entry{
	{Key: "fournisseur-pl", Label: "Fournisseur PL", Filename: "fournisseur_pl.json", Editor: "fournisseur_pl"},
	{Key: "liens-garantie-retour-pl", Label: "Liens garantie/retour PL", Filename: "pl_liens_garantie_retour.json", Editor: "links"},
	{Key: "fournisseur-vl", Label: "Fournisseur VL", Filename: "fournisseur_vl.json", Editor: "fournisseur_vl"},
	{Key: "liens-formulaire-garantie", Label: "Liens formulaire garantie VL", Filename: "vl_liens_formulaire_garantie.json", Editor: "links"},
	{Key: "retour-fournisseur-garantie-vl", Label: "Retour fournisseur/garantie VL", Filename: "vl_retour_garantie.json", Editor: "retour_garantie_vl"},
	{Key: "contact-fournisseur", Label: "Contacts fournisseurs", Filename: "contacts_fournisseurs.json", Editor: "contacts_fournisseurs"},
	{Key: "demande-ramasse", Label: "Demande ramasse (fournisseurs)", Filename: "fournisseur.json", Editor: "fournisseurs_ramasse"},
	{Key: "site-identification-oe", Label: "Site identification OE", Filename: "site_identification_oe.json", Editor: "site_identification_oe"},
	{Key: "documents-atelier", Label: "Documents atelier", Filename: "atelier_data.json", Editor: "atelier_data"},
}
