// Package seed copies JSON documents from environment variables into the
// document store. It migrates deployments that used to carry documents
// inline in their environment.
//
// Each Mapping names a variable and a document. The value is trimmed, one
// pair of matching surrounding quotes is removed, and the rest must be valid
// JSON. Existing documents are left alone unless force is set, in which case
// they are overwritten after a backup snapshot.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dmitrymomot/docvault/pkg/docstore"
	"github.com/dmitrymomot/docvault/pkg/logger"
)

var (
	// ErrMissingValue is returned for unset or blank variables.
	ErrMissingValue = errors.New("seed: variable is not set")
	// ErrInvalidValue is returned when the variable does not hold valid JSON.
	ErrInvalidValue = errors.New("seed: variable is not valid JSON")
	// ErrSeedFailed is returned by Run when at least one mapping failed.
	ErrSeedFailed = errors.New("seed: one or more documents failed")
)

// Mapping links an environment variable to a document name.
type Mapping struct {
	Env  string
	File string
}

// DefaultMappings are the variables historically used for link documents.
var DefaultMappings = []Mapping{
	{Env: "PL_LIENS_GARANTIE_RETOUR_JSON", File: "pl_liens_garantie_retour.json"},
	{Env: "VL_LIENS_FORMULAIRE_GARANTIE_JSON", File: "vl_liens_formulaire_garantie.json"},
}

// Status is the outcome of one mapping.
type Status int

const (
	StatusOK Status = iota
	StatusSkipped
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	default:
		return "error"
	}
}

// Result reports what happened to one mapping.
type Result struct {
	Mapping
	Status Status
	Err    error
}

// Store is the subset of *docstore.Store used for seeding.
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	WriteJSON(ctx context.Context, name string, v any, opts ...docstore.WriteOption) error
}

// Option configures Run.
type Option func(*options)

type options struct {
	mappings []Mapping
	lookup   func(string) (string, bool)
	force    bool
	logger   *slog.Logger
}

// WithMappings replaces DefaultMappings.
func WithMappings(m ...Mapping) Option {
	return func(o *options) { o.mappings = m }
}

// WithLookup replaces os.LookupEnv as the variable source.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) {
		if lookup != nil {
			o.lookup = lookup
		}
	}
}

// WithForce overwrites existing documents, taking a backup first.
func WithForce(force bool) Option {
	return func(o *options) { o.force = force }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Run processes every mapping in order. One failing mapping does not stop
// the others; the returned error wraps ErrSeedFailed when any failed.
func Run(ctx context.Context, store Store, opts ...Option) ([]Result, error) {
	o := options{
		mappings: DefaultMappings,
		lookup:   os.LookupEnv,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With(logger.Component("seed"))

	results := make([]Result, 0, len(o.mappings))
	var errs []error
	for _, m := range o.mappings {
		res := Result{Mapping: m}
		res.Status, res.Err = seedOne(ctx, store, m, o)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.Env, res.Err))
			log.ErrorContext(ctx, "seed failed", logger.Document(m.File), slog.String("env", m.Env), logger.Error(res.Err))
		} else {
			log.InfoContext(ctx, "seed processed", logger.Document(m.File), slog.String("status", res.Status.String()))
		}
		results = append(results, res)
	}

	if len(errs) > 0 {
		return results, errors.Join(append([]error{ErrSeedFailed}, errs...)...)
	}
	return results, nil
}

func seedOne(ctx context.Context, store Store, m Mapping, o options) (Status, error) {
	raw, _ := o.lookup(m.Env)
	value, err := ParseValue(raw)
	if err != nil {
		return StatusError, err
	}

	exists, err := store.Exists(ctx, m.File)
	if err != nil {
		return StatusError, err
	}
	if exists && !o.force {
		return StatusSkipped, nil
	}
	if err := store.WriteJSON(ctx, m.File, value, docstore.WithBackup(o.force)); err != nil {
		return StatusError, err
	}
	return StatusOK, nil
}

// ParseValue decodes a variable value: trimmed, one pair of matching single
// or double quotes removed, then parsed as JSON. Numbers keep their literal
// form.
func ParseValue(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, ErrMissingValue
	}
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrInvalidValue)
	}
	return v, nil
}
