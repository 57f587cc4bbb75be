package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/docvault/pkg/docstore"
)

var (
	// ErrDocumentNotFound is returned by "docs get" for an absent document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidInput is returned by "docs put" when the input is not one JSON value.
	ErrInvalidInput = errors.New("input is not a single JSON value")
)

// NewDocsCommand creates the parent 'docs' command.
func NewDocsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Read and write JSON documents in the remote store",
		Long: `Read and write JSON documents kept under the configured base directory.

A document can be addressed by its file name or by its registry key.

Examples:
  docvault docs list
  docvault docs get fournisseur-pl
  docvault docs put fournisseur_pl.json --file ./fournisseur_pl.json
  docvault docs stat liens-garantie-retour-pl
  docvault docs registry`,
	}

	cmd.AddCommand(
		newDocsListCommand(app),
		newDocsGetCommand(app),
		newDocsPutCommand(app),
		newDocsStatCommand(app),
		newDocsRegistryCommand(app),
	)
	return cmd
}

// documentName maps a registry key to its file name; anything else is
// used as a file name unchanged.
func (a *App) documentName(arg string) (string, error) {
	reg, err := a.Registry()
	if err != nil {
		return "", err
	}
	if e, ok := reg.Lookup(arg); ok {
		return e.Filename, nil
	}
	return arg, nil
}

func newDocsListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List JSON documents in the base directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}
			names, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				_, _ = fmt.Fprintln(app.Out, mutedText.Sprint("no documents in "+store.BaseDir()))
				return nil
			}
			for _, name := range names {
				_, _ = fmt.Fprintln(app.Out, name)
			}
			return nil
		},
	}
}

func newDocsGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name|key>",
		Short: "Print a document as indented JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := app.documentName(args[0])
			if err != nil {
				return err
			}
			store, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}
			var doc json.RawMessage
			found, err := store.ReadJSON(cmd.Context(), name, &doc)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
			}
			data, err := docstore.EncodeJSON(doc)
			if err != nil {
				return err
			}
			_, err = app.Out.Write(data)
			return err
		},
	}
}

func newDocsPutCommand(app *App) *cobra.Command {
	var (
		file     string
		noBackup bool
	)

	cmd := &cobra.Command{
		Use:   "put <name|key>",
		Short: "Replace a document with JSON read from a file or stdin",
		Long: `Replace a document with JSON read from --file, or from stdin when no file is given.

The previous version is copied to <name>.<timestamp>.bak.json unless --no-backup is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := app.documentName(args[0])
			if err != nil {
				return err
			}

			var raw []byte
			if file != "" {
				raw, err = os.ReadFile(file)
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			doc, err := decodeDocument(raw)
			if err != nil {
				return err
			}

			store, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.WriteJSON(cmd.Context(), name, doc, docstore.WithBackup(!noBackup)); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.Out, "%s wrote %s\n", successText.Sprint("✓"), name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the document from this file instead of stdin")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the snapshot of the previous version")
	return cmd
}

// decodeDocument parses exactly one JSON value, keeping numbers verbatim.
func decodeDocument(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	if dec.More() {
		return nil, ErrInvalidInput
	}
	return doc, nil
}

func newDocsStatCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <name|key>",
		Short: "Show whether a document exists and when it was last modified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := app.documentName(args[0])
			if err != nil {
				return err
			}
			store, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}
			exists, err := store.Exists(cmd.Context(), name)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(app.Out, "name:     %s\n", name)
			if !exists {
				_, _ = fmt.Fprintf(app.Out, "exists:   %s\n", warningText.Sprint("no"))
				return nil
			}
			_, _ = fmt.Fprintf(app.Out, "exists:   %s\n", successText.Sprint("yes"))

			modified, ok, err := store.ModifiedAt(cmd.Context(), name)
			if err != nil {
				return err
			}
			if ok {
				_, _ = fmt.Fprintf(app.Out, "modified: %s\n", docstore.ISOTimestamp(modified))
			} else {
				_, _ = fmt.Fprintf(app.Out, "modified: %s\n", mutedText.Sprint("unknown"))
			}
			return nil
		},
	}
}

func newDocsRegistryCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "List the editable documents known to the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.Registry()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "KEY\tLABEL\tFILE\tEDITOR\n")
			_, _ = fmt.Fprintf(w, "---\t-----\t----\t------\n")
			for _, e := range reg.Entries() {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Key, e.Label, e.Filename, e.Editor)
			}
			return w.Flush()
		},
	}
}
