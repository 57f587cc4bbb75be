package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/docvault/pkg/seed"
)

// NewSeedCommand creates the 'seed' command, which copies JSON documents
// held in environment variables into the store.
func NewSeedCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Copy JSON documents from environment variables into the store",
		Long: `Copy JSON documents from environment variables into the store.

Each variable holds one JSON value, optionally wrapped in a single pair of quotes.
Documents that already exist are skipped unless --force is given, in which case
the previous version is backed up before it is replaced.

Variables:
  PL_LIENS_GARANTIE_RETOUR_JSON      -> pl_liens_garantie_retour.json
  VL_LIENS_FORMULAIRE_GARANTIE_JSON  -> vl_liens_formulaire_garantie.json

Examples:
  docvault seed
  docvault seed --force --env-file .env.production`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}

			results, runErr := seed.Run(cmd.Context(), store,
				seed.WithForce(force),
				seed.WithLogger(app.Logger),
			)
			for _, r := range results {
				switch r.Status {
				case seed.StatusOK:
					_, _ = fmt.Fprintf(app.Out, "%s %s -> %s\n", successText.Sprint("[OK]"), r.Env, r.File)
				case seed.StatusSkipped:
					_, _ = fmt.Fprintf(app.Out, "%s %s -> %s %s\n", warningText.Sprint("[SKIP]"), r.Env, r.File,
						mutedText.Sprint("already exists, use --force to overwrite"))
				default:
					_, _ = fmt.Fprintf(app.Out, "%s %s -> %s: %v\n", errorText.Sprint("[ERR]"), r.Env, r.File, r.Err)
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite documents that already exist")
	return cmd
}
