package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/docvault/cmd/docvault/commands"
	"github.com/dmitrymomot/docvault/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Wipes key material on SIGINT/SIGTERM before exiting.
	memguard.CatchInterrupt()
	err := run()
	memguard.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		envFiles    []string
		driver      string
		logLevel    string
		noColor     bool
		showMetrics bool
	)

	app := commands.NewApp(os.Stdout, os.Stderr)

	rootCmd := &cobra.Command{
		Use:   "docvault",
		Short: "Remote JSON document store with an encrypted two-factor vault",
		Long: `docvault reads and writes the JSON documents kept on the FTP server (or S3,
or a local directory), seeds them from environment variables and manages the
administrator's two-factor authentication record.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := commands.LoadSettings(envFiles...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("driver") {
				settings.Driver = driver
			}
			if cmd.Flags().Changed("log-level") {
				settings.LogLevel = logLevel
			}
			if noColor {
				color.NoColor = true
			}
			if err := app.Configure(settings); err != nil {
				return err
			}
			logger.SetAsDefault(app.Logger)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !showMetrics {
				return nil
			}
			return commands.WriteMetrics(app.Err, app.Metrics())
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load variables from these .env files (default .env when present)")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "Storage driver: ftp, s3 or local (overrides STORAGE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "Print transport metrics to stderr on exit")

	rootCmd.AddCommand(
		commands.NewDocsCommand(app),
		commands.NewSeedCommand(app),
		commands.NewVaultCommand(app),
	)

	return rootCmd.Execute()
}
