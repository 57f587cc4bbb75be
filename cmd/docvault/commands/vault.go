package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/docvault/pkg/docstore"
	"github.com/dmitrymomot/docvault/pkg/qrcode"
	"github.com/dmitrymomot/docvault/pkg/secretkey"
	"github.com/dmitrymomot/docvault/pkg/vault"
)

// NewVaultCommand creates the parent 'vault' command for the administrative
// two-factor record.
func NewVaultCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage the administrator's two-factor authentication",
		Long: `Manage the administrator's two-factor authentication record.

The record is encrypted with a key derived from ADMIN_SECRET_KEY and stored
as ADMIN_AUTH_FILE next to the other documents.

Examples:
  docvault vault keygen
  docvault vault setup begin --qr-file totp.png
  docvault vault setup complete --secret JBSWY3DPEHPK3PXP 123456
  docvault vault verify 123456
  docvault vault status`,
	}

	setup := &cobra.Command{
		Use:   "setup",
		Short: "Enrol an authenticator app",
	}
	setup.AddCommand(
		newVaultSetupBeginCommand(app),
		newVaultSetupCompleteCommand(app),
	)

	cmd.AddCommand(
		newVaultStatusCommand(app),
		newVaultKeygenCommand(app),
		setup,
		newVaultVerifyCommand(app),
		newVaultRegenerateCommand(app),
	)
	return cmd
}

func newVaultStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether two-factor authentication is enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.Vault(cmd.Context())
			if err != nil {
				return err
			}
			st, err := v.Status(cmd.Context())
			if err != nil {
				return err
			}
			if st.State != vault.StateEnabled {
				_, _ = fmt.Fprintf(app.Out, "state:        %s\n", warningText.Sprint(st.State))
				_, _ = fmt.Fprintf(app.Out, "run %s to enrol\n", codeText.Sprint("docvault vault setup begin"))
				return nil
			}
			_, _ = fmt.Fprintf(app.Out, "state:        %s\n", successText.Sprint(st.State))
			_, _ = fmt.Fprintf(app.Out, "enabled at:   %s\n", docstore.ISOTimestamp(st.CreatedAt))
			_, _ = fmt.Fprintf(app.Out, "backup codes: %d/%d remaining\n", st.BackupCodesRemaining, st.BackupCodesTotal)
			return nil
		},
	}
}

func newVaultKeygenCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a random value for ADMIN_SECRET_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secretkey.GenerateEncoded()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(app.Out, key)
			return nil
		},
	}
}

func newVaultSetupBeginCommand(app *App) *cobra.Command {
	var qrFile string

	cmd := &cobra.Command{
		Use:   "begin",
		Short: "Generate a TOTP secret and its provisioning QR code",
		Long: `Generate a TOTP secret and its provisioning QR code. Nothing is stored
until "vault setup complete" is run with the secret and a code from the app.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.Vault(cmd.Context())
			if err != nil {
				return err
			}
			setup, err := v.BeginSetup(cmd.Context())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(app.Out, "secret: %s\n", infoText.Sprint(setup.Secret))
			_, _ = fmt.Fprintf(app.Out, "uri:    %s\n\n", setup.URI)
			_, _ = fmt.Fprintln(app.Out, qrcode.Terminal(setup.URI))

			if qrFile != "" {
				png, err := qrcode.PNG(setup.URI, qrcode.DefaultSize)
				if err != nil {
					return err
				}
				if err := os.WriteFile(qrFile, png, 0o600); err != nil {
					return fmt.Errorf("write qr code: %w", err)
				}
				_, _ = fmt.Fprintf(app.Out, "qr code written to %s\n", qrFile)
			}

			_, _ = fmt.Fprintf(app.Out, "then run %s\n",
				codeText.Sprintf("docvault vault setup complete --secret %s <code>", setup.Secret))
			return nil
		},
	}

	cmd.Flags().StringVar(&qrFile, "qr-file", "", "Also write the QR code as a PNG file")
	return cmd
}

func newVaultSetupCompleteCommand(app *App) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "complete <code>",
		Short: "Confirm enrolment with a code from the authenticator app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(secret) == "" {
				return errors.New("--secret is required")
			}
			v, err := app.Vault(cmd.Context())
			if err != nil {
				return err
			}
			codes, err := v.CompleteSetup(cmd.Context(), strings.TrimSpace(secret), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.Out, "%s two-factor authentication enabled\n", successText.Sprint("✓"))
			printBackupCodes(app, codes)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Secret printed by 'vault setup begin'")
	return cmd
}

func newVaultVerifyCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <code>",
		Short: "Check a TOTP code or consume a backup code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.Vault(cmd.Context())
			if err != nil {
				return err
			}
			method, err := v.Authenticate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.Out, "%s authenticated %s\n", successText.Sprint("✓"), mutedText.Sprint(method))
			if method == vault.MethodBackupCode {
				remaining, err := v.RemainingBackupCodes(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(app.Out, "%d backup codes remaining\n", remaining)
			}
			return nil
		},
	}
}

func newVaultRegenerateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate",
		Short: "Replace every backup code with a fresh set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.Vault(cmd.Context())
			if err != nil {
				return err
			}
			codes, err := v.RegenerateBackupCodes(cmd.Context())
			if err != nil {
				return err
			}
			printBackupCodes(app, codes)
			return nil
		},
	}
}

func printBackupCodes(app *App, codes []string) {
	_, _ = fmt.Fprintln(app.Out, warningText.Sprint("backup codes, shown once:"))
	for _, c := range codes {
		_, _ = fmt.Fprintf(app.Out, "  %s\n", c)
	}
}
