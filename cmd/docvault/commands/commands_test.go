package commands_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/docvault/cmd/docvault/commands"
	"github.com/dmitrymomot/docvault/pkg/docstore"
	"github.com/dmitrymomot/docvault/pkg/remote"
	"github.com/dmitrymomot/docvault/pkg/totp"
	"github.com/dmitrymomot/docvault/pkg/vault"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type testApp struct {
	*commands.App
	out  *bytes.Buffer
	root string
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	out := &bytes.Buffer{}
	root := t.TempDir()
	app := commands.NewApp(out, io.Discard)
	require.NoError(t, app.Configure(commands.Settings{
		Driver:    commands.DriverLocal,
		LocalRoot: root,
		LogFormat: "text",
		LogLevel:  "error",
		Retry:     remote.RetryPolicy{MaxAttempts: 1},
		Store:     docstore.Config{BaseDir: "/service", StagingDir: t.TempDir()},
		Vault:     vault.Config{SecretKey: "correct horse battery staple", BackupCodeCount: 3},
	}))
	return testApp{App: app, out: out, root: root}
}

// run executes cmd with args and returns what the command printed.
func (a testApp) run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	a.out.Reset()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return a.out.String(), err
}

func TestConfigure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings commands.Settings
		wantErr  error
	}{
		{name: "local driver", settings: commands.Settings{Driver: "local", LogFormat: "json"}},
		{name: "driver is case insensitive", settings: commands.Settings{Driver: " FTP "}},
		{name: "unknown driver", settings: commands.Settings{Driver: "sftp"}, wantErr: commands.ErrUnknownDriver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := commands.NewApp(io.Discard, io.Discard)
			err := app.Configure(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("logger writes tagged records to Err", func(t *testing.T) {
		t.Parallel()
		errOut := &bytes.Buffer{}
		app := commands.NewApp(io.Discard, errOut)
		require.NoError(t, app.Configure(commands.Settings{Driver: "local", LogFormat: "json", LogLevel: "info"}))
		app.Logger.Info("configured")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(errOut.Bytes(), &entry))
		assert.Equal(t, commands.ServiceName, entry["service"])
		assert.Equal(t, "configured", entry["msg"])
	})

	t.Run("invalid log format", func(t *testing.T) {
		t.Parallel()
		app := commands.NewApp(io.Discard, io.Discard)
		err := app.Configure(commands.Settings{Driver: "local", LogFormat: "xml"})
		assert.ErrorContains(t, err, "LOG_FORMAT")
	})
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"STORAGE_DRIVER=local\nFTP_BASE_DIR=/data/\nFTP_RETRY_ATTEMPTS=5\nADMIN_ISSUER=Acme\n",
	), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"STORAGE_DRIVER", "FTP_BASE_DIR", "FTP_RETRY_ATTEMPTS", "ADMIN_ISSUER"} {
			_ = os.Unsetenv(k)
		}
	})

	s, err := commands.LoadSettings(envFile)
	require.NoError(t, err)
	assert.Equal(t, "local", s.Driver)
	assert.Equal(t, "/data", s.Store.Dir())
	assert.Equal(t, 5, s.Retry.MaxAttempts)
	assert.Equal(t, "Acme", s.Vault.Issuer)
	assert.Equal(t, 21, s.FTP.Port)
}

func TestDocsCommand(t *testing.T) {
	t.Parallel()

	t.Run("put then get", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		out, err := app.run(t, commands.NewDocsCommand(app.App), `{"name":"Café","price":12.50}`, "put", "settings.json")
		require.NoError(t, err)
		assert.Contains(t, out, "wrote settings.json")

		out, err = app.run(t, commands.NewDocsCommand(app.App), "", "get", "settings.json")
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"name\": \"Café\",\n  \"price\": 12.50\n}\n", out)
	})

	t.Run("registry key resolves to file name", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		_, err := app.run(t, commands.NewDocsCommand(app.App), `[1,2]`, "put", "fournisseur-pl")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(app.root, "service", "fournisseur_pl.json"))

		out, err := app.run(t, commands.NewDocsCommand(app.App), "", "get", "fournisseur_pl.json")
		require.NoError(t, err)
		assert.JSONEq(t, `[1,2]`, out)
	})

	t.Run("put from file keeps a backup", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		src := filepath.Join(t.TempDir(), "doc.json")

		require.NoError(t, os.WriteFile(src, []byte(`{"v":1}`), 0o600))
		_, err := app.run(t, commands.NewDocsCommand(app.App), "", "put", "doc.json", "--file", src)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(src, []byte(`{"v":2}`), 0o600))
		_, err = app.run(t, commands.NewDocsCommand(app.App), "", "put", "doc.json", "-f", src)
		require.NoError(t, err)

		backups, err := filepath.Glob(filepath.Join(app.root, "service", "doc.json.*.bak.json"))
		require.NoError(t, err)
		require.Len(t, backups, 1)
		data, err := os.ReadFile(backups[0])
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1}`, string(data))
	})

	t.Run("put without backup", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		for _, body := range []string{`{"v":1}`, `{"v":2}`} {
			_, err := app.run(t, commands.NewDocsCommand(app.App), body, "put", "doc.json", "--no-backup")
			require.NoError(t, err)
		}
		backups, err := filepath.Glob(filepath.Join(app.root, "service", "*.bak.json"))
		require.NoError(t, err)
		assert.Empty(t, backups)
	})

	t.Run("put rejects invalid input", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		for _, body := range []string{"", "{", `{"a":1} {"b":2}`} {
			_, err := app.run(t, commands.NewDocsCommand(app.App), body, "put", "doc.json")
			assert.ErrorIs(t, err, commands.ErrInvalidInput, "input %q", body)
		}
		assert.NoFileExists(t, filepath.Join(app.root, "service", "doc.json"))
	})

	t.Run("get missing document", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		_, err := app.run(t, commands.NewDocsCommand(app.App), "", "get", "missing.json")
		assert.ErrorIs(t, err, commands.ErrDocumentNotFound)
	})

	t.Run("invalid name", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		_, err := app.run(t, commands.NewDocsCommand(app.App), "", "get", "../etc/passwd")
		assert.ErrorIs(t, err, docstore.ErrInvalidName)
	})

	t.Run("list", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		out, err := app.run(t, commands.NewDocsCommand(app.App), "", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "no documents in /service")

		_, err = app.run(t, commands.NewDocsCommand(app.App), `{}`, "put", "b.json")
		require.NoError(t, err)
		_, err = app.run(t, commands.NewDocsCommand(app.App), `{}`, "put", "a.json")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(app.root, "service", "notes.txt"), []byte("x"), 0o600))

		out, err = app.run(t, commands.NewDocsCommand(app.App), "", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "a.json\n")
		assert.Contains(t, out, "b.json\n")
		assert.NotContains(t, out, "notes.txt")
	})

	t.Run("stat", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		out, err := app.run(t, commands.NewDocsCommand(app.App), "", "stat", "doc.json")
		require.NoError(t, err)
		assert.Contains(t, out, "exists:   no")

		_, err = app.run(t, commands.NewDocsCommand(app.App), `{}`, "put", "doc.json")
		require.NoError(t, err)

		out, err = app.run(t, commands.NewDocsCommand(app.App), "", "stat", "doc.json")
		require.NoError(t, err)
		assert.Contains(t, out, "exists:   yes")
		assert.Regexp(t, `modified: \d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z`, out)
	})

	t.Run("registry", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		out, err := app.run(t, commands.NewDocsCommand(app.App), "", "registry")
		require.NoError(t, err)
		assert.Contains(t, out, "KEY")
		assert.Contains(t, out, "fournisseur-pl")
		assert.Contains(t, out, "atelier_data.json")
	})

	t.Run("registry file override", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		regFile := filepath.Join(t.TempDir(), "registry.yaml")
		require.NoError(t, os.WriteFile(regFile, []byte("- key: prices\n  filename: prices.json\n"), 0o600))
		app.Settings.RegistryFile = regFile

		out, err := app.run(t, commands.NewDocsCommand(app.App), "", "registry")
		require.NoError(t, err)
		assert.Contains(t, out, "prices.json")
		assert.NotContains(t, out, "fournisseur-pl")
	})
}

func TestSeedCommand(t *testing.T) {
	t.Setenv("PL_LIENS_GARANTIE_RETOUR_JSON", `'{"links":["https://example.com"]}'`)
	t.Setenv("VL_LIENS_FORMULAIRE_GARANTIE_JSON", `not json`)

	app := newTestApp(t)

	out, err := app.run(t, commands.NewSeedCommand(app.App), "")
	require.Error(t, err)
	assert.Contains(t, out, "[OK] PL_LIENS_GARANTIE_RETOUR_JSON -> pl_liens_garantie_retour.json")
	assert.Contains(t, out, "[ERR] VL_LIENS_FORMULAIRE_GARANTIE_JSON -> vl_liens_formulaire_garantie.json")

	data, err := os.ReadFile(filepath.Join(app.root, "service", "pl_liens_garantie_retour.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"links":["https://example.com"]}`, string(data))

	t.Setenv("VL_LIENS_FORMULAIRE_GARANTIE_JSON", `[]`)

	out, err = app.run(t, commands.NewSeedCommand(app.App), "")
	require.NoError(t, err)
	assert.Contains(t, out, "[SKIP] PL_LIENS_GARANTIE_RETOUR_JSON")
	assert.Contains(t, out, "[OK] VL_LIENS_FORMULAIRE_GARANTIE_JSON")

	out, err = app.run(t, commands.NewSeedCommand(app.App), "", "--force")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "[OK]"))

	backups, err := filepath.Glob(filepath.Join(app.root, "service", "*.bak.json"))
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

var secretLine = regexp.MustCompile(`(?m)^secret: ([A-Z2-7]+)$`)

func TestVaultCommand(t *testing.T) {
	t.Parallel()

	t.Run("keygen", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		out, err := app.run(t, commands.NewVaultCommand(app.App), "", "keygen")
		require.NoError(t, err)
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Len(t, key, 32)
	})

	t.Run("missing secret key", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		app.Settings.Vault.SecretKey = ""

		_, err := app.run(t, commands.NewVaultCommand(app.App), "", "status")
		assert.Error(t, err)
	})

	t.Run("enrol, verify and regenerate", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		out, err := app.run(t, commands.NewVaultCommand(app.App), "", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "not_configured")

		qrFile := filepath.Join(t.TempDir(), "totp.png")
		out, err = app.run(t, commands.NewVaultCommand(app.App), "", "setup", "begin", "--qr-file", qrFile)
		require.NoError(t, err)
		assert.Contains(t, out, "otpauth://totp/")
		assert.FileExists(t, qrFile)
		m := secretLine.FindStringSubmatch(out)
		require.Len(t, m, 2, out)
		secret := m[1]

		_, err = app.run(t, commands.NewVaultCommand(app.App), "", "setup", "complete", "000000")
		assert.ErrorContains(t, err, "--secret")

		_, err = app.run(t, commands.NewVaultCommand(app.App), "", "setup", "complete", "--secret", secret, "not-a-code")
		assert.ErrorIs(t, err, vault.ErrInvalidCode)

		code, err := totp.GenerateTOTP(secret)
		require.NoError(t, err)
		out, err = app.run(t, commands.NewVaultCommand(app.App), "", "setup", "complete", "--secret", secret, code)
		require.NoError(t, err)
		assert.Contains(t, out, "two-factor authentication enabled")
		backupCodes := regexp.MustCompile(`[0-9A-F]{8}-[0-9A-F]{8}`).FindAllString(out, -1)
		require.Len(t, backupCodes, 3)

		_, err = app.run(t, commands.NewVaultCommand(app.App), "", "setup", "begin")
		assert.ErrorIs(t, err, vault.ErrAlreadyConfigured)

		out, err = app.run(t, commands.NewVaultCommand(app.App), "", "verify", code)
		require.NoError(t, err)
		assert.Contains(t, out, "totp")

		out, err = app.run(t, commands.NewVaultCommand(app.App), "", "verify", strings.ToLower(backupCodes[0]))
		require.NoError(t, err)
		assert.Contains(t, out, "backup_code")
		assert.Contains(t, out, "2 backup codes remaining")

		_, err = app.run(t, commands.NewVaultCommand(app.App), "", "verify", backupCodes[0])
		assert.ErrorIs(t, err, vault.ErrAuthenticationFailed)

		out, err = app.run(t, commands.NewVaultCommand(app.App), "", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "enabled")
		assert.Contains(t, out, "2/3 remaining")

		out, err = app.run(t, commands.NewVaultCommand(app.App), "", "regenerate")
		require.NoError(t, err)
		assert.Len(t, regexp.MustCompile(`[0-9A-F]{8}-[0-9A-F]{8}`).FindAllString(out, -1), 3)

		out, err = app.run(t, commands.NewVaultCommand(app.App), "", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "3/3 remaining")
	})

	t.Run("verify without enrolment", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)

		_, err := app.run(t, commands.NewVaultCommand(app.App), "", "verify", "123456")
		assert.ErrorIs(t, err, vault.ErrNotConfigured)
	})
}

func TestWriteMetrics(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	_, err := app.run(t, commands.NewDocsCommand(app.App), `{}`, "put", "doc.json")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, commands.WriteMetrics(&buf, app.Metrics()))
	assert.Contains(t, buf.String(), `docvault_remote_attempts_total{op="write_json",outcome="success"} 1`)
	assert.Contains(t, buf.String(), `docvault_remote_operation_duration_seconds{op="write_json"} count=1`)
}
