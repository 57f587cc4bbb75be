package vault

import "strings"

const (
	DefaultIssuer          = "DocumentsDurand"
	DefaultAuthFile        = "admin_auth.json"
	DefaultBackupCodeCount = 10
)

// Config holds the vault settings.
type Config struct {
	SecretKey       string `env:"ADMIN_SECRET_KEY"`                             // SecretKey is the raw secret the record key is derived from.
	Issuer          string `env:"ADMIN_ISSUER" envDefault:"DocumentsDurand"`    // Issuer shown by authenticator apps.
	Label           string `env:"ADMIN_LABEL"`                                  // Label is the account name; defaults to Issuer.
	BackupCodeCount int    `env:"ADMIN_BACKUP_CODES" envDefault:"10"`           // BackupCodeCount is the number of codes issued at setup.
	AuthFile        string `env:"ADMIN_AUTH_FILE" envDefault:"admin_auth.json"` // AuthFile is the document holding the encrypted record.
}

func (c Config) issuer() string {
	if s := strings.TrimSpace(c.Issuer); s != "" {
		return s
	}
	return DefaultIssuer
}

func (c Config) label() string {
	if s := strings.TrimSpace(c.Label); s != "" {
		return s
	}
	return c.issuer()
}

func (c Config) authFile() string {
	if s := strings.TrimSpace(c.AuthFile); s != "" {
		return s
	}
	return DefaultAuthFile
}

func (c Config) backupCodeCount() int {
	if c.BackupCodeCount > 0 {
		return c.BackupCodeCount
	}
	return DefaultBackupCodeCount
}
