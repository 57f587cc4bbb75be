package docstore

import "strings"

// DefaultBaseDir is used when neither FTP_BASE_DIR nor FTP_BACKUP_FOLDER is set.
const DefaultBaseDir = "/service"

// Config locates documents on the remote transport and staging files locally.
type Config struct {
	BaseDir       string `env:"FTP_BASE_DIR"`         // BaseDir is the remote directory holding all documents.
	LegacyBaseDir string `env:"FTP_BACKUP_FOLDER"`    // LegacyBaseDir is read when BaseDir is empty.
	StagingDir    string `env:"DOCSTORE_STAGING_DIR"` // StagingDir holds staging files; empty means os.TempDir().
}

// Dir returns the effective base directory without trailing slashes.
func (c Config) Dir() string {
	dir := strings.TrimSpace(c.BaseDir)
	if dir == "" {
		dir = strings.TrimSpace(c.LegacyBaseDir)
	}
	if dir == "" {
		dir = DefaultBaseDir
	}
	dir = strings.TrimRight(dir, "/")
	if dir == "" {
		return "/"
	}
	return dir
}
