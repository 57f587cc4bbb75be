// Package config loads docvault configuration from the process environment.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: optional
// .env files are merged into the environment, then the environment is parsed
// into any struct annotated with `env` tags.
//
// Load returns the parsed value instead of caching it behind a package-level
// registry. The binary calls it once at start-up and passes the resulting
// structs explicitly to the document store and the vault, so nothing reads
// the environment again after initialisation.
//
//	type FTP struct {
//	    Host string `env:"FTP_HOST"`
//	    Port int    `env:"FTP_PORT" envDefault:"21"`
//	}
//
//	cfg, err := config.Load[FTP]()
//
// Tests supply a literal environment with WithEnvironment and never touch
// os.Environ.
//
// Errors wrap ErrParsingConfig or ErrLoadingEnvFile and can be checked with
// errors.Is.
package config
