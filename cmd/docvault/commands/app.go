package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/docvault/pkg/config"
	"github.com/dmitrymomot/docvault/pkg/docstore"
	"github.com/dmitrymomot/docvault/pkg/logger"
	"github.com/dmitrymomot/docvault/pkg/registry"
	"github.com/dmitrymomot/docvault/pkg/remote"
	"github.com/dmitrymomot/docvault/pkg/vault"
)

// ServiceName tags every log record written by the CLI.
const ServiceName = "docvault"

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverFTP   = "ftp"
	DriverS3    = "s3"
	DriverLocal = "local"
)

// ErrUnknownDriver is returned when STORAGE_DRIVER names no known transport.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Settings is the full process configuration, read once at startup.
type Settings struct {
	Driver       string `env:"STORAGE_DRIVER" envDefault:"ftp"`        // Driver selects the transport: ftp, s3 or local.
	LocalRoot    string `env:"LOCAL_STORAGE_ROOT" envDefault:"./data"` // LocalRoot is the directory used by the local driver.
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`           // LogFormat is "text" or "json".
	LogLevel     string `env:"LOG_LEVEL" envDefault:"warn"`            // LogLevel is debug, info, warn or error.
	RegistryFile string `env:"REGISTRY_FILE"`                          // RegistryFile overrides the built-in document registry.

	FTP   remote.FTPConfig
	S3    remote.S3Config
	Retry remote.RetryPolicy
	Store docstore.Config
	Vault vault.Config
}

// LoadSettings reads Settings from the environment, loading envFiles first
// when given.
func LoadSettings(envFiles ...string) (Settings, error) {
	var opts []config.Option
	if len(envFiles) > 0 {
		opts = append(opts, config.WithEnvFiles(envFiles...))
	}
	return config.Load[Settings](opts...)
}

// App carries the collaborators shared by every command. Commands receive
// it before flags are parsed; Configure fills it in from the root command's
// PersistentPreRunE.
type App struct {
	Out io.Writer
	Err io.Writer

	Settings Settings
	Logger   *slog.Logger

	metrics *prometheus.Registry
	store   *docstore.Store
}

// NewApp returns an App writing to out and err.
func NewApp(out, err io.Writer) *App {
	return &App{
		Out:    out,
		Err:    err,
		Logger: logger.Discard(),
	}
}

// Configure applies settings and builds the logger. Transports are dialled
// lazily by the commands that need them.
func (a *App) Configure(s Settings) error {
	format := logger.Format(strings.ToLower(strings.TrimSpace(s.LogFormat)))
	switch format {
	case logger.FormatText, logger.FormatJSON, "":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: must be %q or %q", s.LogFormat, logger.FormatText, logger.FormatJSON)
	}
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case DriverFTP, DriverS3, DriverLocal:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, s.Driver)
	}
	a.Settings = s
	a.Logger = logger.New(
		logger.WithFormat(format),
		logger.WithLevelName(s.LogLevel),
		logger.WithOutput(a.Err),
		logger.WithAttr(slog.String("service", ServiceName)),
	)
	a.metrics = prometheus.NewRegistry()
	a.store = nil
	return nil
}

// Metrics returns the registry the transport manager reports to.
func (a *App) Metrics() *prometheus.Registry {
	if a.metrics == nil {
		a.metrics = prometheus.NewRegistry()
	}
	return a.metrics
}

func (a *App) dialer(ctx context.Context) (remote.Dialer, error) {
	switch strings.ToLower(strings.TrimSpace(a.Settings.Driver)) {
	case DriverFTP, "":
		return remote.NewFTPDialer(a.Settings.FTP)
	case DriverS3:
		return remote.NewS3Dialer(ctx, a.Settings.S3)
	case DriverLocal:
		return remote.NewLocalDialer(a.Settings.LocalRoot)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, a.Settings.Driver)
	}
}

// Store returns the document store, building the transport on first use.
func (a *App) Store(ctx context.Context) (*docstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	d, err := a.dialer(ctx)
	if err != nil {
		return nil, err
	}
	m := remote.NewManager(d,
		remote.WithRetryPolicy(a.Settings.Retry),
		remote.WithLogger(a.Logger),
		remote.WithMetrics(remote.NewMetrics(a.Metrics())),
	)
	a.store = docstore.New(m, a.Settings.Store, docstore.WithLogger(a.Logger))
	return a.store, nil
}

// Vault returns a credential vault backed by the document store.
func (a *App) Vault(ctx context.Context) (*vault.Vault, error) {
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	return vault.New(store, a.Settings.Vault, vault.WithLogger(a.Logger))
}

// Registry returns the document registry from REGISTRY_FILE, or the
// built-in one.
func (a *App) Registry() (*registry.Registry, error) {
	if a.Settings.RegistryFile == "" {
		return registry.Default(), nil
	}
	return registry.Load(a.Settings.RegistryFile)
}
