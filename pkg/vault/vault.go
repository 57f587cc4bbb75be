package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/docvault/pkg/envelope"
	"github.com/dmitrymomot/docvault/pkg/logger"
	"github.com/dmitrymomot/docvault/pkg/qrcode"
	"github.com/dmitrymomot/docvault/pkg/secretkey"
	"github.com/dmitrymomot/docvault/pkg/totp"
)

// Storage persists the encrypted record. *docstore.Store satisfies it.
type Storage interface {
	Read(ctx context.Context, name string) ([]byte, bool, error)
	Write(ctx context.Context, name string, data []byte) error
}

// State of the administrative account.
type State int

const (
	StateNotConfigured State = iota
	StateEnabled
)

func (s State) String() string {
	if s == StateEnabled {
		return "enabled"
	}
	return "not_configured"
}

// Method tells which factor authenticated the caller.
type Method int

const (
	MethodTOTP Method = iota + 1
	MethodBackupCode
)

func (m Method) String() string {
	switch m {
	case MethodTOTP:
		return "totp"
	case MethodBackupCode:
		return "backup_code"
	default:
		return "none"
	}
}

// Setup is the pending enrolment returned by BeginSetup. Secret is not
// persisted; the caller keeps it until CompleteSetup.
type Setup struct {
	Secret string
	URI    string
	QRCode string // PNG data URL of URI
}

// Status summarises the account without exposing secrets.
type Status struct {
	State                State
	CreatedAt            time.Time
	BackupCodesTotal     int
	BackupCodesRemaining int
}

// Vault manages the administrative two-factor record.
type Vault struct {
	store  Storage
	codec  *envelope.Codec
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	keys   envelope.KeySource
}

// Option configures a Vault.
type Option func(*Vault)

func WithLogger(l *slog.Logger) Option {
	return func(v *Vault) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithClock overrides the time source used for TOTP checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		if now != nil {
			v.now = now
		}
	}
}

// WithKeySource supplies the record key directly instead of deriving it
// from Config.SecretKey.
func WithKeySource(keys envelope.KeySource) Option {
	return func(v *Vault) { v.keys = keys }
}

// New creates a Vault. Unless WithKeySource is given, the key is derived
// from cfg.SecretKey and an empty secret fails with secretkey.ErrSecretNotSet.
func New(store Storage, cfg Config, opts ...Option) (*Vault, error) {
	v := &Vault{
		store:  store,
		cfg:    cfg,
		logger: logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.keys == nil {
		protected, err := secretkey.New(cfg.SecretKey)
		if err != nil {
			return nil, err
		}
		v.keys = protected
	}
	v.codec = envelope.New(v.keys)
	v.logger = v.logger.With(logger.Component("vault"))
	return v, nil
}

// load returns the stored record, or nil when the auth document is absent.
func (v *Vault) load(ctx context.Context) (*Record, error) {
	data, found, err := v.store.Read(ctx, v.cfg.authFile())
	if err != nil {
		return nil, fmt.Errorf("vault: load record: %w", err)
	}
	if !found {
		return nil, nil
	}
	env, err := envelope.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("vault: %s: %w", v.cfg.authFile(), err)
	}
	var rec Record
	if err := v.codec.Decrypt(env, &rec); err != nil {
		return nil, fmt.Errorf("vault: %s: %w", v.cfg.authFile(), err)
	}
	return &rec, nil
}

func (v *Vault) save(ctx context.Context, rec *Record) error {
	env, err := v.codec.Encrypt(rec)
	if err != nil {
		return fmt.Errorf("vault: seal record: %w", err)
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: encode envelope: %w", err)
	}
	if err := v.store.Write(ctx, v.cfg.authFile(), data); err != nil {
		return fmt.Errorf("vault: save record: %w", err)
	}
	return nil
}

func (v *Vault) enabled(ctx context.Context) (*Record, error) {
	rec, err := v.load(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil || !rec.Enabled {
		return nil, ErrNotConfigured
	}
	return rec, nil
}

// State reports whether two-factor authentication is configured.
func (v *Vault) State(ctx context.Context) (State, error) {
	st, err := v.Status(ctx)
	return st.State, err
}

// Status reports the account state and backup-code counts.
func (v *Vault) Status(ctx context.Context) (Status, error) {
	rec, err := v.load(ctx)
	if err != nil {
		return Status{}, err
	}
	if rec == nil || !rec.Enabled {
		return Status{State: StateNotConfigured}, nil
	}
	return Status{
		State:                StateEnabled,
		CreatedAt:            rec.CreatedAt,
		BackupCodesTotal:     len(rec.BackupCodes),
		BackupCodesRemaining: rec.remaining(),
	}, nil
}

// BeginSetup generates a pending TOTP secret with its provisioning URI.
// Nothing is persisted.
func (v *Vault) BeginSetup(ctx context.Context) (*Setup, error) {
	state, err := v.State(ctx)
	if err != nil {
		return nil, err
	}
	if state == StateEnabled {
		return nil, ErrAlreadyConfigured
	}

	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return nil, err
	}
	uri, err := totp.GetTOTPURI(totp.TOTPParams{
		Secret:      secret,
		AccountName: v.cfg.label(),
		Issuer:      v.cfg.issuer(),
	})
	if err != nil {
		return nil, err
	}
	qr, err := qrcode.DataURL(uri, 0)
	if err != nil {
		return nil, err
	}
	return &Setup{Secret: secret, URI: uri, QRCode: qr}, nil
}

// CompleteSetup verifies code against the pending secret, persists the
// enabled record and returns the plaintext backup codes. They cannot be
// retrieved again.
func (v *Vault) CompleteSetup(ctx context.Context, secret, code string) ([]string, error) {
	state, err := v.State(ctx)
	if err != nil {
		return nil, err
	}
	if state == StateEnabled {
		return nil, ErrAlreadyConfigured
	}

	ok, err := totp.ValidateTOTPWithTime(secret, code, v.now())
	if err != nil || !ok {
		return nil, ErrInvalidCode
	}

	codes, hashed, err := v.issueBackupCodes()
	if err != nil {
		return nil, err
	}
	rec := &Record{
		Enabled:     true,
		CreatedAt:   v.now().UTC(),
		TOTPSecret:  secret,
		BackupCodes: hashed,
	}
	if err := v.save(ctx, rec); err != nil {
		return nil, err
	}

	v.logger.InfoContext(ctx, "two-factor authentication enabled", slog.Int("backup_codes", len(codes)))
	return codes, nil
}

// Authenticate accepts a current TOTP code or an unused backup code.
// A matching backup code is consumed and the record saved before success
// is reported.
func (v *Vault) Authenticate(ctx context.Context, code string) (Method, error) {
	rec, err := v.enabled(ctx)
	if err != nil {
		return 0, err
	}

	ok, err := totp.ValidateTOTPWithTime(rec.TOTPSecret, code, v.now())
	if ok {
		return MethodTOTP, nil
	}
	// Backup codes fail the OTP format check; only secret errors are worth a warning.
	if err != nil && !errors.Is(err, totp.ErrInvalidOTP) {
		v.logger.WarnContext(ctx, "stored TOTP secret is unusable, trying backup codes", logger.Error(err))
	}

	if !v.consumeBackupCode(rec, code) {
		v.logger.WarnContext(ctx, "authentication failed")
		return 0, ErrAuthenticationFailed
	}
	if err := v.save(ctx, rec); err != nil {
		return 0, err
	}
	v.logger.InfoContext(ctx, "backup code consumed", slog.Int("remaining", rec.remaining()))
	return MethodBackupCode, nil
}

func (v *Vault) consumeBackupCode(rec *Record, code string) bool {
	code = totp.NormalizeBackupCode(code)
	if code == "" {
		return false
	}
	for i := range rec.BackupCodes {
		entry := &rec.BackupCodes[i]
		if entry.Used {
			continue
		}
		if totp.VerifyBackupCode(code, entry.Hash) {
			at := v.now().UTC()
			entry.Used = true
			entry.UsedAt = &at
			return true
		}
	}
	return false
}

// RegenerateBackupCodes replaces every backup code with a fresh set.
func (v *Vault) RegenerateBackupCodes(ctx context.Context) ([]string, error) {
	rec, err := v.enabled(ctx)
	if err != nil {
		return nil, err
	}
	codes, hashed, err := v.issueBackupCodes()
	if err != nil {
		return nil, err
	}
	rec.BackupCodes = hashed
	if err := v.save(ctx, rec); err != nil {
		return nil, err
	}
	v.logger.InfoContext(ctx, "backup codes regenerated", slog.Int("backup_codes", len(codes)))
	return codes, nil
}

// RemainingBackupCodes returns the number of unused backup codes.
func (v *Vault) RemainingBackupCodes(ctx context.Context) (int, error) {
	rec, err := v.enabled(ctx)
	if err != nil {
		return 0, err
	}
	return rec.remaining(), nil
}

func (v *Vault) issueBackupCodes() ([]string, []BackupCode, error) {
	codes, err := totp.GenerateBackupCodes(v.cfg.backupCodeCount())
	if err != nil {
		return nil, nil, err
	}
	hashed := make([]BackupCode, len(codes))
	for i, c := range codes {
		h, err := totp.HashBackupCode(c)
		if err != nil {
			return nil, nil, err
		}
		hashed[i] = BackupCode{Hash: h}
	}
	return codes, hashed, nil
}
