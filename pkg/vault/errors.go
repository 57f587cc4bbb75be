package vault

import "errors"

var (
	ErrNotConfigured        = errors.New("vault: two-factor authentication is not configured")
	ErrAlreadyConfigured    = errors.New("vault: two-factor authentication is already configured")
	ErrInvalidCode          = errors.New("vault: invalid one-time code")
	ErrAuthenticationFailed = errors.New("vault: authentication failed")
)
