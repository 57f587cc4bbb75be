// Package vault gates administrative access behind TOTP with single-use
// backup codes.
//
// The account record (TOTP secret, hashed backup codes, creation time) is
// persisted as one document, encrypted with the envelope codec under a key
// derived from ADMIN_SECRET_KEY. The document being absent means the account
// is not configured.
//
// Lifecycle:
//
//	NotConfigured --BeginSetup--> pending secret (held by the caller)
//	NotConfigured --CompleteSetup(secret, code)--> Enabled, plaintext backup codes returned once
//	Enabled --Authenticate(code)--> TOTP, or consumes one backup code
//	Enabled --RegenerateBackupCodes--> fresh codes, old ones discarded
//
// A consumed backup code is marked used with a timestamp and never becomes
// usable again. Corrupted or undecryptable records are reported as errors
// and never treated as "not configured".
//
// The vault assumes a single administrative actor; concurrent
// authentications consuming backup codes are not arbitrated.
package vault
