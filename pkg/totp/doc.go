// Package totp implements RFC 6238 time-based one-time passwords and the
// single-use backup codes that substitute for them.
//
// Secrets are base32 strings without padding. Codes have 6 digits over a
// 30-second step, and validation accepts the previous and next step to
// absorb clock drift. GetTOTPURI builds the otpauth:// provisioning URI
// understood by authenticator apps.
//
// Backup codes look like "A1B2C3D4-5E6F7089". They are stored only as
// "scrypt$<salt>$<hash>" strings (16-byte salt, 64-byte scrypt key,
// N=16384 r=8 p=1) and verified with a constant-time comparison.
//
//	secret, _ := totp.GenerateSecretKey()
//	uri, _ := totp.GetTOTPURI(totp.TOTPParams{Secret: secret, AccountName: "admin", Issuer: "DocumentsDurand"})
//	ok, _ := totp.ValidateTOTP(secret, "123456")
//
//	codes, _ := totp.GenerateBackupCodes(10)
//	hash, _ := totp.HashBackupCode(codes[0])
//	totp.VerifyBackupCode(codes[0], hash) // true
//
// Errors are sentinels, possibly joined with the underlying cause; inspect
// them with errors.Is.
package totp
