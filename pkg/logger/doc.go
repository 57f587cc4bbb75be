// Package logger builds the *slog.Logger used across docvault.
//
// New accepts functional options selecting the output format (json or text),
// the minimum level and static attributes. Every logger it returns also reads
// the operation and document names stored in the context by
// ContextWithOperation and ContextWithDocument, so a retry warning logged deep
// inside the transport still says which document it was about:
//
//	ctx = logger.ContextWithDocument(ctx, "fournisseur_pl.json")
//	log.WarnContext(ctx, "transient transport failure, retrying",
//	    logger.Attempt(2),
//	    logger.Error(err),
//	)
//
// attr.go keeps attribute keys consistent between the remote transport, the
// document store and the vault.
//
// Secrets, TOTP codes, backup codes and their hashes must never be passed to
// these helpers.
package logger
