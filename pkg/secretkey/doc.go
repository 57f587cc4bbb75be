// Package secretkey turns the configured administrative secret into a
// 32-byte AES-256 key.
//
// A value made of base64 characters whose length is a multiple of four is
// decoded as base64; anything else, including a value that fails to decode,
// is taken as raw bytes. A decoded 32-byte key is used as is. Every other
// input is reduced to 32 bytes with SHA-256. Derivation is deterministic and
// the key is never persisted.
//
// Protected keeps the derived key in a memguard enclave so it stays
// encrypted in memory between uses.
package secretkey
