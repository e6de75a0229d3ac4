// Package cryptox implements credential derivation for device login.
//
// The backend never sees the operator's PIN: the client derives a credential
// key with Argon2id from the PIN and a per-account salt, and authenticates
// with a verifier of that key. The same verifier is cached locally so login
// keeps working while the device is offline.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Chosen for interactive login on mobile-class hardware.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// DeriveCredentialKey derives a 32-byte credential key from a PIN and salt
// using Argon2id. The derivation is deterministic for a given (pin, salt).
func DeriveCredentialKey(pin []byte, salt []byte) []byte {
	return argon2.IDKey(pin, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// MakeVerifier returns the SHA-256 digest of a credential key. The verifier
// is safe to store locally and to send to the backend in place of the key.
func MakeVerifier(credentialKey []byte) []byte {
	hash := sha256.Sum256(credentialKey)
	return hash[:]
}
