package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// AdminKey gates the administrative surface (stats, cycle renewal). Only a
// SHA-256 hash of the key lives in config.
type AdminKey struct {
	keyHash string
}

// NewAdminKey creates an admin-key checker from the configured hash. An
// empty hash disables the admin surface entirely.
func NewAdminKey(keyHash string) *AdminKey {
	return &AdminKey{keyHash: keyHash}
}

// Enabled reports whether an admin key is configured.
func (a *AdminKey) Enabled() bool {
	return a.keyHash != ""
}

// Verify checks a presented key in constant time.
func (a *AdminKey) Verify(key string) bool {
	if !a.Enabled() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashKey(key)), []byte(a.keyHash)) == 1
}

// HashKey returns the hex SHA-256 of a key for use in config.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
