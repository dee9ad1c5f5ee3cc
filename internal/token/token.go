// Package token generates unguessable secrets and their one-way digests.
// The same mechanism backs remember tokens, activation tokens, and password
// reset tokens: the raw token goes to the user once, only its bcrypt digest
// is stored.
package token

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// tokenBytes is the entropy of a generated token. 16 bytes = 128 bits.
const tokenBytes = 16

// New returns a cryptographically random URL-safe token.
func New() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hasher produces and verifies bcrypt digests at a fixed cost. Production
// configuration uses bcrypt.DefaultCost; tests may use bcrypt.MinCost to
// stay fast without weakening the production default.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside the
// valid bcrypt range are clamped by bcrypt itself.
func NewHasher(cost int) *Hasher {
	return &Hasher{cost: cost}
}

// Digest returns the bcrypt digest of s.
func (h *Hasher) Digest(s string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(s), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether tok matches digest. An empty digest always
// verifies false; verification failures are never errors.
func (h *Hasher) Verify(tok, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(tok)) == nil
}
