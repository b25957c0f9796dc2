package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// inviteTokenBytes gives 256 bits of entropy per token.
const inviteTokenBytes = 32

// GenerateInviteToken returns a URL-safe random token and its SHA-256 hash.
// Only the hash may be persisted; the raw value is shown to the caller once.
func GenerateInviteToken() (raw string, hash string, err error) {
	buf := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashInviteToken(raw), nil
}

// HashInviteToken derives the lookup hash for a presented raw token. Storage
// is only ever queried by hash, so a database read cannot disclose a usable
// token.
func HashInviteToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
