package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/edvin/credgate/internal/model"
)

// Token values look like cg_live_<64 hex> or cg_test_<64 hex>. The family
// prefix is structural: it is checked before any store lookup.
var tokenPattern = regexp.MustCompile(`^cg_(live|test)_[0-9a-f]{64}$`)

// prefixLen is how much of the raw token is kept for display. Enough to
// identify a credential in a listing, useless for authentication.
const prefixLen = 12

// MintToken generates a new raw token value for the given family.
func MintToken(family string) (string, error) {
	if family != model.FamilyLive && family != model.FamilyTest {
		return "", fmt.Errorf("unknown token family %q", family)
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return "cg_" + family + "_" + hex.EncodeToString(raw), nil
}

// HashToken returns the hex SHA-256 content hash of a raw token. All store
// lookups and cache keys use this hash; the raw value is never persisted.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// ParseToken validates the structural format of a raw token and returns
// its family. ok is false for malformed input.
func ParseToken(raw string) (family string, ok bool) {
	m := tokenPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// TokenPrefix returns the display prefix of a raw token.
func TokenPrefix(raw string) string {
	if len(raw) < prefixLen {
		return raw
	}
	return raw[:prefixLen]
}
