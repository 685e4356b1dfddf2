package model

import "time"

// Credential token families. The family is encoded in the token's
// structural prefix: cg_live_... for production, cg_test_... for test.
const (
	FamilyLive = "live"
	FamilyTest = "test"
)

// CredentialRecord is the store's current-version row for a credential
// hash. Exactly one active (non-superseded) record exists per token hash;
// prior versions are end-dated via SupersededAt and kept forever.
type CredentialRecord struct {
	ID              string     `json:"id"`
	TokenHash       string     `json:"-"`
	TokenPrefix     string     `json:"token_prefix"`
	Family          string     `json:"family"`
	TenantID        string     `json:"tenant_id"`
	UserID          *string    `json:"user_id,omitempty"`
	Scopes          []string   `json:"scopes"`
	ExpiresAt       time.Time  `json:"expires_at"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	RevokeReason    *string    `json:"revoke_reason,omitempty"`
	RateLimitPerMin int        `json:"rate_limit_per_min"`
	Version         int        `json:"version"`
	SupersededAt    *time.Time `json:"superseded_at,omitempty"`
	SupersededBy    *string    `json:"superseded_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Revoked reports whether the credential has been explicitly revoked.
func (r *CredentialRecord) Revoked() bool {
	return r.RevokedAt != nil
}

// ExpiredAt reports whether the credential is past its expiry at the
// given instant.
func (r *CredentialRecord) ExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Remaining returns the validity window left at the given instant.
// Negative for expired credentials.
func (r *CredentialRecord) Remaining(now time.Time) time.Duration {
	return r.ExpiresAt.Sub(now)
}
