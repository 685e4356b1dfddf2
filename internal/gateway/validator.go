package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/edvin/credgate/internal/core"
	"github.com/edvin/credgate/internal/model"
)

// CredentialStore is the slice of the store the gateway's request path
// needs. *core.CredentialService satisfies it.
type CredentialStore interface {
	LookupByHash(ctx context.Context, hash string) (*model.CredentialRecord, error)
	ExtendExpiry(ctx context.Context, hash string, newExpiry time.Time) (*model.CredentialRecord, error)
	Replace(ctx context.Context, hash string) (*model.CredentialRecord, string, error)
}

// Validator resolves a presented raw token to its active record. Two
// implementations exist behind this contract — the store-backed default
// and a static config-provisioned list — so the legacy path can run in
// parallel during cutover without scattering conditionals.
type Validator interface {
	Validate(ctx context.Context, raw string) (*model.CredentialRecord, error)
}

// NewValidator selects the validator implementation named by the policy.
func NewValidator(policy *Policy, store CredentialStore) Validator {
	if policy.ValidationMode == "static" {
		return NewStaticValidator(policy)
	}
	return &StoreValidator{store: store, policy: policy}
}

// StoreValidator validates against the credential store by content hash.
type StoreValidator struct {
	store  CredentialStore
	policy *Policy
}

// Validate checks format, family, and the active store record. On
// ErrExpired the record is still returned so the lifecycle manager can
// decide on replacement. Store failures are retried once with a short
// backoff and then fail closed as ErrStoreUnavailable.
func (v *StoreValidator) Validate(ctx context.Context, raw string) (*model.CredentialRecord, error) {
	family, ok := core.ParseToken(raw)
	if !ok {
		return nil, ErrFormat
	}
	// Family restriction is structural: rejected before the store is
	// touched, same as malformed input.
	if v.policy.RequireFamily != "" && family != v.policy.RequireFamily {
		return nil, ErrFormat
	}

	rec, err := lookupWithRetry(ctx, v.store, core.HashToken(raw))
	if err != nil {
		return nil, err
	}

	if rec.Revoked() {
		return rec, ErrRevoked
	}
	if rec.ExpiredAt(time.Now()) {
		return rec, ErrExpired
	}
	return rec, nil
}

// storeRetryBackoff is the single-retry backoff for store failures.
const storeRetryBackoff = 100 * time.Millisecond

func lookupWithRetry(ctx context.Context, store CredentialStore, hash string) (*model.CredentialRecord, error) {
	rec, err := store.LookupByHash(ctx, hash)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrNotFound
	}

	select {
	case <-ctx.Done():
		return nil, ErrStoreUnavailable
	case <-time.After(storeRetryBackoff):
	}

	rec, err = store.LookupByHash(ctx, hash)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrNotFound
	}
	return nil, ErrStoreUnavailable
}

// StaticValidator validates against a fixed token list provisioned in the
// policy file. It exists for legacy parallel-run cutover; records it
// returns never expire and carry no rate-limit budget override.
type StaticValidator struct {
	policy  *Policy
	records map[string]*model.CredentialRecord
}

// NewStaticValidator indexes the policy's static tokens by content hash.
func NewStaticValidator(policy *Policy) *StaticValidator {
	records := make(map[string]*model.CredentialRecord, len(policy.StaticTokens))
	for _, st := range policy.StaticTokens {
		family, ok := core.ParseToken(st.Token)
		if !ok {
			continue
		}
		hash := core.HashToken(st.Token)
		rec := &model.CredentialRecord{
			ID:              "static-" + core.TokenPrefix(st.Token),
			TokenHash:       hash,
			TokenPrefix:     core.TokenPrefix(st.Token),
			Family:          family,
			TenantID:        st.TenantID,
			Scopes:          st.Scopes,
			ExpiresAt:       time.Now().Add(100 * 365 * 24 * time.Hour),
			RateLimitPerMin: 600,
			Version:         1,
			CreatedAt:       time.Now(),
		}
		if st.UserID != "" {
			uid := st.UserID
			rec.UserID = &uid
		}
		records[hash] = rec
	}
	return &StaticValidator{policy: policy, records: records}
}

func (v *StaticValidator) Validate(ctx context.Context, raw string) (*model.CredentialRecord, error) {
	family, ok := core.ParseToken(raw)
	if !ok {
		return nil, ErrFormat
	}
	if v.policy.RequireFamily != "" && family != v.policy.RequireFamily {
		return nil, ErrFormat
	}
	rec, ok := v.records[core.HashToken(raw)]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}
