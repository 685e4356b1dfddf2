package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/edvin/credgate/internal/core"
	"github.com/edvin/credgate/internal/model"
)

// LifecycleState classifies a credential's remaining validity window.
type LifecycleState int

const (
	StateFresh LifecycleState = iota
	StateExpiring
	StateExpired
	StateRevoked
)

func (s LifecycleState) String() string {
	switch s {
	case StateFresh:
		return "FRESH"
	case StateExpiring:
		return "EXPIRING"
	case StateExpired:
		return "EXPIRED"
	default:
		return "REVOKED"
	}
}

// StateOf classifies a record at the given instant. REVOKED dominates:
// a revoked credential has no further lifecycle regardless of expiry.
func StateOf(rec *model.CredentialRecord, now time.Time, threshold time.Duration) LifecycleState {
	switch {
	case rec.Revoked():
		return StateRevoked
	case rec.ExpiredAt(now):
		return StateExpired
	case rec.Remaining(now) <= threshold:
		return StateExpiring
	default:
		return StateFresh
	}
}

// LifecycleManager decides, per validation, whether a credential gets
// silently extended (same value, pushed-out expiry — the default,
// zero-blast-radius path) or replaced (new value, requiring client
// coordination — the exception, taken only once already expired).
// Concurrent extensions of one credential collapse into a single store
// round trip; the store's version CAS serializes racers across processes.
type LifecycleManager struct {
	store  CredentialStore
	policy *Policy
	cache  *Cache
	audit  AuditRecorder
	logger zerolog.Logger
	group  singleflight.Group
}

// NewLifecycleManager creates a LifecycleManager.
func NewLifecycleManager(store CredentialStore, policy *Policy, cache *Cache, audit AuditRecorder, logger zerolog.Logger) *LifecycleManager {
	return &LifecycleManager{
		store:  store,
		policy: policy,
		cache:  cache,
		audit:  audit,
		logger: logger.With().Str("component", "lifecycle").Logger(),
	}
}

// MaybeExtend runs the extend path when the context's credential is
// EXPIRING. It returns the expiry every racer observes. Extension failure
// never fails the caller's request; the credential simply stays on its
// current window.
func (m *LifecycleManager) MaybeExtend(ctx context.Context, authz *AuthzContext) (time.Time, bool) {
	now := time.Now()
	remaining := authz.ExpiresAt.Sub(now)
	if remaining > m.policy.ExtendThreshold() || remaining <= 0 {
		return authz.ExpiresAt, false
	}

	fingerprint := authz.Fingerprint
	v, err, _ := m.group.Do("extend:"+fingerprint, func() (any, error) {
		rec, err := m.store.ExtendExpiry(ctx, fingerprint, time.Now().Add(m.policy.ExtendBy()))
		if err != nil {
			return nil, err
		}
		// The cached context still carries the old expiry.
		m.cache.Invalidate(fingerprint)
		m.audit.Record(&model.AuditRecord{
			Fingerprint: fingerprint,
			TenantID:    rec.TenantID,
			Event:       model.EventExpirationExtended,
			Decision:    model.DecisionAllow,
			Reason:      ReasonOK,
		})
		return rec, nil
	})
	if err != nil {
		if errors.Is(err, core.ErrCannotMutateRevoked) {
			// Revocation landed between validation and extension; make
			// sure the next request sees it.
			m.cache.Invalidate(fingerprint)
		}
		m.logger.Warn().Err(err).Str("credential", authz.CredentialID).Msg("credential extension failed")
		return authz.ExpiresAt, false
	}

	return v.(*model.CredentialRecord).ExpiresAt, true
}

// ReplaceExpired runs the replace path for a credential that just failed
// validation as expired. Replacement happens only within the grace window
// after expiry; beyond it the credential is gone for good. Returns the new
// raw token for out-of-band delivery to the caller.
func (m *LifecycleManager) ReplaceExpired(ctx context.Context, rec *model.CredentialRecord) (string, time.Time, bool) {
	now := time.Now()
	if rec.Revoked() || now.Sub(rec.ExpiresAt) > m.policy.ReplaceGrace() {
		return "", time.Time{}, false
	}

	type replacement struct {
		raw    string
		expiry time.Time
	}

	fingerprint := rec.TokenHash
	v, err, _ := m.group.Do("replace:"+fingerprint, func() (any, error) {
		newRec, newRaw, err := m.store.Replace(ctx, fingerprint)
		if err != nil {
			return nil, err
		}
		m.cache.Invalidate(fingerprint)
		m.audit.Record(&model.AuditRecord{
			Fingerprint: fingerprint,
			TenantID:    newRec.TenantID,
			Event:       model.EventCredentialReplaced,
			Decision:    model.DecisionAllow,
			Reason:      ReasonExpired,
		})
		return replacement{raw: newRaw, expiry: newRec.ExpiresAt}, nil
	})
	if err != nil {
		// A concurrent replacement already consumed this credential; only
		// that racer learns the new value.
		m.logger.Warn().Err(err).Str("credential", rec.ID).Msg("credential replacement failed")
		return "", time.Time{}, false
	}

	rep := v.(replacement)
	return rep.raw, rep.expiry, true
}
