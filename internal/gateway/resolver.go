package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/edvin/credgate/internal/core"
	"github.com/edvin/credgate/internal/model"
)

// AuthzContext is the resolved identity and permissions for one validated
// request. Immutable after construction; shared safely between the cache
// and concurrent pipelines.
type AuthzContext struct {
	Fingerprint     string
	CredentialID    string
	TenantID        string
	TenantStatus    string
	UserID          *string
	Scopes          []string
	Tier            Tier
	RiskScore       float64
	Family          string
	IssuedAt        time.Time
	ExpiresAt       time.Time
	RateLimitPerMin int
}

// HasScope checks whether the context carries the given resource:action
// scope or the *:* wildcard.
func (a *AuthzContext) HasScope(resource, action string) bool {
	target := resource + ":" + action
	for _, s := range a.Scopes {
		if s == "*:*" || s == target {
			return true
		}
	}
	return false
}

// TenantGetter looks up tenants. *core.TenantService satisfies it.
type TenantGetter interface {
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
}

// UserGetter looks up users. *core.UserService satisfies it.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Resolver expands a validated credential record into a full authorization
// context. Resolution is a deterministic function of the record plus store
// lookups; no ambient state is consulted.
type Resolver struct {
	tenants TenantGetter
	users   UserGetter
	policy  *Policy
	scorer  Scorer
}

// NewResolver creates a Resolver.
func NewResolver(tenants TenantGetter, users UserGetter, policy *Policy, scorer Scorer) *Resolver {
	if scorer == nil {
		scorer = StaticScorer{}
	}
	return &Resolver{tenants: tenants, users: users, policy: policy, scorer: scorer}
}

// Resolve builds the AuthzContext for a record. A credential with no
// linked user (service credential) resolves with UserID absent — a valid,
// distinct case, not an error.
func (r *Resolver) Resolve(ctx context.Context, rec *model.CredentialRecord) (*AuthzContext, error) {
	tenant, err := r.tenants.GetByID(ctx, rec.TenantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// A credential pointing at a missing tenant is
			// indistinguishable from an unknown credential to the caller.
			return nil, ErrNotFound
		}
		return nil, ErrStoreUnavailable
	}

	tier := r.policy.TierFor(rec.Scopes)

	authz := &AuthzContext{
		Fingerprint:     rec.TokenHash,
		CredentialID:    rec.ID,
		TenantID:        tenant.ID,
		TenantStatus:    tenant.Status,
		Scopes:          rec.Scopes,
		Tier:            tier,
		RiskScore:       r.scorer.Score(rec, tier, time.Now()),
		Family:          rec.Family,
		IssuedAt:        rec.CreatedAt,
		ExpiresAt:       rec.ExpiresAt,
		RateLimitPerMin: rec.RateLimitPerMin,
	}

	if rec.UserID != nil {
		user, err := r.users.GetByID(ctx, *rec.UserID)
		switch {
		case err == nil:
			uid := user.ID
			authz.UserID = &uid
		case errors.Is(err, core.ErrNotFound):
			// Dangling user reference degrades to a service credential.
		default:
			return nil, ErrStoreUnavailable
		}
	}

	return authz, nil
}
