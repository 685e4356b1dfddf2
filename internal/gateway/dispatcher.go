package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/credgate/internal/core"
	"github.com/edvin/credgate/internal/model"
)

// AuditRecorder accepts audit records without blocking the request path.
// *audit.Sink satisfies it.
type AuditRecorder interface {
	Record(rec *model.AuditRecord)
}

// Request carries everything the dispatcher needs for one decision. The
// tenant implied by the resource is always passed explicitly; nothing is
// inferred from ambient state.
type Request struct {
	Token    string
	TenantID string
	Method   string
	Path     string

	// Admin marks a platform-admin route: a separate, explicitly audited
	// path that requires ADMIN tier instead of tenant isolation.
	Admin bool
}

// Decision is the dispatcher's synchronous answer for one request. Reason
// is an internal audit code; callers only ever see Status.
type Decision struct {
	Allow  bool
	Status int
	Reason string
	Authz  *AuthzContext

	// NewToken is set only on the replace path, for out-of-band delivery.
	NewToken       string
	NewTokenExpiry time.Time
}

// Dispatcher composes validation, resolution, lifecycle, isolation, risk
// scoring, rate limiting, and auditing into one decision per request.
// Every path that cannot positively establish authorization denies.
type Dispatcher struct {
	validator    Validator
	resolver     *Resolver
	lifecycle    *LifecycleManager
	cache        *Cache
	limiter      *RateLimiter
	policy       *Policy
	audit        AuditRecorder
	logger       zerolog.Logger
	storeTimeout time.Duration
}

// NewDispatcher wires a Dispatcher from its stages.
func NewDispatcher(validator Validator, resolver *Resolver, lifecycle *LifecycleManager,
	cache *Cache, limiter *RateLimiter, policy *Policy, audit AuditRecorder,
	logger zerolog.Logger, storeTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		validator:    validator,
		resolver:     resolver,
		lifecycle:    lifecycle,
		cache:        cache,
		limiter:      limiter,
		policy:       policy,
		audit:        audit,
		logger:       logger.With().Str("component", "dispatcher").Logger(),
		storeTimeout: storeTimeout,
	}
}

// Authorize runs the full pipeline: validate (cache-checked) → resolve →
// isolation → risk/rate → lifecycle → audit. A cache hit skips only
// validation and resolution.
func (d *Dispatcher) Authorize(ctx context.Context, req Request) Decision {
	start := time.Now()

	if req.Token == "" {
		return d.deny(req, "", "", http.StatusUnauthorized, ReasonFormatError, model.EventAccessDenied, start)
	}

	// The fingerprint doubles as cache key and audit identifier; hashing
	// is local, so even malformed input never reaches the store raw.
	fingerprint := core.HashToken(req.Token)

	// storeCtx bounds every store round trip made on behalf of this
	// request: validation, resolution, and lifecycle mutations. A hung
	// store can never hold the request open past the store timeout.
	storeCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()

	// Expired and revoked validations still return the record; keeping it
	// lets the deny audit record name the owning tenant.
	var deniedRec *model.CredentialRecord
	authz, cacheHit, err := d.cache.ResolveThrough(fingerprint, func() (*AuthzContext, error) {
		rec, verr := d.validator.Validate(storeCtx, req.Token)
		if verr != nil {
			if errors.Is(verr, ErrExpired) || errors.Is(verr, ErrRevoked) {
				deniedRec = rec
			}
			return nil, verr
		}
		return d.resolver.Resolve(storeCtx, rec)
	})
	if cacheHit {
		cacheHitsTotal.WithLabelValues("hit").Inc()
	} else {
		cacheHitsTotal.WithLabelValues("miss").Inc()
	}

	if err != nil {
		reason := validationReason(err)
		tenantID := ""
		if deniedRec != nil {
			tenantID = deniedRec.TenantID
		}

		// An expired credential inside the grace window is replaced so
		// the client can adopt the successor transparently. The request
		// itself still fails: expiry is expiry.
		if errors.Is(err, ErrExpired) && deniedRec != nil {
			if newRaw, newExpiry, ok := d.lifecycle.ReplaceExpired(storeCtx, deniedRec); ok {
				lifecycleActionsTotal.WithLabelValues("replace").Inc()
				dec := d.deny(req, fingerprint, tenantID, http.StatusUnauthorized, reason, model.EventAccessDenied, start)
				dec.NewToken = newRaw
				dec.NewTokenExpiry = newExpiry
				return dec
			}
		}
		return d.deny(req, fingerprint, tenantID, http.StatusUnauthorized, reason, model.EventAccessDenied, start)
	}

	event := model.EventAccessAllowed
	if req.Admin {
		// Cross-tenant admin access never rides through the isolation
		// check; it has its own gate and its own audit event.
		event = model.EventAdminAction
		if authz.Tier != TierAdmin {
			return d.deny(req, fingerprint, authz.TenantID, http.StatusForbidden, ReasonInsufficientTier, model.EventAdminAction, start)
		}
	} else {
		if iso := Enforce(authz, req.TenantID); !iso.Allow {
			return d.deny(req, fingerprint, authz.TenantID, http.StatusForbidden, iso.Reason, model.EventAccessDenied, start)
		}
	}

	if authz.TenantStatus == model.TenantSuspended {
		return d.deny(req, fingerprint, authz.TenantID, http.StatusForbidden, ReasonTenantSuspended, event, start)
	}

	// Elevated tiers carry the risk gate; the common path skips it.
	if authz.Tier >= TierElevated && authz.RiskScore >= d.policy.RiskThreshold {
		return d.deny(req, fingerprint, authz.TenantID, http.StatusForbidden, ReasonRiskThreshold, event, start)
	}

	if !d.limiter.Allow(fingerprint, authz.RateLimitPerMin) {
		// Rate-limited requests do not consume a lifecycle-check cycle.
		return d.deny(req, fingerprint, authz.TenantID, http.StatusTooManyRequests, ReasonRateLimited, event, start)
	}

	if newExpiry, extended := d.lifecycle.MaybeExtend(storeCtx, authz); extended {
		lifecycleActionsTotal.WithLabelValues("extend").Inc()
		refreshed := *authz
		refreshed.ExpiresAt = newExpiry
		authz = &refreshed
		d.cache.Put(fingerprint, authz)
	}

	d.record(req, fingerprint, authz.TenantID, model.DecisionAllow, ReasonOK, event, start)
	decisionsTotal.WithLabelValues(model.DecisionAllow, ReasonOK).Inc()
	decisionDuration.Observe(time.Since(start).Seconds())

	return Decision{Allow: true, Status: http.StatusOK, Reason: ReasonOK, Authz: authz}
}

func (d *Dispatcher) deny(req Request, fingerprint, tenantID string, status int, reason, event string, start time.Time) Decision {
	d.record(req, fingerprint, tenantID, model.DecisionDeny, reason, event, start)
	decisionsTotal.WithLabelValues(model.DecisionDeny, reason).Inc()
	decisionDuration.Observe(time.Since(start).Seconds())
	return Decision{Allow: false, Status: status, Reason: reason}
}

func (d *Dispatcher) record(req Request, fingerprint, tenantID, decision, reason, event string, start time.Time) {
	d.audit.Record(&model.AuditRecord{
		Fingerprint: fingerprint,
		TenantID:    tenantID,
		Event:       event,
		Decision:    decision,
		Reason:      reason,
		LatencyMS:   time.Since(start).Milliseconds(),
		Method:      req.Method,
		Path:        req.Path,
	})
}
