package gateway

import "errors"

// Validation-stage errors.
var (
	ErrFormat           = errors.New("malformed credential")
	ErrNotFound         = errors.New("credential not found")
	ErrExpired          = errors.New("credential expired")
	ErrRevoked          = errors.New("credential revoked")
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// Internal audit reason codes. These never appear in response bodies;
// callers see only the generic 401/403/429 statuses.
const (
	ReasonOK                    = "ok"
	ReasonFormatError           = "format_error"
	ReasonNotFound              = "not_found"
	ReasonExpired               = "expired"
	ReasonRevoked               = "revoked"
	ReasonStoreUnavailable      = "store_unavailable"
	ReasonTenantMismatch        = "tenant_mismatch"
	ReasonUnknownResourceTenant = "unknown_resource_tenant"
	ReasonTenantSuspended       = "tenant_suspended"
	ReasonRateLimited           = "rate_limited"
	ReasonRiskThreshold         = "risk_threshold_exceeded"
	ReasonInsufficientTier      = "insufficient_tier"
)

// validationReason maps a validation error to its audit reason code.
func validationReason(err error) string {
	switch {
	case errors.Is(err, ErrFormat):
		return ReasonFormatError
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrExpired):
		return ReasonExpired
	case errors.Is(err, ErrRevoked):
		return ReasonRevoked
	default:
		return ReasonStoreUnavailable
	}
}
