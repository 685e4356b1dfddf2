package model

import "time"

// Audit event types. One record is appended per gateway decision and per
// credential lifecycle mutation.
const (
	EventAccessAllowed      = "ACCESS_ALLOWED"
	EventAccessDenied       = "ACCESS_DENIED"
	EventExpirationExtended = "EXPIRATION_EXTENDED"
	EventCredentialReplaced = "CREDENTIAL_REPLACED"
	EventCredentialIssued   = "CREDENTIAL_ISSUED"
	EventCredentialRevoked  = "CREDENTIAL_REVOKED"
	EventAdminAction        = "ADMIN_ACTION"
)

// AuditRecord is an append-only entry describing one decision or lifecycle
// mutation. The fingerprint is the credential's content hash; the raw
// token value never appears here.
type AuditRecord struct {
	ID          string    `json:"id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Fingerprint string    `json:"fingerprint"`
	TenantID    string    `json:"tenant_id,omitempty"`
	Event       string    `json:"event"`
	Decision    string    `json:"decision"`
	Reason      string    `json:"reason"`
	LatencyMS   int64     `json:"latency_ms"`
	Method      string    `json:"method,omitempty"`
	Path        string    `json:"path,omitempty"`
}

// Audit decisions.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)
