package gateway

// IsolationDecision is the outcome of comparing an authorization context's
// tenant against the tenant implied by the requested resource.
type IsolationDecision struct {
	Allow  bool
	Reason string
}

// Enforce applies the tenant isolation invariant:
//
//	Allow == (authz.TenantID == requestedTenant)
//
// There is no override path. ADMIN-tier contexts get no exception;
// cross-tenant administrative access lives on a separate, explicitly
// audited route outside this check, never through it. The deny reason
// distinguishes a missing resource tenant (likely a caller bug) from a
// mismatch (likely an attack or misconfiguration) for audit triage only;
// callers see the same generic response either way.
func Enforce(authz *AuthzContext, requestedTenant string) IsolationDecision {
	if requestedTenant == "" {
		return IsolationDecision{Allow: false, Reason: ReasonUnknownResourceTenant}
	}
	if authz == nil || authz.TenantID != requestedTenant {
		return IsolationDecision{Allow: false, Reason: ReasonTenantMismatch}
	}
	return IsolationDecision{Allow: true, Reason: ReasonOK}
}
