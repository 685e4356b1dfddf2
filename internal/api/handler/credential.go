package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/credgate/internal/api/request"
	"github.com/edvin/credgate/internal/api/response"
	"github.com/edvin/credgate/internal/core"
	"github.com/edvin/credgate/internal/gateway"
	"github.com/edvin/credgate/internal/model"
)

// Credential handles tenant-scoped credential self-service and the
// admin-plane mint endpoint.
type Credential struct {
	svc   *core.CredentialService
	audit gateway.AuditRecorder
}

// NewCredential creates a new Credential handler.
func NewCredential(svc *core.CredentialService, audit gateway.AuditRecorder) *Credential {
	return &Credential{svc: svc, audit: audit}
}

// credentialResponse shapes a record for API output. The raw value is
// included only at issue time; the hash never leaves the store.
func credentialResponse(rec *model.CredentialRecord, rawToken string) map[string]any {
	resp := map[string]any{
		"id":                 rec.ID,
		"token_prefix":       rec.TokenPrefix,
		"family":             rec.Family,
		"tenant_id":          rec.TenantID,
		"scopes":             rec.Scopes,
		"expires_at":         rec.ExpiresAt,
		"rate_limit_per_min": rec.RateLimitPerMin,
		"version":            rec.Version,
		"created_at":         rec.CreatedAt,
	}
	if rec.UserID != nil {
		resp["user_id"] = *rec.UserID
	}
	if rec.RevokedAt != nil {
		resp["revoked_at"] = rec.RevokedAt
		resp["revoke_reason"] = rec.RevokeReason
	}
	if rawToken != "" {
		resp["token"] = rawToken
	}
	return resp
}

// List lists the tenant's credentials with cursor-based pagination.
func (h *Credential) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	pg := request.ParsePagination(r)

	recs, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(recs))
	for i := range recs {
		items = append(items, credentialResponse(&recs[i], ""))
	}
	var nextCursor string
	if hasMore && len(recs) > 0 {
		nextCursor = recs[len(recs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, items, nextCursor, hasMore)
}

// Issue mints a new credential inside the caller's tenant. The raw token
// appears once in the response and is never retrievable again.
func (h *Credential) Issue(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.IssueCredential
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, raw, err := h.svc.Issue(r.Context(), issueParams(tenantID, req.Family, req.UserID, req.Scopes, req.TTLDays, req.RateLimitPerMin))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.audit.Record(&model.AuditRecord{
		Fingerprint: rec.TokenHash,
		TenantID:    rec.TenantID,
		Event:       model.EventCredentialIssued,
		Decision:    model.DecisionAllow,
		Reason:      gateway.ReasonOK,
		Method:      r.Method,
		Path:        r.URL.Path,
	})
	response.WriteJSON(w, http.StatusCreated, credentialResponse(rec, raw))
}

// Get retrieves one of the tenant's credentials by ID.
func (h *Credential) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.tenantOwned(w, r)
	if !ok {
		return
	}
	response.WriteJSON(w, http.StatusOK, credentialResponse(rec, ""))
}

// Revoke permanently revokes one of the tenant's credentials.
func (h *Credential) Revoke(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.tenantOwned(w, r)
	if !ok {
		return
	}

	var req request.RevokeCredential
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.RevokeByID(r.Context(), rec.ID, req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}

	h.audit.Record(&model.AuditRecord{
		Fingerprint: rec.TokenHash,
		TenantID:    rec.TenantID,
		Event:       model.EventCredentialRevoked,
		Decision:    model.DecisionAllow,
		Reason:      req.Reason,
		Method:      r.Method,
		Path:        r.URL.Path,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Mint is the admin-plane issue endpoint: mints a credential for any
// tenant named in the body. Reached only through the admin gateway.
func (h *Credential) Mint(w http.ResponseWriter, r *http.Request) {
	var req request.MintCredential
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, raw, err := h.svc.Issue(r.Context(), issueParams(req.TenantID, req.Family, req.UserID, req.Scopes, req.TTLDays, req.RateLimitPerMin))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.audit.Record(&model.AuditRecord{
		Fingerprint: rec.TokenHash,
		TenantID:    rec.TenantID,
		Event:       model.EventCredentialIssued,
		Decision:    model.DecisionAllow,
		Reason:      gateway.ReasonOK,
		Method:      r.Method,
		Path:        r.URL.Path,
	})
	response.WriteJSON(w, http.StatusCreated, credentialResponse(rec, raw))
}

// AdminList is the admin-plane listing endpoint: lists any tenant's
// credentials, tenant named by the tenant_id query parameter.
func (h *Credential) AdminList(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(r.URL.Query().Get("tenant_id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "missing tenant_id parameter")
		return
	}
	pg := request.ParsePagination(r)

	recs, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(recs))
	for i := range recs {
		items = append(items, credentialResponse(&recs[i], ""))
	}
	var nextCursor string
	if hasMore && len(recs) > 0 {
		nextCursor = recs[len(recs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, items, nextCursor, hasMore)
}

// tenantOwned loads the credential named by the route and verifies it
// belongs to the route's tenant. A foreign credential reads as not found,
// exactly like a nonexistent one.
func (h *Credential) tenantOwned(w http.ResponseWriter, r *http.Request) (*model.CredentialRecord, bool) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	rec, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	if rec.TenantID != tenantID {
		response.WriteError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return rec, true
}

func issueParams(tenantID, family, userID string, scopes []string, ttlDays, perMin int) core.IssueParams {
	params := core.IssueParams{
		TenantID:        tenantID,
		Family:          family,
		Scopes:          scopes,
		RateLimitPerMin: perMin,
	}
	if userID != "" {
		uid := userID
		params.UserID = &uid
	}
	if ttlDays > 0 {
		params.TTL = time.Duration(ttlDays) * 24 * time.Hour
	}
	return params
}
