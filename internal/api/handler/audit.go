package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/credgate/internal/api/request"
	"github.com/edvin/credgate/internal/api/response"
	"github.com/edvin/credgate/internal/core"
)

// Audit handles the tenant-scoped audit record endpoint.
type Audit struct {
	svc *core.AuditService
}

// NewAudit creates a new Audit handler.
func NewAudit(svc *core.AuditService) *Audit {
	return &Audit{svc: svc}
}

// List lists the tenant's audit records, newest first, with cursor-based
// pagination. Records carry fingerprints, never raw credential values.
func (h *Audit) List(w http.ResponseWriter, r *http.Request) {
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

	var nextCursor string
	if hasMore && len(recs) > 0 {
		nextCursor = recs[len(recs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, recs, nextCursor, hasMore)
}
