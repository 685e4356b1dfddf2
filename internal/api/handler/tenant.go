package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/credgate/internal/api/request"
	"github.com/edvin/credgate/internal/api/response"
	"github.com/edvin/credgate/internal/core"
	"github.com/edvin/credgate/internal/model"
)

// Tenant handles the admin-plane tenant endpoints.
type Tenant struct {
	svc *core.TenantService
}

// NewTenant creates a new Tenant handler.
func NewTenant(svc *core.TenantService) *Tenant {
	return &Tenant{svc: svc}
}

// List lists all tenants with cursor-based pagination.
func (h *Tenant) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	tenants, hasMore, err := h.svc.List(r.Context(), pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(tenants) > 0 {
		nextCursor = tenants[len(tenants)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, tenants, nextCursor, hasMore)
}

// Create creates a new tenant.
func (h *Tenant) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTenant
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, tenant)
}

// Get retrieves a tenant by ID.
func (h *Tenant) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, tenant)
}

// Suspend marks a tenant suspended. Every credential under it starts
// failing authorization on the next uncached request.
func (h *Tenant) Suspend(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.TenantSuspended)
}

// Unsuspend restores a suspended tenant to active.
func (h *Tenant) Unsuspend(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.TenantActive)
}

func (h *Tenant) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SetStatus(r.Context(), id, status); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
