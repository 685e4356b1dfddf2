package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/credgate/internal/api/request"
	"github.com/edvin/credgate/internal/api/response"
	"github.com/edvin/credgate/internal/core"
)

// User handles the admin-plane user endpoints.
type User struct {
	svc *core.UserService
}

// NewUser creates a new User handler.
func NewUser(svc *core.UserService) *User {
	return &User{svc: svc}
}

// Create creates a user within a tenant.
func (h *User) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateUser
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.Create(r.Context(), req.TenantID, req.Email, req.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, user)
}

// Get retrieves a user by ID.
func (h *User) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, user)
}
