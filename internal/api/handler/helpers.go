package handler

import (
	"errors"
	"net/http"

	"github.com/edvin/credgate/internal/api/response"
	"github.com/edvin/credgate/internal/core"
)

// writeServiceError maps a core-service error to an HTTP response.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrCannotMutateRevoked):
		response.WriteError(w, http.StatusConflict, "credential is revoked")
	default:
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
