package response

import (
	"encoding/json"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteDenied writes the generic denial body for a gateway decision.
// Deliberately status-only: reason codes and tenant identifiers stay in
// the audit trail, never in the response.
func WriteDenied(w http.ResponseWriter, status int) {
	switch status {
	case http.StatusForbidden:
		WriteError(w, status, "forbidden")
	case http.StatusTooManyRequests:
		WriteError(w, status, "rate limit exceeded")
	default:
		WriteError(w, http.StatusUnauthorized, "invalid credential")
	}
}

// PaginatedResponse wraps a list with pagination metadata.
type PaginatedResponse struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// WritePaginated writes a paginated JSON response.
func WritePaginated(w http.ResponseWriter, status int, items any, nextCursor string, hasMore bool) {
	WriteJSON(w, status, PaginatedResponse{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	})
}
