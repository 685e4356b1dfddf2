package request

import (
	"net/http"
	"strconv"
)

// Pagination carries the cursor window for a list request.
type Pagination struct {
	Limit  int
	Cursor string
}

// Page sizes are capped server-side; out-of-range values fall back
// silently rather than erroring.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ParsePagination reads limit and cursor from the query string.
func ParsePagination(r *http.Request) Pagination {
	q := r.URL.Query()
	p := Pagination{Limit: DefaultLimit, Cursor: q.Get("cursor")}

	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}
