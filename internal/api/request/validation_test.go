package request

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_ValidBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"scopes":["resource:read"]}`))

	var req IssueCredential
	require.NoError(t, Decode(r, &req))
	assert.Equal(t, []string{"resource:read"}, req.Scopes)
}

func TestDecode_InvalidJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{bad`))

	var req IssueCredential
	err := Decode(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestDecode_ValidationFailure(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"scopes":[]}`))

	var req IssueCredential
	err := Decode(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestScopeValidation(t *testing.T) {
	tests := []struct {
		scope string
		ok    bool
	}{
		{"resource:read", true},
		{"credentials:write", true},
		{"*:*", true},
		{"platform:admin", true},
		{"resource", false},
		{"Resource:Read", false},
		{"resource:", false},
		{":read", false},
		{"", false},
	}
	for _, tt := range tests {
		body := `{"scopes":["` + tt.scope + `"]}`
		r := httptest.NewRequest("POST", "/", strings.NewReader(body))
		var req IssueCredential
		err := Decode(r, &req)
		if tt.ok {
			assert.NoError(t, err, "scope %q", tt.scope)
		} else {
			assert.Error(t, err, "scope %q", tt.scope)
		}
	}
}

func TestRequireID(t *testing.T) {
	id, err := RequireID("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = RequireID("")
	assert.Error(t, err)
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=25&cursor=xyz", nil)
	p := ParsePagination(r)
	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, "xyz", p.Cursor)

	r = httptest.NewRequest("GET", "/", nil)
	p = ParsePagination(r)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Empty(t, p.Cursor)

	r = httptest.NewRequest("GET", "/?limit=9999", nil)
	assert.Equal(t, MaxLimit, ParsePagination(r).Limit)

	r = httptest.NewRequest("GET", "/?limit=-1", nil)
	assert.Equal(t, DefaultLimit, ParsePagination(r).Limit)
}
