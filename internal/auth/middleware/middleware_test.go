package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aprendia/aprendia-lms/internal/rbac"
)

func TestJWTRoundTrip(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("alice", "student")
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "alice", c.Sub)
	require.Equal(t, "student", c.Role)

	// a token signed with another key is rejected
	other := NewAuthService("different-secret")
	_, err = other.Parse(tok)
	require.Error(t, err)

	_, err = a.Parse("not-a-token")
	require.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("alice", "student")
	require.NoError(t, err)

	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/tests", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", gotSub)
	require.Equal(t, "student", gotRole)

	// no header
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/tests", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// garbage token
	req = httptest.NewRequest("GET", "/tests", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
