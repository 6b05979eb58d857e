package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"jarvis/internal/logging"
)

// stubResolver maps fixed tokens to identities
type stubResolver map[string]Identity

func (s stubResolver) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	id, ok := s[token]
	if !ok {
		return nil, ErrUnauthorized
	}
	return &id, nil
}

var testResolver = stubResolver{
	"user-tok":  {Kind: KindAccount, Username: "alice", AccountID: "a1"},
	"admin-tok": {Kind: KindAdmin, Username: "admin"},
}

func serveGate(t *testing.T, req *http.Request, guard func(http.Handler) http.Handler) (*httptest.ResponseRecorder, context.Context) {
	t.Helper()
	var seen context.Context
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context()
		w.WriteHeader(http.StatusOK)
	})
	h := SessionGate(testResolver, logging.Discard())(guard(inner))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func passthrough(h http.Handler) http.Handler { return h }

func TestSessionGateBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req.Header.Set("Authorization", "Bearer user-tok")

	rec, ctx := serveGate(t, req, RequireUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	id, ok := UserFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "alice", id.Username)
	assert.False(t, IsAdmin(ctx))
}

func TestSessionGateCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "user-tok"})

	rec, _ := serveGate(t, req, RequireUser)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireUserWithoutSession(t *testing.T) {
	for name, req := range map[string]*http.Request{
		"no token": httptest.NewRequest(http.MethodPost, "/ask", nil),
		"bad token": func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/ask", nil)
			r.Header.Set("Authorization", "Bearer forged")
			return r
		}(),
	} {
		t.Run(name, func(t *testing.T) {
			rec, _ := serveGate(t, req, RequireUser)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"status":"error","message":"Not logged in"}`, rec.Body.String())
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	userReq := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	userReq.AddCookie(&http.Cookie{Name: SessionCookie, Value: "user-tok"})
	rec, _ := serveGate(t, userReq, RequireAdmin)
	assert.Equal(t, http.StatusForbidden, rec.Code, "a user identity is not an admin")

	adminReq := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	adminReq.AddCookie(&http.Cookie{Name: AdminCookie, Value: "admin-tok"})
	rec, ctx := serveGate(t, adminReq, RequireAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, IsAdmin(ctx))

	headerReq := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	headerReq.Header.Set(AdminHeader, "admin-tok")
	rec, _ = serveGate(t, headerReq, RequireAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminTokenInUserSlotGrantsAdminOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin-tok")

	_, ctx := serveGate(t, req, passthrough)
	assert.True(t, IsAdmin(ctx))
	_, ok := UserFrom(ctx)
	assert.False(t, ok, "admin has no account identity")
}

func TestUserTokenInAdminSlotIsIgnored(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookie, Value: "user-tok"})

	_, ctx := serveGate(t, req, passthrough)
	assert.False(t, IsAdmin(ctx))
}
