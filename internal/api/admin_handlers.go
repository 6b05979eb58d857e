package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"jarvis/internal/auth"
	"jarvis/internal/store"
)

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := s.auth.AdminLogin(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, "❌ Invalid admin credentials.")
		return
	}
	if err != nil {
		s.fail(w, err, "admin_login")
		return
	}

	s.setCookie(w, auth.AdminCookie, sess.Token, sess.ExpiresAt)
	writeSuccess(w, "✅ Admin logged in.", map[string]interface{}{"token": sess.Token})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), "", auth.AdminToken(r)); err != nil {
		s.fail(w, err, "admin_logout")
		return
	}
	s.clearCookie(w, auth.AdminCookie)
	writeSuccess(w, "✅ Admin logged out.", nil)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListAccounts(r.Context())
	if err != nil {
		s.fail(w, err, "admin_users")
		return
	}
	if users == nil {
		users = []store.AccountSummary{}
	}
	loggedIn, err := s.store.LoggedInUsernames(r.Context())
	if err != nil {
		s.fail(w, err, "admin_users")
		return
	}
	if loggedIn == nil {
		loggedIn = []string{}
	}
	// null when nobody is logged in
	var active interface{}
	switch username, err := s.store.ActiveUsername(r.Context()); {
	case err == nil:
		active = username
	case !errors.Is(err, store.ErrNotFound):
		s.fail(w, err, "admin_users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "success",
		"users":           users,
		"logged_in_users": loggedIn,
		"active_user":     active,
	})
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "⚠️ Username required.")
		return
	}

	err := s.store.DeleteAccount(r.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "❌ User not found.")
		return
	}
	if err != nil {
		s.logger.WithContext("username", username).Error("delete user failed: %v", err)
		writeError(w, http.StatusInternalServerError, "❌ Failed to delete user.")
		return
	}

	s.logger.WithContext("username", username).Info("user deleted by admin")
	if s.hub != nil {
		s.hub.Broadcast("user_deleted", map[string]string{"username": username})
	}
	writeSuccess(w, fmt.Sprintf("✅ User '%s' deleted successfully.", username), nil)
}
