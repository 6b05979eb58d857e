package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"jarvis/internal/auth"
)

func (s *Server) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookie stores the token in the cookie matching its identity kind
func (s *Server) setSessionCookie(w http.ResponseWriter, sess *auth.Session) {
	name := auth.SessionCookie
	if sess.Identity.IsAdmin() {
		name = auth.AdminCookie
	}
	s.setCookie(w, name, sess.Token, sess.ExpiresAt)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "Email, username, and password required.")
		return
	}

	sess, err := s.auth.Signup(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		s.fail(w, err, "signup")
		return
	}

	s.setSessionCookie(w, sess)
	writeSuccess(w, "✅ Signup successful and logged in.", map[string]interface{}{
		"username": sess.Identity.Username,
		"token":    sess.Token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Identifier) == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "📛 Identifier and password are required.")
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		s.fail(w, err, "login")
		return
	}

	s.setSessionCookie(w, sess)
	role := "user"
	if sess.Identity.IsAdmin() {
		role = "admin"
	}
	writeSuccess(w, fmt.Sprintf("✅ %s logged in successfully.", sess.Identity.Username), map[string]interface{}{
		"username": sess.Identity.Username,
		"role":     role,
		"token":    sess.Token,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, hasUser := auth.UserFrom(r.Context())

	var username string
	if hasUser {
		username = user.Username
	}
	if err := s.auth.Logout(r.Context(), username, auth.SessionToken(r), auth.AdminToken(r)); err != nil {
		s.fail(w, err, "logout")
		return
	}
	s.clearCookie(w, auth.SessionCookie)
	s.clearCookie(w, auth.AdminCookie)

	if !hasUser {
		writeError(w, http.StatusOK, "No active session.")
		return
	}
	writeSuccess(w, "✅ Logged out successfully.", nil)
}

func (s *Server) handleActiveUser(w http.ResponseWriter, r *http.Request) {
	var username interface{}
	if user, ok := auth.UserFrom(r.Context()); ok {
		username = user.Username
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"username": username})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "Username required.")
		return
	}

	if err := s.auth.ForgotPassword(r.Context(), req.Username); err != nil {
		s.fail(w, err, "forgot_password")
		return
	}
	writeSuccess(w, "📩 OTP sent to registered email.", nil)
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		OTP      string `json:"otp"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	username, code := strings.TrimSpace(req.Username), strings.TrimSpace(req.OTP)
	if username == "" || code == "" {
		writeError(w, http.StatusBadRequest, "Username and OTP required.")
		return
	}

	if !s.auth.VerifyOTP(r.Context(), username, code) {
		writeError(w, http.StatusBadRequest, "❌ Invalid or expired OTP.")
		return
	}
	writeSuccess(w, "✅ OTP verified.", nil)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	username, code := strings.TrimSpace(req.Username), strings.TrimSpace(req.OTP)
	if username == "" || code == "" || strings.TrimSpace(req.NewPassword) == "" {
		writeError(w, http.StatusBadRequest, "All fields are required.")
		return
	}

	if err := s.auth.ResetPassword(r.Context(), username, code, req.NewPassword); err != nil {
		s.fail(w, err, "reset_password")
		return
	}
	writeSuccess(w, "✅ Password reset successful.", nil)
}
