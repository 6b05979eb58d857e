// Package api exposes the assistant, account and admin operations over
// HTTP with JSON bodies.
package api

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"jarvis/internal/auth"
	"jarvis/internal/logging"
	"jarvis/internal/store"
)

// Authenticator is the account and session surface the handlers call
type Authenticator interface {
	Signup(ctx context.Context, email, username, password string) (*auth.Session, error)
	Login(ctx context.Context, identifier, password string) (*auth.Session, error)
	AdminLogin(ctx context.Context, identifier, password string) (*auth.Session, error)
	Logout(ctx context.Context, username string, tokens ...string) error
	ForgotPassword(ctx context.Context, username string) error
	VerifyOTP(ctx context.Context, username, code string) bool
	ResetPassword(ctx context.Context, username, code, newPassword string) error
	ResolveToken(ctx context.Context, token string) (*auth.Identity, error)
}

// Dispatcher answers utterances
type Dispatcher interface {
	Handle(ctx context.Context, utterance, username string) (string, error)
}

// Speaker turns reply text into audio
type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

// Store is the read side of persistence the handlers need
type Store interface {
	ConversationHistory(ctx context.Context, username string) ([]store.ConversationEntry, error)
	ListGeneratedFiles(ctx context.Context, accountID string) ([]store.GeneratedFile, error)
	GetGeneratedFile(ctx context.Context, accountID, filename string) (*store.GeneratedFile, error)
	ListAccounts(ctx context.Context) ([]store.AccountSummary, error)
	DeleteAccount(ctx context.Context, username string) error
	LoggedInUsernames(ctx context.Context) ([]string, error)
	ActiveUsername(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

// ServerConfig holds HTTP-layer settings
type ServerConfig struct {
	SecureCookies      bool
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Server holds dependencies and provides HTTP handlers
type Server struct {
	auth       Authenticator
	dispatcher Dispatcher
	speaker    Speaker
	store      Store
	hub        *Hub
	limiter    *RateLimiter
	config     ServerConfig
	logger     *logging.Logger
}

// NewServer creates a server. speaker may be nil when speech is disabled.
func NewServer(authn Authenticator, dispatcher Dispatcher, speaker Speaker, st Store, hub *Hub, cfg ServerConfig, logger *logging.Logger) *Server {
	return &Server{
		auth:       authn,
		dispatcher: dispatcher,
		speaker:    speaker,
		store:      st,
		hub:        hub,
		limiter:    NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		config:     cfg,
		logger:     logger,
	}
}

// Handler returns the routed handler with session resolution and request
// logging applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(auth.SessionGate(s.auth, s.logger)(mux))
}

// RegisterRoutes sets up all HTTP routes
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	user := func(h http.HandlerFunc) http.Handler { return auth.RequireUser(h) }
	admin := func(h http.HandlerFunc) http.Handler { return auth.RequireAdmin(h) }
	limited := func(h http.HandlerFunc) http.Handler { return s.limiter.Middleware(h) }

	mux.Handle("POST /ask", user(s.handleAsk))
	mux.Handle("POST /speak", user(s.handleSpeak))
	mux.Handle("GET /history", user(s.handleHistory))
	mux.Handle("GET /files", user(s.handleFiles))
	mux.Handle("GET /download/{filename}", user(s.handleDownload))

	mux.Handle("POST /signup", limited(s.handleSignup))
	mux.Handle("POST /login", limited(s.handleLogin))
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /get_active_user", s.handleActiveUser)
	mux.Handle("POST /forgot_password", limited(s.handleForgotPassword))
	mux.Handle("POST /verify_otp", limited(s.handleVerifyOTP))
	mux.Handle("POST /reset_password", limited(s.handleResetPassword))

	mux.Handle("POST /admin/login", limited(s.handleAdminLogin))
	mux.HandleFunc("POST /admin/logout", s.handleAdminLogout)
	mux.Handle("GET /admin/users", admin(s.handleAdminUsers))
	mux.Handle("POST /admin/delete_user", admin(s.handleAdminDeleteUser))
	mux.Handle("GET /ws/admin", admin(s.handleAdminWebSocket))

	mux.HandleFunc("GET /healthz", s.handleHealth)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes websocket upgrades through to the underlying writer
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"latency_ms": time.Since(start).Milliseconds(),
		}).Debug("request handled")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "database unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
