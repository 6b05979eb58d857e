package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jarvis/internal/auth"
	"jarvis/internal/store"
)

// mockAuth resolves tokens from a fixed table and records logouts
type mockAuth struct {
	mu      sync.Mutex
	tokens  map[string]auth.Identity
	revoked []string

	signupFunc func(ctx context.Context, email, username, password string) (*auth.Session, error)
	loginFunc  func(ctx context.Context, identifier, password string) (*auth.Session, error)
	forgotErr  error
	validOTP   string
	resetErr   error
}

func newMockAuth() *mockAuth {
	return &mockAuth{tokens: map[string]auth.Identity{
		"alice-token": {Kind: auth.KindAccount, Username: "alice", AccountID: "acc-alice"},
		"admin-token": {Kind: auth.KindAdmin, Username: "admin"},
	}}
}

func (m *mockAuth) session(id auth.Identity, token string) *auth.Session {
	m.mu.Lock()
	m.tokens[token] = id
	m.mu.Unlock()
	return &auth.Session{Identity: id, Token: token, ExpiresAt: time.Now().Add(time.Hour)}
}

func (m *mockAuth) Signup(ctx context.Context, email, username, password string) (*auth.Session, error) {
	if m.signupFunc != nil {
		return m.signupFunc(ctx, email, username, password)
	}
	return m.session(auth.Identity{Kind: auth.KindAccount, Username: username, AccountID: "acc-" + username}, username+"-token"), nil
}

func (m *mockAuth) Login(ctx context.Context, identifier, password string) (*auth.Session, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, identifier, password)
	}
	if identifier == "admin" && password == "secret" {
		return m.session(auth.Identity{Kind: auth.KindAdmin, Username: "admin"}, "admin-login-token"), nil
	}
	return m.session(auth.Identity{Kind: auth.KindAccount, Username: identifier, AccountID: "acc-" + identifier}, identifier+"-login-token"), nil
}

func (m *mockAuth) AdminLogin(ctx context.Context, identifier, password string) (*auth.Session, error) {
	if identifier != "admin" || password != "secret" {
		return nil, auth.ErrUnauthorized
	}
	return m.session(auth.Identity{Kind: auth.KindAdmin, Username: "admin"}, "admin-login-token"), nil
}

func (m *mockAuth) Logout(ctx context.Context, username string, tokens ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tokens {
		if t != "" {
			m.revoked = append(m.revoked, t)
			delete(m.tokens, t)
		}
	}
	return nil
}

func (m *mockAuth) ForgotPassword(ctx context.Context, username string) error {
	return m.forgotErr
}

func (m *mockAuth) VerifyOTP(ctx context.Context, username, code string) bool {
	return m.validOTP != "" && code == m.validOTP
}

func (m *mockAuth) ResetPassword(ctx context.Context, username, code, newPassword string) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	if code != m.validOTP {
		return auth.ErrInvalidOTP
	}
	return nil
}

func (m *mockAuth) ResolveToken(ctx context.Context, token string) (*auth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[token]
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	return &id, nil
}

type mockDispatcher struct {
	reply     string
	err       error
	utterance string
	username  string
}

func (m *mockDispatcher) Handle(ctx context.Context, utterance, username string) (string, error) {
	m.utterance, m.username = utterance, username
	return m.reply, m.err
}

type mockSpeaker struct {
	audio []byte
	err   error
}

func (m *mockSpeaker) Speak(ctx context.Context, text string) ([]byte, error) {
	return m.audio, m.err
}

type mockStore struct {
	history  []store.ConversationEntry
	files    map[string]*store.GeneratedFile // accountID/filename
	accounts []store.AccountSummary
	deleted  []string
	loggedIn []string // most recent first
	pingErr  error
}

func (m *mockStore) ConversationHistory(ctx context.Context, username string) ([]store.ConversationEntry, error) {
	var out []store.ConversationEntry
	for _, e := range m.history {
		if e.Username == username {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStore) ListGeneratedFiles(ctx context.Context, accountID string) ([]store.GeneratedFile, error) {
	var out []store.GeneratedFile
	for _, f := range m.files {
		if f.AccountID == accountID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockStore) GetGeneratedFile(ctx context.Context, accountID, filename string) (*store.GeneratedFile, error) {
	f, ok := m.files[accountID+"/"+filename]
	if !ok {
		return nil, store.ErrNotFound
	}
	return f, nil
}

func (m *mockStore) ListAccounts(ctx context.Context) ([]store.AccountSummary, error) {
	return m.accounts, nil
}

func (m *mockStore) DeleteAccount(ctx context.Context, username string) error {
	for _, a := range m.accounts {
		if a.Username == username {
			m.deleted = append(m.deleted, username)
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", username, store.ErrNotFound)
}

func (m *mockStore) LoggedInUsernames(ctx context.Context) ([]string, error) {
	return m.loggedIn, nil
}

func (m *mockStore) ActiveUsername(ctx context.Context) (string, error) {
	if len(m.loggedIn) == 0 {
		return "", store.ErrNotFound
	}
	return m.loggedIn[0], nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.pingErr
}
