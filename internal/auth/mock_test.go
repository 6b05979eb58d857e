package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jarvis/internal/store"
)

// mockStore is an in-memory Store for tests
type mockStore struct {
	mu       sync.Mutex
	accounts map[string]*store.Account // by username
	flags    map[string]bool
	otps     map[string]store.OTPRecord
	tokens   map[string]store.SessionToken
	now      func() time.Time
	nextID   int
}

func newMockStore() *mockStore {
	return &mockStore{
		accounts: map[string]*store.Account{},
		flags:    map[string]bool{},
		otps:     map[string]store.OTPRecord{},
		tokens:   map[string]store.SessionToken{},
		now:      time.Now,
	}
}

func (m *mockStore) CreateAccount(ctx context.Context, username, email, hash string) (*store.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; ok {
		return nil, store.ErrDuplicateUsername
	}
	for _, a := range m.accounts {
		if a.Email == email {
			return nil, store.ErrDuplicateEmail
		}
	}
	m.nextID++
	a := &store.Account{ID: fmt.Sprintf("id-%d", m.nextID), Username: username, Email: email, PasswordHash: hash}
	m.accounts[username] = a
	m.flags[username] = true
	return a, nil
}

func (m *mockStore) GetAccountByUsername(ctx context.Context, username string) (*store.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[username]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetAccountByEmail(ctx context.Context, email string) (*store.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[username]
	if !ok {
		return store.ErrNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (m *mockStore) MarkLoggedIn(ctx context.Context, accountID, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[username] = true
	return nil
}

func (m *mockStore) MarkLoggedOut(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flags[username]; ok {
		m.flags[username] = false
	}
	return nil
}

func (m *mockStore) UpsertOTP(ctx context.Context, username, code string, issuedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[username] = store.OTPRecord{Username: username, Code: code, IssuedAt: issuedAt}
	return nil
}

func (m *mockStore) GetOTP(ctx context.Context, username string) (*store.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.otps[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (m *mockStore) DeleteOTP(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.otps, username)
	return nil
}

func (m *mockStore) CreateSessionToken(ctx context.Context, t store.SessionToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Token] = t
	return nil
}

func (m *mockStore) GetSessionToken(ctx context.Context, token string) (*store.SessionToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok || !m.now().Before(t.ExpiresAt) {
		return nil, nil
	}
	return &t, nil
}

func (m *mockStore) DeleteSessionToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

type sentMail struct {
	to, subject, body string
}

// mockNotifier records sent mail and optionally fails
type mockNotifier struct {
	sent []sentMail
	fail bool
}

func (n *mockNotifier) Send(ctx context.Context, to, subject, body string) error {
	if n.fail {
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, sentMail{to, subject, body})
	return nil
}
