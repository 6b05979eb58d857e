package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"jarvis/internal/logging"
	"jarvis/internal/notify"
	"jarvis/internal/store"
)

// Store is the persistence the authenticator needs
type Store interface {
	CreateAccount(ctx context.Context, username, email, passwordHash string) (*store.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*store.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*store.Account, error)
	UpdatePasswordHash(ctx context.Context, username, hash string) error
	MarkLoggedIn(ctx context.Context, accountID, username string) error
	MarkLoggedOut(ctx context.Context, username string) error
	UpsertOTP(ctx context.Context, username, code string, issuedAt time.Time) error
	GetOTP(ctx context.Context, username string) (*store.OTPRecord, error)
	DeleteOTP(ctx context.Context, username string) error
	CreateSessionToken(ctx context.Context, t store.SessionToken) error
	GetSessionToken(ctx context.Context, token string) (*store.SessionToken, error)
	DeleteSessionToken(ctx context.Context, token string) error
}

// Options configures an Authenticator
type Options struct {
	AdminUsername     string
	AdminPassword     string // empty disables admin login
	OTPTTL            time.Duration
	SessionTTL        time.Duration
	ConsumeOTPOnReset bool
	BcryptCost        int
}

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Authenticator owns signup, login, logout and password reset
type Authenticator struct {
	store    Store
	notifier notify.Sender
	opts     Options
	logger   *logging.Logger
	now      func() time.Time
	otp      func() (string, error)
}

// NewAuthenticator creates an Authenticator. Zero durations fall back to a
// five minute OTP lifetime and seven day sessions.
func NewAuthenticator(s Store, notifier notify.Sender, opts Options, logger *logging.Logger) *Authenticator {
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 5 * time.Minute
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.AdminUsername == "" {
		opts.AdminUsername = AdminUsername
	}
	return &Authenticator{
		store:    s,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		otp:      generateOTP,
	}
}

// Signup creates an account, marks it logged in and issues a session
func (a *Authenticator) Signup(ctx context.Context, email, username, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, fmt.Errorf("%w: email, username and password are required", ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	if _, err := a.store.GetAccountByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if _, err := a.store.GetAccountByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(password, a.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := a.store.CreateAccount(ctx, username, email, hash)
	switch {
	case errors.Is(err, store.ErrDuplicateUsername):
		return nil, ErrDuplicateUsername
	case errors.Is(err, store.ErrDuplicateEmail):
		return nil, ErrDuplicateEmail
	case err != nil:
		return nil, err
	}

	a.logger.WithContext("username", username).Info("account created")
	return a.issue(ctx, Identity{Kind: KindAccount, Username: account.Username, AccountID: account.ID})
}

// Login authenticates by username or email. The configured admin credentials
// are checked first and yield an admin identity without touching accounts.
func (a *Authenticator) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%w: identifier and password are required", ErrValidation)
	}

	if a.isAdminCredential(identifier, password) {
		a.logger.Info("admin logged in")
		return a.issue(ctx, Identity{Kind: KindAdmin, Username: a.opts.AdminUsername})
	}

	account, err := a.store.GetAccountByUsername(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		account, err = a.store.GetAccountByEmail(ctx, identifier)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !checkPasswordHash(password, account.PasswordHash) {
		a.logger.WithContext("username", account.Username).Warn("login with wrong password")
		return nil, ErrBadPassword
	}

	if err := a.store.MarkLoggedIn(ctx, account.ID, account.Username); err != nil {
		return nil, err
	}

	a.logger.WithContext("username", account.Username).Info("user logged in")
	return a.issue(ctx, Identity{Kind: KindAccount, Username: account.Username, AccountID: account.ID})
}

// AdminLogin accepts only the configured admin credentials
func (a *Authenticator) AdminLogin(ctx context.Context, identifier, password string) (*Session, error) {
	if !a.isAdminCredential(strings.TrimSpace(identifier), password) {
		a.logger.Warn("rejected admin login")
		return nil, ErrUnauthorized
	}
	a.logger.Info("admin logged in")
	return a.issue(ctx, Identity{Kind: KindAdmin, Username: a.opts.AdminUsername})
}

func (a *Authenticator) isAdminCredential(identifier, password string) bool {
	if a.opts.AdminPassword == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(identifier), []byte(a.opts.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.opts.AdminPassword)) == 1
	return userOK && passOK
}

// Logout clears the session flag of username (when given) and revokes the
// presented tokens. Calling it twice is harmless.
func (a *Authenticator) Logout(ctx context.Context, username string, tokens ...string) error {
	if username != "" {
		if err := a.store.MarkLoggedOut(ctx, username); err != nil {
			return err
		}
	}
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if err := a.store.DeleteSessionToken(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// ResolveToken maps a bearer token to its identity
func (a *Authenticator) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	st, err := a.store.GetSessionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrUnauthorized
	}
	id := Identity{Kind: KindAccount, Username: st.Username, AccountID: st.AccountID}
	if st.IsAdmin {
		id = Identity{Kind: KindAdmin, Username: st.Username}
	}
	return &id, nil
}

func (a *Authenticator) issue(ctx context.Context, id Identity) (*Session, error) {
	token, err := generateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	expires := a.now().Add(a.opts.SessionTTL)
	err = a.store.CreateSessionToken(ctx, store.SessionToken{
		Token:     token,
		AccountID: id.AccountID,
		Username:  id.Username,
		IsAdmin:   id.IsAdmin(),
		ExpiresAt: expires,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Session{Identity: id, Token: token, ExpiresAt: expires}, nil
}
