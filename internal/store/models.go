package store

import "time"

// Account is a registered user
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// AccountSummary is an account as shown on the admin dashboard
type AccountSummary struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LoggedIn  bool       `json:"logged_in"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// OTPRecord is the single live reset code for a username
type OTPRecord struct {
	Username string
	Code     string
	IssuedAt time.Time
}

// ConversationEntry is one persisted (utterance, reply) exchange
type ConversationEntry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// GeneratedFile is text produced by the content writer
type GeneratedFile struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"-"`
	Filename  string    `json:"filename"`
	Content   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionToken binds an opaque bearer token to an identity. AccountID is
// empty for admin tokens, which have no account row.
type SessionToken struct {
	Token     string
	AccountID string
	Username  string
	IsAdmin   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}
