package auth

import "time"

// Kind distinguishes an account holder from the configured administrator
type Kind int

const (
	KindAccount Kind = iota + 1
	KindAdmin
)

func (k Kind) String() string {
	switch k {
	case KindAccount:
		return "account"
	case KindAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// AdminUsername is the display name of the administrator identity
const AdminUsername = "admin"

// Identity is who a request acts as. Administrators have no account row, so
// AccountID is empty for KindAdmin.
type Identity struct {
	Kind      Kind
	Username  string
	AccountID string
}

// IsAdmin reports whether the identity carries admin capability
func (i Identity) IsAdmin() bool { return i.Kind == KindAdmin }

// Session is the result of a successful signup or login
type Session struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}
