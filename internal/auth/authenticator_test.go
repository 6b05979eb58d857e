package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jarvis/internal/logging"
)

func newTestAuthenticator(opts Options) (*Authenticator, *mockStore, *mockNotifier) {
	st := newMockStore()
	n := &mockNotifier{}
	opts.BcryptCost = bcrypt.MinCost
	return NewAuthenticator(st, n, opts, logging.Discard()), st, n
}

func TestSignup(t *testing.T) {
	a, st, _ := newTestAuthenticator(Options{})
	ctx := context.Background()

	sess, err := a.Signup(ctx, "alice@example.com", "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, KindAccount, sess.Identity.Kind)
	assert.Equal(t, "alice", sess.Identity.Username)
	assert.NotEmpty(t, sess.Identity.AccountID)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, st.flags["alice"])
	assert.NotEqual(t, "pw", st.accounts["alice"].PasswordHash)

	id, err := a.ResolveToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Identity, *id)
}

func TestSignupValidationAndDuplicates(t *testing.T) {
	a, _, _ := newTestAuthenticator(Options{})
	ctx := context.Background()

	_, err := a.Signup(ctx, "", "alice", "pw")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = a.Signup(ctx, "not-an-email", "alice", "pw")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = a.Signup(ctx, "alice@example.com", "alice", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = a.Signup(ctx, "alice@example.com", "alice", "pw")
	require.NoError(t, err)

	_, err = a.Signup(ctx, "other@example.com", "alice", "pw")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	_, err = a.Signup(ctx, "alice@example.com", "bob", "pw")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestLogin(t *testing.T) {
	a, st, _ := newTestAuthenticator(Options{})
	ctx := context.Background()
	_, err := a.Signup(ctx, "alice@example.com", "alice", "pw")
	require.NoError(t, err)
	require.NoError(t, a.Logout(ctx, "alice"))
	assert.False(t, st.flags["alice"])

	sess, err := a.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Identity.Username)
	assert.True(t, st.flags["alice"])

	byEmail, err := a.Login(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", byEmail.Identity.Username)

	_, err = a.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrBadPassword)
	_, err = a.Login(ctx, "ghost", "pw")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.Login(ctx, "", "pw")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminLogin(t *testing.T) {
	a, st, _ := newTestAuthenticator(Options{AdminUsername: "root", AdminPassword: "toor"})
	ctx := context.Background()

	sess, err := a.Login(ctx, "root", "toor")
	require.NoError(t, err)
	assert.Equal(t, KindAdmin, sess.Identity.Kind)
	assert.Empty(t, sess.Identity.AccountID)
	assert.Empty(t, st.accounts, "admin login must not create accounts")

	id, err := a.ResolveToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())

	_, err = a.AdminLogin(ctx, "root", "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)

	admin, err := a.AdminLogin(ctx, "root", "toor")
	require.NoError(t, err)
	assert.True(t, admin.Identity.IsAdmin())
}

func TestAdminLoginDisabledWithoutPassword(t *testing.T) {
	a, _, _ := newTestAuthenticator(Options{AdminUsername: "admin"})
	_, err := a.AdminLogin(context.Background(), "admin", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogoutRevokesTokens(t *testing.T) {
	a, _, _ := newTestAuthenticator(Options{})
	ctx := context.Background()
	sess, err := a.Signup(ctx, "alice@example.com", "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx, "alice", sess.Token, ""))
	require.NoError(t, a.Logout(ctx, "alice", sess.Token), "logout is idempotent")

	_, err = a.ResolveToken(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveExpiredToken(t *testing.T) {
	a, st, _ := newTestAuthenticator(Options{SessionTTL: time.Hour})
	ctx := context.Background()
	sess, err := a.Signup(ctx, "alice@example.com", "alice", "pw")
	require.NoError(t, err)

	st.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = a.ResolveToken(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = a.ResolveToken(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "non-digit in %q", code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}
