package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"jarvis/internal/notify"
	"jarvis/internal/store"
)

// ForgotPassword issues a fresh reset code for username, replacing any
// earlier one, and emails it to the account's address. When sending fails
// the stored code stays in place and ErrSendFailure is returned.
func (a *Authenticator) ForgotPassword(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}

	account, err := a.store.GetAccountByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnknownUser
	}
	if err != nil {
		return err
	}
	if account.Email == "" {
		return ErrUnknownUser
	}

	code, err := a.otp()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	// microseconds are the finest precision the store keeps
	issuedAt := a.now().UTC().Truncate(time.Microsecond)
	if err := a.store.UpsertOTP(ctx, username, code, issuedAt); err != nil {
		return err
	}

	subject, body, err := notify.RenderOTPEmail(username, code, a.opts.OTPTTL)
	if err != nil {
		return fmt.Errorf("failed to render otp email: %w", err)
	}
	if err := a.notifier.Send(ctx, account.Email, subject, body); err != nil {
		a.logger.WithContext("username", username).Error("otp email failed: %v", err)
		return fmt.Errorf("%w: %v", ErrSendFailure, err)
	}

	a.logger.WithContext("username", username).Info("otp issued")
	return nil
}

// VerifyOTP reports whether code is the live code for username and younger
// than the configured lifetime.
func (a *Authenticator) VerifyOTP(ctx context.Context, username, code string) bool {
	if username == "" || code == "" {
		return false
	}
	rec, err := a.store.GetOTP(ctx, username)
	if err != nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return false
	}
	return a.now().Sub(rec.IssuedAt) < a.opts.OTPTTL
}

// ResetPassword replaces the password when the code verifies. The code
// stays valid until it expires unless ConsumeOTPOnReset is set.
func (a *Authenticator) ResetPassword(ctx context.Context, username, code, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrValidation)
	}
	if !a.VerifyOTP(ctx, username, code) {
		return ErrInvalidOTP
	}

	hash, err := hashPassword(newPassword, a.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := a.store.UpdatePasswordHash(ctx, username, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	if a.opts.ConsumeOTPOnReset {
		if err := a.store.DeleteOTP(ctx, username); err != nil {
			a.logger.WithContext("username", username).Warn("failed to consume otp: %v", err)
		}
	}

	a.logger.WithContext("username", username).Info("password reset")
	return nil
}
