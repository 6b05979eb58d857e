package auth

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strings"
)

// generateSecureToken returns length random bytes, URL-safe base64 encoded
func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

const otpDigits = 6

// generateOTP returns a uniformly random six digit code, leading zeros allowed
func generateOTP() (string, error) {
	var sb strings.Builder
	for i := 0; i < otpDigits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}
