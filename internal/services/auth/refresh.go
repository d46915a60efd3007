package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	refreshTokenBytes = 32
	sessionIDBytes    = 20
)

func randomHex(byteLen int) (string, error) {
	if byteLen <= 0 {
		return "", fmt.Errorf("invalid token size")
	}

	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// NewRefreshToken mints the opaque token a session hands back to rotate
// its access credentials.
func NewRefreshToken() (string, error) {
	return randomHex(refreshTokenBytes)
}

func NewSessionID() (string, error) {
	return randomHex(sessionIDBytes)
}
