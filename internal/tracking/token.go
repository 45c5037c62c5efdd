package tracking

import (
	"crypto/rand"
	"encoding/base64"
)

const tokenBytes = 24

// NewToken returns an unguessable URL-safe join token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
