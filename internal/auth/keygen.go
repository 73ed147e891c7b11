package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// TokenBytes is the entropy of a session token.
const TokenBytes = 32

// ErrInvalidToken indicates a signed token failed verification.
var ErrInvalidToken = errors.New("invalid token")

// GenerateToken returns a random URL-safe token.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Signer produces and checks HMAC-SHA256 signatures over cookie payloads.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer keyed by secret.
func NewSigner(secret string) *Signer {
	sum := sha256.Sum256([]byte(secret))
	return &Signer{key: sum[:]}
}

func (s *Signer) mac(payload string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Sign returns "payload.signature".
func (s *Signer) Sign(payload string) string {
	return payload + "." + s.mac(payload)
}

// Verify returns the payload of a value produced by Sign.
func (s *Signer) Verify(signed string) (string, error) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 || i == len(signed)-1 {
		return "", ErrInvalidToken
	}
	payload, sig := signed[:i], signed[i+1:]
	if !hmac.Equal([]byte(sig), []byte(s.mac(payload))) {
		return "", ErrInvalidToken
	}
	return payload, nil
}
