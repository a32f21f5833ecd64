// Package auth verifies caller identity tokens on the direct invocation
// endpoints. Tokens are HMAC-signed "<uid>.<expiry>.<signature>" strings
// issued by the approval frontend with the shared secret.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
	ErrBadSignature   = errors.New("invalid token signature")
)

// Verifier checks a bearer token and returns the caller's uid.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// HMACVerifier validates tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewHMACVerifier builds a verifier for the given secret.
func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), now: time.Now}
}

// Verify parses, checks expiry, and constant-time compares the signature.
func (v *HMACVerifier) Verify(_ context.Context, token string) (string, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return "", ErrMalformedToken
	}

	uidRaw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(uidRaw) == 0 {
		return "", ErrMalformedToken
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", ErrMalformedToken
	}
	if time.Unix(expUnix, 0).Before(v.now()) {
		return "", ErrTokenExpired
	}

	provided, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrBadSignature
	}
	expected := signature(v.secret, parts[0], parts[1])
	if !hmac.Equal(provided, expected) {
		return "", ErrBadSignature
	}
	return string(uidRaw), nil
}

// Sign issues a token for uid valid until expires. Helper for tests/tools.
func Sign(secret, uid string, expires time.Time) string {
	uidPart := base64.RawURLEncoding.EncodeToString([]byte(uid))
	expPart := strconv.FormatInt(expires.Unix(), 10)
	sig := signature([]byte(secret), uidPart, expPart)
	return uidPart + "." + expPart + "." + hex.EncodeToString(sig)
}

func signature(secret []byte, uidPart, expPart string) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(uidPart + "." + expPart))
	return mac.Sum(nil)
}
