package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestVerify_RoundTrip(t *testing.T) {
	now := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)
	v := NewHMACVerifier("dev-secret")
	v.now = func() time.Time { return now }

	token := Sign("dev-secret", "user-42", now.Add(time.Hour))
	uid, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user-42" {
		t.Fatalf("uid=%q", uid)
	}
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)
	v := NewHMACVerifier("dev-secret")
	v.now = func() time.Time { return now }

	token := Sign("dev-secret", "user-42", now.Add(-time.Minute))
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err=%v, want ErrTokenExpired", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	v := NewHMACVerifier("dev-secret")
	token := Sign("other-secret", "user-42", time.Now().Add(time.Hour))
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err=%v, want ErrBadSignature", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	v := NewHMACVerifier("dev-secret")
	for _, tok := range []string{"", "abc", "a.b", "!!.123.00"} {
		if _, err := v.Verify(context.Background(), tok); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("token %q: err=%v, want ErrMalformedToken", tok, err)
		}
	}
}
