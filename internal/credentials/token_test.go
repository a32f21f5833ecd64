package credentials

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testAccount(t *testing.T, tokenURI string) (ServiceAccount, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return ServiceAccount{
		Type:        "service_account",
		PrivateKey:  string(pemKey),
		ClientEmail: "svc@example.iam.gserviceaccount.com",
		TokenURI:    tokenURI,
	}, key
}

func TestTokenSource_MintsAndCaches(t *testing.T) {
	var calls int
	var assertion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != jwtGrantType {
			t.Fatalf("grant_type=%q", got)
		}
		assertion = r.Form.Get("assertion")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","expires_in":3600}`))
	}))
	defer srv.Close()

	sa, key := testAccount(t, srv.URL)
	ts := NewTokenSource(StaticProvider{Account: sa}, 2*time.Second)

	tok, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tok != "tok-123" {
		t.Fatalf("token=%q", tok)
	}

	// The assertion must be a valid RS256 JWT signed by the account key.
	parts := strings.Split(assertion, ".")
	if len(parts) != 3 {
		t.Fatalf("assertion has %d parts", len(parts))
	}
	digest := sha256.Sum256([]byte(parts[0] + "." + parts[1]))
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	if err := rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sig); err != nil {
		t.Fatalf("verify signature: %v", err)
	}

	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode claims: %v", err)
	}
	var claims struct {
		Iss   string `json:"iss"`
		Scope string `json:"scope"`
		Aud   string `json:"aud"`
	}
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		t.Fatalf("unmarshal claims: %v", err)
	}
	if claims.Iss != sa.ClientEmail || claims.Aud != srv.URL {
		t.Fatalf("claims iss=%q aud=%q", claims.Iss, claims.Aud)
	}
	if !strings.Contains(claims.Scope, "drive.file") {
		t.Fatalf("scope missing drive.file: %q", claims.Scope)
	}

	// Second call should hit the cache, not the endpoint.
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("cached token: %v", err)
	}
	if calls != 1 {
		t.Fatalf("token endpoint called %d times, want 1", calls)
	}
}

func TestParse_DefaultsTokenURI(t *testing.T) {
	sa, err := parse([]byte(`{"client_email":"a@b.c","private_key":"k"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sa.TokenURI != "https://oauth2.googleapis.com/token" {
		t.Fatalf("token_uri=%q", sa.TokenURI)
	}
}

func TestParse_RejectsIncomplete(t *testing.T) {
	if _, err := parse([]byte(`{"client_email":"a@b.c"}`)); err == nil {
		t.Fatal("expected error for missing private_key")
	}
}
