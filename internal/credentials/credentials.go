// Package credentials loads the service-account bundle used to authorize
// calls to the productivity providers and mints scoped bearer tokens from it.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Scopes is the fixed permission set granted to every provider client.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/documents",
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive.file",
}

// ServiceAccount is the parsed service-account JSON bundle.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// Provider supplies the service-account bundle. Implementations load lazily,
// once per invocation scope, so rotated secrets are picked up without a
// process restart.
type Provider interface {
	Value(ctx context.Context) (ServiceAccount, error)
}

// FileProvider reads the bundle from a JSON file on each call.
type FileProvider struct {
	Path string
}

func (p FileProvider) Value(_ context.Context) (ServiceAccount, error) {
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		return ServiceAccount{}, fmt.Errorf("read credentials file: %w", err)
	}
	return parse(raw)
}

// EnvProvider reads the bundle from an environment variable on each call.
type EnvProvider struct {
	Key string
}

func (p EnvProvider) Value(_ context.Context) (ServiceAccount, error) {
	raw := os.Getenv(p.Key)
	if raw == "" {
		return ServiceAccount{}, fmt.Errorf("environment variable %s is empty", p.Key)
	}
	return parse([]byte(raw))
}

// StaticProvider returns a fixed bundle, used by tests.
type StaticProvider struct {
	Account ServiceAccount
}

func (p StaticProvider) Value(_ context.Context) (ServiceAccount, error) {
	return p.Account, nil
}

func parse(raw []byte) (ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("parse service account json: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return ServiceAccount{}, errors.New("service account json missing client_email or private_key")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = "https://oauth2.googleapis.com/token"
	}
	return sa, nil
}
