// Package auth protects the write endpoints with HS256 JWT bearer tokens.
//
// Tokens carry the standard sub/iat/exp claims plus a role claim. The API
// accepts RoleIngest and RoleAdmin on POST /ingest; read endpoints stay public.
package auth

import (
	"errors"
	"os"

	"itnews-radar/internal/pkg/config"
)

// Roles understood by the API.
const (
	RoleAdmin  = "admin"
	RoleIngest = "ingest"
)

// MinSecretLength is the shortest accepted HMAC secret in bytes.
const MinSecretLength = 32

var (
	ErrWeakSecret   = errors.New("JWT_SECRET must be at least 32 bytes")
	ErrUnknownRole  = errors.New("role must be admin or ingest")
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Config controls token verification.
type Config struct {
	Enabled bool
	// Secret signs and verifies tokens and must never be logged.
	Secret []byte
}

// LoadConfig reads AUTH_ENABLED (default false) and JWT_SECRET. Unlike the
// other settings there is no fallback: enabling auth with a weak secret is an
// error so the API refuses to start.
func LoadConfig(tr *config.Tracker) (Config, error) {
	cfg := Config{
		Enabled: config.Track(tr, "auth_enabled", config.LoadEnvBool("AUTH_ENABLED", false)),
		Secret:  []byte(os.Getenv("JWT_SECRET")),
	}
	return cfg, cfg.Validate()
}

// Validate checks the secret when auth is enabled.
func (c Config) Validate() error {
	if c.Enabled && len(c.Secret) < MinSecretLength {
		return ErrWeakSecret
	}
	return nil
}

func knownRole(role string) bool {
	return role == RoleAdmin || role == RoleIngest
}
