package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itnews-radar/internal/pkg/config"
)

func TestIssueToken_RoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := IssueToken(testSecret, "ci-bot", RoleIngest, time.Hour, now)
	require.NoError(t, err)

	claims, err := parseBearer("Bearer "+tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "ci-bot", claims.Subject)
	assert.Equal(t, RoleIngest, claims.Role)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssueToken_Errors(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		secret  []byte
		subject string
		role    string
		ttl     time.Duration
		wantErr error
	}{
		{"short secret", []byte("short"), "a", RoleIngest, time.Hour, ErrWeakSecret},
		{"unknown role", testSecret, "a", "reader", time.Hour, ErrUnknownRole},
		{"empty subject", testSecret, "", RoleIngest, time.Hour, nil},
		{"zero ttl", testSecret, "a", RoleIngest, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IssueToken(tt.secret, tt.subject, tt.role, tt.ttl, now)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		enabled     string
		secret      string
		wantEnabled bool
		wantErr     bool
	}{
		{"disabled by default", "", "", false, false},
		{"enabled with strong secret", "true", string(testSecret), true, false},
		{"enabled with weak secret", "true", "short", true, true},
		{"disabled ignores weak secret", "false", "short", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_ENABLED", tt.enabled)
			t.Setenv("JWT_SECRET", tt.secret)

			cfg, err := LoadConfig(config.NewTracker(nil, nil))
			assert.Equal(t, tt.wantEnabled, cfg.Enabled)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakSecret)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
