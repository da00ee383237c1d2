package authenticator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/taskboard/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT_SECRET:   "test-secret-with-enough-entropy-000",
		JWT_ISSUER:   "taskboard",
		JWT_AUDIENCE: "taskboard-api",
		TOKEN_TTL:    time.Hour,
		STATE_SECRET: "state-secret",
	}
}

func newTestAuthenticator(t *testing.T, mutate func(*config.Config)) *Authenticator {
	t.Helper()
	conf := testConfig()
	if mutate != nil {
		mutate(conf)
	}
	a, err := New(conf)
	require.NoError(t, err)
	return a
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(&config.Config{JWT_ISSUER: "taskboard", JWT_AUDIENCE: "taskboard-api"})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNew_SSODisabledWithoutDomain(t *testing.T) {
	a := newTestAuthenticator(t, nil)
	assert.False(t, a.SSOEnabled())

	_, err := a.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, ErrSSODisabled)
}

func TestGenerateAndVerifyToken(t *testing.T) {
	a := newTestAuthenticator(t, nil)
	userID := uuid.New()

	token, expiresAt, err := a.GenerateToken(userID, "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := a.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada", claims.Name)
}

func TestVerifyAccessToken_Rejects(t *testing.T) {
	a := newTestAuthenticator(t, nil)
	ctx := context.Background()

	valid, _, err := a.GenerateToken(uuid.New(), "ada@example.com", "Ada")
	require.NoError(t, err)

	expired, _, err := newTestAuthenticator(t, func(c *config.Config) { c.TOKEN_TTL = -time.Hour }).
		GenerateToken(uuid.New(), "ada@example.com", "Ada")
	require.NoError(t, err)

	otherSecret, _, err := newTestAuthenticator(t, func(c *config.Config) { c.JWT_SECRET = "another-secret-entirely-000000000" }).
		GenerateToken(uuid.New(), "ada@example.com", "Ada")
	require.NoError(t, err)

	otherAudience, _, err := newTestAuthenticator(t, func(c *config.Config) { c.JWT_AUDIENCE = "someone-else" }).
		GenerateToken(uuid.New(), "ada@example.com", "Ada")
	require.NoError(t, err)

	noEmail, _, err := a.GenerateToken(uuid.New(), "", "Ada")
	require.NoError(t, err)

	tampered := []byte(valid)
	if tampered[len(tampered)-2] == 'A' {
		tampered[len(tampered)-2] = 'B'
	} else {
		tampered[len(tampered)-2] = 'A'
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"tampered signature", string(tampered)},
		{"expired", expired},
		{"other secret", otherSecret},
		{"other audience", otherAudience},
		{"missing email", noEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.VerifyAccessToken(ctx, tt.token)
			assert.Error(t, err)
		})
	}
}

func TestSignedState(t *testing.T) {
	a := newTestAuthenticator(t, nil)

	state := OAuthState{
		CSRF:      "csrf-value",
		Redirect:  "/projects",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
	}
	signed, err := a.GetSignedState(state)
	require.NoError(t, err)

	got, err := a.VerifySignedState(signed)
	require.NoError(t, err)
	assert.Equal(t, state, *got)

	other := newTestAuthenticator(t, func(c *config.Config) { c.STATE_SECRET = "different" })
	_, err = other.VerifySignedState(signed)
	assert.Error(t, err)

	state.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	stale, err := a.GetSignedState(state)
	require.NoError(t, err)
	_, err = a.VerifySignedState(stale)
	assert.Error(t, err)
}
