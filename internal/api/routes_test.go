package api

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/curaious/taskboard/internal/api/authenticator"
	"github.com/curaious/taskboard/internal/config"
)

func newTestAuth(t *testing.T) *authenticator.Authenticator {
	t.Helper()
	auth, err := authenticator.New(&config.Config{
		JWT_SECRET:   "test-secret-with-enough-entropy",
		JWT_ISSUER:   "taskboard",
		JWT_AUDIENCE: "taskboard-api",
		TOKEN_TTL:    time.Hour,
	})
	require.NoError(t, err)
	return auth
}

func newRequest(method, path string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	return ctx
}

func TestMiddleware_RejectsMissingToken(t *testing.T) {
	called := false
	h := withMiddlewares(func(ctx *fasthttp.RequestCtx) { called = true }, newTestAuth(t))

	ctx := newRequest(fasthttp.MethodGet, "/api/projects")
	h(ctx)

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"error":true`)
}

func TestMiddleware_RejectsInvalidToken(t *testing.T) {
	called := false
	h := withMiddlewares(func(ctx *fasthttp.RequestCtx) { called = true }, newTestAuth(t))

	ctx := newRequest(fasthttp.MethodGet, "/api/projects")
	ctx.Request.Header.Set("Authorization", "Bearer not-a-jwt")
	h(ctx)

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestMiddleware_AcceptsBearerAndCookie(t *testing.T) {
	auth := newTestAuth(t)
	userID := uuid.New()
	token, _, err := auth.GenerateToken(userID, "ada@example.com", "Ada")
	require.NoError(t, err)

	tests := []struct {
		name  string
		setup func(ctx *fasthttp.RequestCtx)
	}{
		{"bearer", func(ctx *fasthttp.RequestCtx) { ctx.Request.Header.Set("Authorization", "Bearer "+token) }},
		{"cookie", func(ctx *fasthttp.RequestCtx) { ctx.Request.Header.SetCookie("access_token", token) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var claims *authenticator.UserClaims
			h := withMiddlewares(func(ctx *fasthttp.RequestCtx) {
				claims, _ = ctx.UserValue("userClaims").(*authenticator.UserClaims)
			}, auth)

			ctx := newRequest(fasthttp.MethodGet, "/api/projects")
			tt.setup(ctx)
			h(ctx)

			require.NotNil(t, claims)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}

func TestMiddleware_PublicRoutesSkipAuth(t *testing.T) {
	for _, path := range []string{"/api/health", "/api/auth/login", "/api/auth/register", "/api/auth/sso/callback"} {
		t.Run(path, func(t *testing.T) {
			called := false
			h := withMiddlewares(func(ctx *fasthttp.RequestCtx) { called = true }, newTestAuth(t))

			h(newRequest(fasthttp.MethodPost, path))

			assert.True(t, called)
		})
	}
}

func TestMiddleware_Preflight(t *testing.T) {
	called := false
	h := withMiddlewares(func(ctx *fasthttp.RequestCtx) { called = true }, newTestAuth(t))

	ctx := newRequest(fasthttp.MethodOptions, "/api/projects")
	ctx.Request.Header.Set("Origin", "http://localhost:3000")
	h(ctx)

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	assert.Equal(t, "http://localhost:3000", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
}
