package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"golang.org/x/oauth2"

	"github.com/curaious/taskboard/internal/api/authenticator"
	"github.com/curaious/taskboard/internal/perrors"
	"github.com/curaious/taskboard/internal/services"
	user2 "github.com/curaious/taskboard/internal/services/user"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
}

type DeactivateRequest struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

func toUserResponse(u *user2.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     string(u.Role),
		IsActive: u.IsActive,
	}
}

func setTokenCookie(ctx *fasthttp.RequestCtx, token string, expiresAt time.Time) {
	var cookie fasthttp.Cookie
	cookie.SetKey("access_token")
	cookie.SetValue(token)
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetSecure(ctx.IsTLS())
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	cookie.SetExpire(expiresAt)
	ctx.Response.Header.SetCookie(&cookie)
}

func clearTokenCookie(ctx *fasthttp.RequestCtx) {
	var cookie fasthttp.Cookie
	cookie.SetKey("access_token")
	cookie.SetValue("")
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetExpire(time.Now().Add(-1 * time.Hour))
	ctx.Response.Header.SetCookie(&cookie)
}

// issueToken writes the token to the body and the cookie. It is never
// copied into a response header.
func issueToken(ctx *fasthttp.RequestCtx, auth *authenticator.Authenticator, u *user2.User) {
	stdCtx := requestContext(ctx)

	token, expiresAt, err := auth.GenerateToken(u.ID, u.Email, u.Name)
	if err != nil {
		writeError(ctx, stdCtx, "Failed to generate token", err)
		return
	}

	setTokenCookie(ctx, token, expiresAt)
	writeOK(ctx, stdCtx, "success", LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserResponse(u),
	})
}

func RegisterAuthRoutes(r *router.Router, svc *services.Services, auth *authenticator.Authenticator) {
	r.GET("/api/auth/enabled", func(ctx *fasthttp.RequestCtx) {
		writeOK(ctx, requestContext(ctx), "success", map[string]any{
			"sso_enabled": auth.SSOEnabled(),
		})
	})

	r.POST("/api/auth/register", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var req user2.RegisterRequest
		if err := parseBody(ctx, &req); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		u, err := svc.User.Register(stdCtx, &req)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to register", err)
			return
		}

		issueToken(ctx, auth, u)
	})

	// Login with email/password
	r.POST("/api/auth/login", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var req LoginRequest
		if err := parseBody(ctx, &req); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		if req.Email == "" || req.Password == "" {
			writeError(ctx, stdCtx, "Email and password are required", perrors.NewErrInvalidRequest("Email and password are required", errors.New("missing credentials")))
			return
		}

		u, err := svc.User.Authenticate(stdCtx, req.Email, req.Password)
		if err != nil {
			writeError(ctx, stdCtx, "Invalid credentials", err)
			return
		}

		issueToken(ctx, auth, u)
	})

	// Get current user info
	r.GET("/api/auth/me", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, err := callerID(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		u, err := svc.User.GetActive(stdCtx, caller)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get user", err)
			return
		}

		writeOK(ctx, stdCtx, "success", toUserResponse(u))
	})

	r.POST("/api/auth/logout", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		clearTokenCookie(ctx)
		writeOK(ctx, stdCtx, "Logged out successfully", nil)
	})

	r.POST("/api/auth/password", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, err := callerID(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		var req user2.ChangePasswordRequest
		if err := parseBody(ctx, &req); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		if err := svc.User.ChangePassword(stdCtx, caller, &req); err != nil {
			writeError(ctx, stdCtx, "Failed to change password", err)
			return
		}

		writeOK(ctx, stdCtx, "Password changed successfully", nil)
	})

	// Deactivate the caller, or another identity when the caller is a global admin
	r.POST("/api/auth/deactivate", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, err := callerID(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		var req DeactivateRequest
		if len(ctx.PostBody()) > 0 {
			if err := parseBody(ctx, &req); err != nil {
				writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
				return
			}
		}
		target := caller
		if req.UserID != nil {
			target = *req.UserID
		}

		if err := svc.User.Deactivate(stdCtx, caller, target); err != nil {
			writeError(ctx, stdCtx, "Failed to deactivate user", err)
			return
		}
		if target == caller {
			clearTokenCookie(ctx)
		}

		writeOK(ctx, stdCtx, "User deactivated successfully", nil)
	})

	r.GET("/api/auth/sso/login", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		if !auth.SSOEnabled() {
			writeError(ctx, stdCtx, "Single sign-on is not configured", perrors.NewErrNotFound("Single sign-on is not configured", authenticator.ErrSSODisabled))
			return
		}

		csrf := make([]byte, 16)
		if _, err := rand.Read(csrf); err != nil {
			writeError(ctx, stdCtx, "Failed to create state", err)
			return
		}

		state := authenticator.OAuthState{
			CSRF:      base64.RawURLEncoding.EncodeToString(csrf),
			Redirect:  svc.SSORedirectURL,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
		}

		encodedState, err := auth.GetSignedState(state)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create signed state", err)
			return
		}

		url := auth.AuthCodeURL(encodedState, oauth2.SetAuthURLParam("audience", auth.Audience()))
		ctx.Redirect(url, fasthttp.StatusTemporaryRedirect)
	})

	r.GET("/api/auth/sso/callback", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		encodedState := ctx.URI().QueryArgs().Peek("state")
		code := ctx.URI().QueryArgs().Peek("code")

		if encodedState == nil || code == nil {
			writeError(ctx, stdCtx, "Missing parameters", perrors.NewErrInvalidRequest("Missing parameters", errors.New("missing state or code")))
			return
		}

		state, err := auth.VerifySignedState(string(encodedState))
		if err != nil {
			writeError(ctx, stdCtx, "Failed to decode state", perrors.NewErrInvalidRequest("Failed to decode state", err))
			return
		}

		token, err := auth.Exchange(stdCtx, string(code))
		if err != nil {
			writeError(ctx, stdCtx, "Failed to exchange token", perrors.New(perrors.ErrCodeUnauthorized, "Failed to exchange token", err))
			return
		}

		profile, err := auth.VerifyIDToken(stdCtx, token)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to verify ID token", perrors.New(perrors.ErrCodeUnauthorized, "Failed to verify ID token", err))
			return
		}
		// Identities are linked by email, so it has to be verified upstream.
		if !profile.EmailVerified {
			writeError(ctx, stdCtx, "Email is not verified", perrors.New(perrors.ErrCodeUnauthorized, "Email is not verified", errors.New("unverified email")))
			return
		}

		u, err := svc.User.GetByEmail(stdCtx, profile.Email)
		if errors.Is(err, user2.ErrUserNotFound) {
			u, err = svc.User.RegisterExternal(stdCtx, strings.TrimSpace(profile.Name), profile.Email)
		}
		if err != nil {
			writeError(ctx, stdCtx, "Failed to resolve user", err)
			return
		}
		if !u.IsActive {
			writeError(ctx, stdCtx, "Invalid credentials", user2.ErrUserInactive)
			return
		}

		localToken, expiresAt, err := auth.GenerateToken(u.ID, u.Email, u.Name)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to generate token", err)
			return
		}
		setTokenCookie(ctx, localToken, expiresAt)

		ctx.Redirect(state.Redirect, fasthttp.StatusFound)
	})
}
