package authenticator

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/bytedance/sonic"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/curaious/taskboard/internal/config"
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is required")
	ErrSSODisabled   = errors.New("single sign-on is not configured")
	ErrInvalidToken  = errors.New("invalid access token")
)

// Authenticator issues and verifies local access tokens and, when Auth0 is
// configured, drives the SSO login flow.
type Authenticator struct {
	*oidc.Provider
	oauth2.Config

	httpClient  *http.Client
	secret      []byte
	stateSecret string
	issuer      string
	audience    string
	tokenTTL    time.Duration
	ssoEnabled  bool
	validator   *validator.Validator
}

func New(conf *config.Config) (*Authenticator, error) {
	if conf.JWT_SECRET == "" {
		return nil, ErrMissingSecret
	}

	a := &Authenticator{
		httpClient:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport), Timeout: 30 * time.Second},
		secret:      []byte(conf.JWT_SECRET),
		stateSecret: conf.STATE_SECRET,
		issuer:      conf.JWT_ISSUER,
		audience:    conf.JWT_AUDIENCE,
		tokenTTL:    conf.TOKEN_TTL,
	}
	if a.stateSecret == "" {
		a.stateSecret = conf.JWT_SECRET
	}

	v, err := validator.New(
		a.keyFunc,
		validator.HS256,
		a.issuer,
		[]string{a.audience},
		validator.WithCustomClaims(func() validator.CustomClaims { return &CustomClaims{} }),
		validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
		return nil, err
	}
	a.validator = v

	if conf.AUTH0_DOMAIN == "" {
		return a, nil
	}

	provider, err := oidc.NewProvider(a.clientContext(context.Background()), "https://"+conf.AUTH0_DOMAIN+"/")
	if err != nil {
		return nil, err
	}

	a.Provider = provider
	a.Config = oauth2.Config{
		ClientID:     conf.AUTH0_CLIENT_ID,
		ClientSecret: conf.AUTH0_CLIENT_SECRET,
		RedirectURL:  conf.AUTH0_CALLBACK_URL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	a.ssoEnabled = true

	return a, nil
}

func (a *Authenticator) SSOEnabled() bool {
	return a.ssoEnabled
}

func (a *Authenticator) Audience() string {
	return a.audience
}

func (a *Authenticator) keyFunc(context.Context) (interface{}, error) {
	return a.secret, nil
}

// clientContext routes oidc and oauth2 traffic through the traced client.
func (a *Authenticator) clientContext(ctx context.Context) context.Context {
	ctx = oidc.ClientContext(ctx, a.httpClient)
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

// CustomClaims are the non-registered claims carried by local access tokens.
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (c *CustomClaims) Validate(context.Context) error {
	if c.Email == "" {
		return errors.New("token has no email claim")
	}
	return nil
}

// UserClaims identify the caller of a request.
type UserClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenClaims struct {
	CustomClaims
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 access token for the identity.
func (a *Authenticator) GenerateToken(userID uuid.UUID, email, name string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		CustomClaims: CustomClaims{Email: email, Name: name},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{a.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyAccessToken checks signature, issuer, audience and expiry.
func (a *Authenticator) VerifyAccessToken(ctx context.Context, token string) (*UserClaims, error) {
	payload, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	validated, ok := payload.(*validator.ValidatedClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	custom, ok := validated.CustomClaims.(*CustomClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(validated.RegisteredClaims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &UserClaims{
		UserID:    userID,
		Email:     custom.Email,
		Name:      custom.Name,
		ExpiresAt: time.Unix(validated.RegisteredClaims.Expiry, 0),
	}, nil
}

// Exchange trades an authorization code for tokens over the traced client.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if !a.ssoEnabled {
		return nil, ErrSSODisabled
	}
	return a.Config.Exchange(a.clientContext(ctx), code)
}

// IdentityClaims are the profile claims read from a verified ID token.
type IdentityClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// VerifyIDToken verifies that an *oauth2.Token carries a valid ID token and
// returns its profile claims.
func (a *Authenticator) VerifyIDToken(ctx context.Context, token *oauth2.Token) (*IdentityClaims, error) {
	if !a.ssoEnabled {
		return nil, ErrSSODisabled
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no id_token field in oauth2 token")
	}

	oidcConfig := &oidc.Config{
		ClientID: a.ClientID,
	}

	idToken, err := a.Verifier(oidcConfig).Verify(a.clientContext(ctx), rawIDToken)
	if err != nil {
		return nil, err
	}

	var claims IdentityClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, errors.New("id token has no email claim")
	}
	return &claims, nil
}

type OAuthState struct {
	CSRF      string `json:"csrf"`
	Redirect  string `json:"redirect"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func (a *Authenticator) GetSignedState(state OAuthState) (string, error) {
	payload, err := sonic.Marshal(state)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, []byte(a.stateSecret))
	mac.Write(payload)
	sig := mac.Sum(nil)

	combined := append(payload, sig...)
	return base64.URLEncoding.EncodeToString(combined), nil
}

func (a *Authenticator) VerifySignedState(encodedState string) (*OAuthState, error) {
	raw, err := base64.URLEncoding.DecodeString(encodedState)
	if err != nil {
		return nil, errors.New("invalid base64")
	}

	if len(raw) < sha256.Size {
		return nil, errors.New("state too short")
	}

	payload := raw[:len(raw)-sha256.Size]
	sig := raw[len(raw)-sha256.Size:]

	mac := hmac.New(sha256.New, []byte(a.stateSecret))
	mac.Write(payload)
	expectedSig := mac.Sum(nil)
	if !hmac.Equal(sig, expectedSig) {
		return nil, errors.New("invalid state signature")
	}

	var state OAuthState
	if err := sonic.Unmarshal(payload, &state); err != nil {
		return nil, errors.New("invalid state payload")
	}

	if time.Now().Unix() > state.ExpiresAt {
		return nil, errors.New("state expired")
	}

	return &state, nil
}
