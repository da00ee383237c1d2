package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/propagation"

	"github.com/curaious/taskboard/internal/api/authenticator"
	"github.com/curaious/taskboard/internal/api/controllers"
	"github.com/curaious/taskboard/internal/api/response"
	"github.com/curaious/taskboard/internal/perrors"
)

var tracePropagator = propagation.TraceContext{}

var errMissingToken = errors.New("missing access token")

func (s *Server) initRoutes() fasthttp.RequestHandler {
	r := router.New()

	r.GET("/api/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		_, _ = ctx.Write([]byte("OK"))
	})

	controllers.RegisterAuthRoutes(r, s.services, s.auth)
	controllers.RegisterProjectRoutes(r, s.services)
	controllers.RegisterBoardRoutes(r, s.services)
	controllers.RegisterTaskRoutes(r, s.services)

	return withMiddlewares(r.Handler, s.auth)
}

func withMiddlewares(next fasthttp.RequestHandler, auth *authenticator.Authenticator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		applyCORS(ctx)
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		start := time.Now()
		uri := ctx.URI()
		requestURI := string(uri.FullURI())
		slog.Info("Started processing", slog.String("method", string(ctx.Method())), slog.String("request_uri", requestURI))

		h := http.Header{}
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			h[string(k)] = []string{string(v)}
		})
		traceCtx := tracePropagator.Extract(ctx, propagation.HeaderCarrier(h))
		ctx.SetUserValue("traceCtx", traceCtx)

		// Auth check
		if !isPublicRoute(ctx) {
			accessToken := bearerToken(ctx)
			if accessToken == "" {
				unauthorized(ctx, traceCtx, errMissingToken)
				return
			}

			claims, err := auth.VerifyAccessToken(traceCtx, accessToken)
			if err != nil {
				unauthorized(ctx, traceCtx, err)
				return
			}

			// Store user claims in context for downstream handlers
			ctx.SetUserValue("userClaims", claims)
		}

		next(ctx)

		slog.Info("Finished processing", slog.String("method", string(ctx.Method())), slog.String("request_uri", requestURI), slog.Int("status", ctx.Response.StatusCode()), slog.Duration("duration", time.Since(start)))
	}
}

// bearerToken reads the Authorization header, falling back to the access_token cookie.
func bearerToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return token
	}
	return string(ctx.Request.Header.Cookie("access_token"))
}

func unauthorized(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	response.NewResponse[any](stdCtx, "Unauthorized", nil).
		WithError(perrors.New(perrors.ErrCodeUnauthorized, "Unauthorized", err)).
		Write(ctx)
}

func applyCORS(ctx *fasthttp.RequestCtx) {
	headers := &ctx.Response.Header
	headers.Set("Access-Control-Allow-Origin", string(ctx.Request.Header.Peek("Origin")))
	headers.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS,PATCH")
	headers.Set("Access-Control-Allow-Headers", os.Getenv("ALLOWED_HEADERS"))
	headers.Set("Access-Control-Allow-Credentials", "true")
}

func isPublicRoute(ctx *fasthttp.RequestCtx) bool {
	path := string(ctx.Path())

	// Public auth routes
	publicAuthRoutes := []string{
		"/api/auth/register",
		"/api/auth/login",
		"/api/auth/enabled",
		"/api/auth/sso/login",
		"/api/auth/sso/callback",
	}

	switch {
	case path == "/api/health":
		return true
	default:
		for _, route := range publicAuthRoutes {
			if path == route {
				return true
			}
		}
		return false
	}
}
