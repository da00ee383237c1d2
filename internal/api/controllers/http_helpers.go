package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/curaious/taskboard/internal/api/authenticator"
	"github.com/curaious/taskboard/internal/api/response"
	"github.com/curaious/taskboard/internal/perrors"
)

var errNoClaims = errors.New("no user claims")

// requestContext returns the context carrying the extracted trace parent.
// fasthttp does not provide a standard context, so it falls back to Background.
func requestContext(ctx *fasthttp.RequestCtx) context.Context {
	if traceCtx, ok := ctx.UserValue("traceCtx").(context.Context); ok {
		return traceCtx
	}
	return context.Background()
}

// callerID returns the identity the auth middleware resolved.
func callerID(ctx *fasthttp.RequestCtx) (uuid.UUID, error) {
	claims, ok := ctx.UserValue("userClaims").(*authenticator.UserClaims)
	if !ok || claims == nil {
		return uuid.Nil, perrors.New(perrors.ErrCodeUnauthorized, "Unauthorized", errNoClaims)
	}
	return claims.UserID, nil
}

func parseBody(ctx *fasthttp.RequestCtx, target any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return errors.New("request body is empty")
	}

	return json.Unmarshal(body, target)
}

// writeError translates domain errors before writing the envelope.
func writeError(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, err error) {
	response.NewResponse[any](stdCtx, message, nil).WithError(toPerror(message, err)).Write(ctx)
}

func writeOK(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, data any) {
	response.NewResponse(stdCtx, message, data).Write(ctx)
}

func pathParam(ctx *fasthttp.RequestCtx, key string) (string, error) {
	val := ctx.UserValue(key)
	if val == nil {
		return "", fmt.Errorf("%s is required", key)
	}

	return fmt.Sprint(val), nil
}

func pathParamUUID(ctx *fasthttp.RequestCtx, key string) (uuid.UUID, error) {
	val, err := pathParam(ctx, key)
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(val)
}

func queryInt(ctx *fasthttp.RequestCtx, key string, fallback int) int {
	raw := ctx.QueryArgs().Peek(key)
	if len(raw) == 0 {
		return fallback
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return fallback
	}
	return n
}

// callerAndParam resolves the caller and a UUID path parameter together,
// returning an error that is ready to be written.
func callerAndParam(ctx *fasthttp.RequestCtx, key string) (uuid.UUID, uuid.UUID, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := pathParamUUID(ctx, key)
	if err != nil {
		return uuid.Nil, uuid.Nil, perrors.NewErrInvalidRequest("Invalid ID format", err)
	}
	return caller, id, nil
}

func invalidBody(err error) error {
	return perrors.NewErrInvalidRequest("Invalid request body", err)
}
