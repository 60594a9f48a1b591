package utils

import (
	"context"

	"github.com/taptapmatrix/tap_backend/appctx"
)

// Alias the shared context key type so existing code keeps working.
type contextKey = appctx.ContextKey

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeyUsername      = appctx.ContextKeyUsername
	ContextKeyUserId        = appctx.ContextKeyUserId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyIsAdmin       = appctx.ContextKeyIsAdmin
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUsername)
}

func GetUserIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetIsAdminFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeyIsAdmin)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetUsernameInContext(ctx context.Context, username string) context.Context {
	return appctx.Set(ctx, ContextKeyUsername, username)
}

func SetUserIdInContext(ctx context.Context, userId string) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}
