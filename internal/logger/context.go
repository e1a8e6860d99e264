package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
	tenantIDKey  contextKey = "tenant_id"
	partnerIDKey contextKey = "partner_id"
)

// WithRequestID добавляет request ID в context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithUserID добавляет user ID в context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// WithTenantID добавляет tenant ID в context
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// WithPartnerID добавляет partner ID в context
func WithPartnerID(ctx context.Context, partnerID string) context.Context {
	return context.WithValue(ctx, partnerIDKey, partnerID)
}

// GetRequestID извлекает request ID из context
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// GetUserID извлекает user ID из context
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, userIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// FromContext создает логгер с полями из context:
// request_id, user_id, tenant_id, partner_id (если есть)
func FromContext(ctx context.Context) *slog.Logger {
	l := GetLogger()

	var fields []any
	for _, key := range []contextKey{requestIDKey, userIDKey, tenantIDKey, partnerIDKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}

	if len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}

func CtxDebug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

func CtxInfo(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

func CtxWarn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

func CtxError(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}

// CtxWithError логирует error с error объектом
func CtxWithError(ctx context.Context, msg string, err error, args ...any) {
	fields := append([]any{"error", err.Error()}, args...)
	FromContext(ctx).Error(msg, fields...)
}

