package core

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/checkin/internal/logging"
)

type contextKey string

const (
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "client_ua"
)

// ContextWithIPAddress records the client IP for mutation logs.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent records the client User-Agent for mutation logs.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// IPAddressFromContext returns the recorded client IP, or "".
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext returns the recorded User-Agent, or "".
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// opLogger returns a logger for a data-changing operation, tagged with the
// request id and whatever client metadata the web layer recorded.
func opLogger(ctx context.Context, op string, args ...any) *slog.Logger {
	logger := logging.WithFields(ctx, "op", op)
	if ip := IPAddressFromContext(ctx); ip != "" {
		logger = logger.With("ip", ip)
	}
	if ua := UserAgentFromContext(ctx); ua != "" {
		logger = logger.With("user_agent", ua)
	}
	return logger.With(args...)
}
