package context

import (
	"context"
	"strings"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorKey
)

type actor struct {
	role string
	id   string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithActor records the authenticated caller's role and account id.
func WithActor(ctx context.Context, role, id string) context.Context {
	return context.WithValue(ctx, actorKey, actor{
		role: strings.TrimSpace(role),
		id:   strings.TrimSpace(id),
	})
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	a, ok := ctx.Value(actorKey).(actor)
	if !ok {
		return "", ""
	}
	return a.role, a.id
}
