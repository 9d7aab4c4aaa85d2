package context

import (
	stdcontext "context"
	"strings"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorTypeKey
	actorIDKey
	staffRoleKey
)

func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	return stdcontext.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

func WithActor(ctx stdcontext.Context, actorType, actorID string) stdcontext.Context {
	ctx = stdcontext.WithValue(ctx, actorTypeKey, strings.TrimSpace(actorType))
	return stdcontext.WithValue(ctx, actorIDKey, strings.TrimSpace(actorID))
}

func ActorFromContext(ctx stdcontext.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	actorType, _ := ctx.Value(actorTypeKey).(string)
	actorID, _ := ctx.Value(actorIDKey).(string)
	return actorType, actorID
}

// WithStaffRole records the authenticated staff member's role for log and
// span enrichment.
func WithStaffRole(ctx stdcontext.Context, role string) stdcontext.Context {
	return stdcontext.WithValue(ctx, staffRoleKey, strings.TrimSpace(role))
}

func StaffRoleFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	role, _ := ctx.Value(staffRoleKey).(string)
	return role
}
