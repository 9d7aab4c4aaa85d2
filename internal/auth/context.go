package auth

import "context"

type ctxKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	StaffID string
	Name    string
	Role    string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
