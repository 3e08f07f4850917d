package auth

import "context"

type principalKey struct{}

// Principal is the account a request acts for, taken from its session.
type Principal struct {
	UserID    int64
	Email     string
	FirstName string
	// Session is the token of the session that authenticated the request.
	Session string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the request's principal. ok is false for anonymous
// requests.
func PrincipalFrom(ctx context.Context) (p Principal, ok bool) {
	p, ok = ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID > 0
}

// UserID returns the logged-in user's id, or 0.
func UserID(ctx context.Context) int64 {
	p, _ := PrincipalFrom(ctx)
	return p.UserID
}
