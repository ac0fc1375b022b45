package auth

import (
	"context"

	"movieclub-api/internal/domain"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the verified user.
func WithIdentity(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, identityKey{}, user)
}

// IdentityFrom returns the verified user attached by the route guard, if any.
func IdentityFrom(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(identityKey{}).(*domain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
