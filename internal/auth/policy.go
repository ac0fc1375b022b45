package auth

import (
	"context"
	"fmt"
)

// Authorize checks that the identity in ctx owns the resource belonging to owner.
// It fails closed: a missing identity is ErrUnauthorized, any mismatch is ErrForbidden.
func Authorize(ctx context.Context, owner string) error {
	user, ok := IdentityFrom(ctx)
	if !ok || user.Username == "" {
		return ErrUnauthorized
	}
	if user.Username != owner {
		return fmt.Errorf("%s acting on %s: %w", user.Username, owner, ErrForbidden)
	}
	return nil
}
