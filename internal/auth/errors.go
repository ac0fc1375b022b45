package auth

import "errors"

var (
	// ErrNotFound indicates that no identity has the given username.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates that the password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMalformedToken indicates a token that cannot be decoded or lacks required claims.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature indicates a token whose signature does not verify.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired indicates a token presented at or after its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrUnauthorized indicates a request without a verified identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a verified identity acting on a resource it does not own.
	ErrForbidden = errors.New("forbidden")
)

// IsTokenError reports whether err is one of the token verification failures.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrTokenExpired)
}
