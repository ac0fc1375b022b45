package auth

import (
	"context"
	"errors"
	"fmt"

	"movieclub-api/internal/domain"
	"movieclub-api/internal/repository"
)

// Kind names a strategy variant. The set is closed: KindLocal and KindJWT.
type Kind string

const (
	KindLocal Kind = "local"
	KindJWT   Kind = "jwt"
)

// Credentials is what a request presents to a strategy.
// Local uses Username and Password, JWT uses Token.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Strategy authenticates a request's credentials into an identity.
type Strategy interface {
	Kind() Kind
	Authenticate(ctx context.Context, creds Credentials) (*domain.User, error)
}

// UserLookup is the slice of the credential store the local strategy needs.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// LocalStrategy verifies a username/password pair against the credential store.
type LocalStrategy struct {
	users  UserLookup
	hasher *Hasher
}

func NewLocalStrategy(users UserLookup, hasher *Hasher) *LocalStrategy {
	return &LocalStrategy{users: users, hasher: hasher}
}

func (s *LocalStrategy) Kind() Kind { return KindLocal }

// Authenticate returns the redacted identity, ErrNotFound for an unknown username,
// or ErrInvalidCredentials for a wrong password.
func (s *LocalStrategy) Authenticate(ctx context.Context, creds Credentials) (*domain.User, error) {
	if creds.Username == "" {
		return nil, ErrNotFound
	}

	user, err := s.users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if creds.Password == "" || !s.hasher.Verify(creds.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user.Redacted(), nil
}

// JWTStrategy verifies a bearer token without touching the store.
type JWTStrategy struct {
	verifier *TokenVerifier
}

func NewJWTStrategy(verifier *TokenVerifier) *JWTStrategy {
	return &JWTStrategy{verifier: verifier}
}

func (s *JWTStrategy) Kind() Kind { return KindJWT }

func (s *JWTStrategy) Authenticate(_ context.Context, creds Credentials) (*domain.User, error) {
	return s.verifier.Verify(creds.Token)
}

var (
	_ Strategy = (*LocalStrategy)(nil)
	_ Strategy = (*JWTStrategy)(nil)
)
