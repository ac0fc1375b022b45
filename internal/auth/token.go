package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"movieclub-api/internal/domain"
)

// DefaultTokenTTL is the validity window of an issued token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenConfig carries the process-wide signing secret and validity policy.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	// Now overrides the wall clock, mostly for tests.
	Now func() time.Time
}

func (c TokenConfig) normalize() (TokenConfig, error) {
	if len(c.Secret) == 0 {
		return c, errors.New("token signing secret is required")
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTokenTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c, nil
}

// Token is a signed bearer credential and the validity window baked into it.
type Token struct {
	Value     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	UserID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints HS256 tokens for authenticated users.
type TokenIssuer struct {
	cfg TokenConfig
}

func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &TokenIssuer{cfg: cfg}, nil
}

// Issue signs {sub: username, iat: now, exp: now+TTL} for user.
func (i *TokenIssuer) Issue(user *domain.User) (Token, error) {
	if user == nil || user.Username == "" {
		return Token{}, errors.New("issue token: user without username")
	}

	// NumericDate carries whole seconds only.
	issuedAt := i.cfg.Now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.cfg.TTL)

	claims := tokenClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{
		Value:     signed,
		Subject:   user.Username,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// TokenVerifier checks signature and expiry of presented tokens.
type TokenVerifier struct {
	cfg TokenConfig
}

func NewTokenVerifier(cfg TokenConfig) (*TokenVerifier, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &TokenVerifier{cfg: cfg}, nil
}

// Verify returns the claims-only identity bound to tokenString.
// The result carries ID and Username; no store lookup is made.
func (v *TokenVerifier) Verify(tokenString string) (*domain.User, error) {
	if tokenString == "" {
		return nil, ErrMalformedToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{},
		func(*jwt.Token) (any, error) {
			return v.cfg.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.cfg.Now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return nil, classifyTokenError(tokenString, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrMalformedToken
	}

	return &domain.User{
		ID:       claims.UserID,
		Username: claims.Subject,
	}, nil
}

func classifyTokenError(tokenString string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed) && onlySignatureMalformed(tokenString):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		// missing claims, iat in the future, unverifiable keys
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

// onlySignatureMalformed reports whether header and claims parse, which leaves the
// signature segment as the part that failed to decode.
func onlySignatureMalformed(tokenString string) bool {
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, &tokenClaims{})
	return err == nil
}
