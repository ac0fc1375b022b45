package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"movieclub-api/internal/auth"
	"movieclub-api/internal/domain"
	"movieclub-api/internal/repository"
)

var (
	// ErrUserAlreadyExists is returned when a username is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user has the requested username.
	ErrUserNotFound = errors.New("user not found")
)

// RegisterInput carries a validated signup request.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	Birthdate *time.Time
}

// UpdateInput carries a partial profile update; nil fields are left unchanged.
type UpdateInput struct {
	Username  *string
	Password  *string
	Email     *string
	Birthdate *time.Time
}

// LoginResult is a redacted identity plus the bearer token issued for it.
type LoginResult struct {
	User  *domain.User
	Token auth.Token
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	IssueToken(ctx context.Context, user *domain.User) (*LoginResult, error)
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, username string, in UpdateInput) (*domain.User, error)
	Delete(ctx context.Context, username string) error
	AddFavorite(ctx context.Context, username, movieID string) (*domain.User, error)
	RemoveFavorite(ctx context.Context, username, movieID string) (*domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	hasher *auth.Hasher
	issuer *auth.TokenIssuer
}

func NewUserService(users repository.UserRepository, hasher *auth.Hasher, issuer *auth.TokenIssuer) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		issuer: issuer,
	}
}

// Register creates a user. The username pre-check gives a fast answer; the store's
// unique constraint decides when two signups race.
func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := s.ensureUsernameFree(ctx, in.Username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:             uuid.NewString(),
		Username:       in.Username,
		PasswordHash:   hash,
		Email:          in.Email,
		Birthdate:      in.Birthdate,
		FavoriteMovies: []string{},
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return user.Redacted(), nil
}

// IssueToken mints a bearer token for a user the local strategy has already verified.
func (s *userService) IssueToken(_ context.Context, user *domain.User) (*LoginResult, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user.Redacted(), Token: token}, nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.User, len(users))
	for i := range users {
		out[i] = *users[i].Redacted()
	}
	return out, nil
}

func (s *userService) Get(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return user.Redacted(), nil
}

func (s *userService) Update(ctx context.Context, username string, in UpdateInput) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}

	if in.Username != nil && *in.Username != user.Username {
		if err := s.ensureUsernameFree(ctx, *in.Username); err != nil {
			return nil, err
		}
		user.Username = *in.Username
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Birthdate != nil {
		user.Birthdate = in.Birthdate
	}

	if err := s.users.Update(ctx, username, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, mapNotFound(err, ErrUserNotFound)
	}

	return user.Redacted(), nil
}

func (s *userService) Delete(ctx context.Context, username string) error {
	if err := s.users.Delete(ctx, username); err != nil {
		return mapNotFound(err, ErrUserNotFound)
	}
	return nil
}

// AddFavorite adds movieID to the user's favorites; repeating it is a no-op.
func (s *userService) AddFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	user, err := s.users.AddFavorite(ctx, username, movieID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return user.Redacted(), nil
}

func (s *userService) RemoveFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	user, err := s.users.RemoveFavorite(ctx, username, movieID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return user.Redacted(), nil
}

func (s *userService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check username: %w", err)
	}
	return nil
}

func mapNotFound(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
