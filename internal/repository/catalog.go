package repository

import (
	"context"

	"movieclub-api/internal/domain"
)

// CatalogRepository exposes read access to movies and actors plus bulk seeding.
type CatalogRepository interface {
	Init(ctx context.Context) error
	ListMovies(ctx context.Context) ([]domain.Movie, error)
	MovieByTitle(ctx context.Context, title string) (*domain.Movie, error)
	DirectorByName(ctx context.Context, name string) (*domain.Director, error)
	GenreByName(ctx context.Context, name string) (*domain.Genre, error)
	ActorByName(ctx context.Context, name string) (*domain.Actor, error)
	UpsertActor(ctx context.Context, actor *domain.Actor) error
	UpsertMovie(ctx context.Context, movie *domain.Movie) error
}
