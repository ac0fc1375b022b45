package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"movieclub-api/internal/domain"
	"movieclub-api/internal/repository"
	"movieclub-api/internal/storage"
)

// ErrNotFound is returned when a catalog lookup matches nothing.
var ErrNotFound = errors.New("not found")

// seedNamespace scopes the name-based IDs Seed gives records that arrive without one.
var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("movieclub/catalog"))

// PosterOptions locates movie posters in object storage. A nil Store disables presigning.
type PosterOptions struct {
	Store     storage.Service
	Bucket    string
	KeyPrefix string
	Expires   time.Duration
}

// SeedResult counts the records written by Seed.
type SeedResult struct {
	Actors int
	Movies int
}

// CatalogService exposes the read-only movie catalog.
type CatalogService interface {
	ListMovies(ctx context.Context) ([]domain.Movie, error)
	MovieByTitle(ctx context.Context, title string) (*domain.Movie, error)
	DirectorByName(ctx context.Context, name string) (*domain.Director, error)
	GenreByName(ctx context.Context, name string) (*domain.Genre, error)
	ActorByName(ctx context.Context, name string) (*domain.Actor, error)
	PosterURL(ctx context.Context, movie domain.Movie) (string, error)
	Seed(ctx context.Context, catalog domain.Catalog) (SeedResult, error)
}

type catalogService struct {
	catalog repository.CatalogRepository
	posters PosterOptions
}

func NewCatalogService(catalog repository.CatalogRepository, posters PosterOptions) CatalogService {
	return &catalogService{
		catalog: catalog,
		posters: posters,
	}
}

func (s *catalogService) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	movies, err := s.catalog.ListMovies(ctx)
	if err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []domain.Movie{}
	}
	return movies, nil
}

func (s *catalogService) MovieByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	movie, err := s.catalog.MovieByTitle(ctx, title)
	return movie, mapNotFound(err, ErrNotFound)
}

func (s *catalogService) DirectorByName(ctx context.Context, name string) (*domain.Director, error) {
	director, err := s.catalog.DirectorByName(ctx, name)
	return director, mapNotFound(err, ErrNotFound)
}

func (s *catalogService) GenreByName(ctx context.Context, name string) (*domain.Genre, error) {
	genre, err := s.catalog.GenreByName(ctx, name)
	return genre, mapNotFound(err, ErrNotFound)
}

func (s *catalogService) ActorByName(ctx context.Context, name string) (*domain.Actor, error) {
	actor, err := s.catalog.ActorByName(ctx, name)
	return actor, mapNotFound(err, ErrNotFound)
}

// PosterURL returns a presigned URL for the movie's image when storage is configured.
// Absolute URLs and unconfigured storage return ImagePath unchanged.
func (s *catalogService) PosterURL(ctx context.Context, movie domain.Movie) (string, error) {
	imagePath := strings.TrimSpace(movie.ImagePath)
	if imagePath == "" || s.posters.Store == nil || s.posters.Bucket == "" {
		return imagePath, nil
	}
	if strings.HasPrefix(imagePath, "http://") || strings.HasPrefix(imagePath, "https://") {
		return imagePath, nil
	}

	key := path.Join(strings.Trim(s.posters.KeyPrefix, "/"), strings.TrimPrefix(imagePath, "/"))
	url, err := s.posters.Store.GetObjectURL(ctx, s.posters.Bucket, key, s.posters.Expires)
	if err != nil {
		return "", fmt.Errorf("poster url for %s: %w", movie.Title, err)
	}
	return url, nil
}

// Seed upserts every actor and movie in catalog. Records without an ID get one derived
// from their name or title, so seeding the same file again updates instead of duplicating.
func (s *catalogService) Seed(ctx context.Context, catalog domain.Catalog) (SeedResult, error) {
	var res SeedResult

	for i := range catalog.Actors {
		actor := catalog.Actors[i]
		if strings.TrimSpace(actor.Name) == "" {
			return res, fmt.Errorf("seed actor %d: name is required", i)
		}
		if actor.ID == "" {
			actor.ID = seedID("actor", actor.Name)
		}
		if err := s.catalog.UpsertActor(ctx, &actor); err != nil {
			return res, err
		}
		res.Actors++
	}

	for i := range catalog.Movies {
		movie := catalog.Movies[i]
		if strings.TrimSpace(movie.Title) == "" {
			return res, fmt.Errorf("seed movie %d: title is required", i)
		}
		if movie.ID == "" {
			movie.ID = seedID("movie", movie.Title)
		}
		if err := s.catalog.UpsertMovie(ctx, &movie); err != nil {
			return res, err
		}
		res.Movies++
	}

	return res, nil
}

func seedID(kind, name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+strings.TrimSpace(name))).String()
}
