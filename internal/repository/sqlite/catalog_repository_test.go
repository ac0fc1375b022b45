package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"movieclub-api/internal/domain"
	"movieclub-api/internal/repository"
)

func newCatalogRepo(t *testing.T) repository.CatalogRepository {
	t.Helper()

	repo := NewCatalogRepository(openTestDB(t))
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func sampleMovie(id, title, genre, director string, actors ...string) *domain.Movie {
	return &domain.Movie{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Genre:       domain.Genre{Name: genre, Description: genre + " films"},
		Director:    domain.Director{Name: director, Bio: director + " bio", BirthYear: 1950},
		ActorIDs:    actors,
		ImagePath:   id + ".jpg",
		Featured:    true,
	}
}

func TestCatalogRepository_MovieRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newCatalogRepo(t)

	movie := sampleMovie("mv-1", "Heat", "Crime", "Michael Mann", "ac-2", "ac-1")
	died := 2020
	movie.Director.DeathYear = &died
	require.NoError(t, repo.UpsertMovie(ctx, movie))

	got, err := repo.MovieByTitle(ctx, "Heat")
	require.NoError(t, err)
	require.Equal(t, *movie, *got)
}

func TestCatalogRepository_UpsertReplacesMovie(t *testing.T) {
	ctx := context.Background()
	repo := newCatalogRepo(t)

	require.NoError(t, repo.UpsertMovie(ctx, sampleMovie("mv-1", "Heat", "Crime", "Michael Mann", "ac-1", "ac-2")))

	updated := sampleMovie("mv-1", "Heat", "Thriller", "Michael Mann", "ac-3")
	updated.Featured = false
	require.NoError(t, repo.UpsertMovie(ctx, updated))

	movies, err := repo.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	require.Equal(t, "Thriller", movies[0].Genre.Name)
	require.False(t, movies[0].Featured)
	require.Equal(t, []string{"ac-3"}, movies[0].ActorIDs)
}

func TestCatalogRepository_ListMoviesOrderedByTitle(t *testing.T) {
	ctx := context.Background()
	repo := newCatalogRepo(t)

	require.NoError(t, repo.UpsertMovie(ctx, sampleMovie("mv-2", "Zodiac", "Thriller", "David Fincher")))
	require.NoError(t, repo.UpsertMovie(ctx, sampleMovie("mv-1", "Alien", "Horror", "Ridley Scott", "ac-1")))

	movies, err := repo.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	require.Equal(t, "Alien", movies[0].Title)
	require.Equal(t, []string{"ac-1"}, movies[0].ActorIDs)
	require.Equal(t, "Zodiac", movies[1].Title)
	require.Empty(t, movies[1].ActorIDs)
}

func TestCatalogRepository_EmbeddedLookups(t *testing.T) {
	ctx := context.Background()
	repo := newCatalogRepo(t)

	require.NoError(t, repo.UpsertMovie(ctx, sampleMovie("mv-1", "Heat", "Crime", "Michael Mann")))
	require.NoError(t, repo.UpsertMovie(ctx, sampleMovie("mv-2", "Collateral", "Crime", "Michael Mann")))

	director, err := repo.DirectorByName(ctx, "Michael Mann")
	require.NoError(t, err)
	require.Equal(t, "Michael Mann bio", director.Bio)
	require.Nil(t, director.DeathYear)

	genre, err := repo.GenreByName(ctx, "Crime")
	require.NoError(t, err)
	require.Equal(t, "Crime films", genre.Description)

	_, err = repo.DirectorByName(ctx, "Nobody")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GenreByName(ctx, "Western")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.MovieByTitle(ctx, "Thief")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCatalogRepository_Actors(t *testing.T) {
	ctx := context.Background()
	repo := newCatalogRepo(t)

	require.NoError(t, repo.UpsertActor(ctx, &domain.Actor{ID: "ac-1", Name: "Al Pacino", BirthYear: 1939}))
	require.NoError(t, repo.UpsertActor(ctx, &domain.Actor{ID: "ac-1", Name: "Al Pacino", BirthYear: 1940}))

	actor, err := repo.ActorByName(ctx, "Al Pacino")
	require.NoError(t, err)
	require.Equal(t, domain.Actor{ID: "ac-1", Name: "Al Pacino", BirthYear: 1940}, *actor)

	_, err = repo.ActorByName(ctx, "al pacino")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
