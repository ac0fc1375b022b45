package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"movieclub-api/internal/domain"
	"movieclub-api/internal/repository"
)

const createCatalogTables = `
CREATE TABLE IF NOT EXISTS actors (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	birth_year INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_actors_name ON actors(name);
CREATE TABLE IF NOT EXISTS movies (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	genre_name TEXT NOT NULL DEFAULT '',
	genre_description TEXT NOT NULL DEFAULT '',
	director_name TEXT NOT NULL DEFAULT '',
	director_bio TEXT NOT NULL DEFAULT '',
	director_birth_year INTEGER NOT NULL DEFAULT 0,
	director_death_year INTEGER NULL,
	image_path TEXT NOT NULL DEFAULT '',
	featured INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title);
CREATE TABLE IF NOT EXISTS movie_actors (
	movie_id TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (movie_id, actor_id),
	FOREIGN KEY(movie_id) REFERENCES movies(id) ON DELETE CASCADE
);
`

const selectMovie = `
SELECT id, title, description, genre_name, genre_description,
	director_name, director_bio, director_birth_year, director_death_year,
	image_path, featured
FROM movies`

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) repository.CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCatalogTables); err != nil {
		return fmt.Errorf("create catalog tables: %w", err)
	}
	return nil
}

func (r *CatalogRepository) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	rows, err := r.db.QueryContext(ctx, selectMovie+` ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}

	for i := range movies {
		if movies[i].ActorIDs, err = r.actorIDs(ctx, movies[i].ID); err != nil {
			return nil, err
		}
	}
	return movies, nil
}

func (r *CatalogRepository) MovieByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	movie, err := scanMovie(r.db.QueryRowContext(ctx, selectMovie+` WHERE title = ? LIMIT 1`, title))
	if err != nil {
		return nil, err
	}
	if movie.ActorIDs, err = r.actorIDs(ctx, movie.ID); err != nil {
		return nil, err
	}
	return movie, nil
}

func (r *CatalogRepository) DirectorByName(ctx context.Context, name string) (*domain.Director, error) {
	var (
		director  domain.Director
		deathYear sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT director_name, director_bio, director_birth_year, director_death_year
FROM movies
WHERE director_name = ?
ORDER BY title ASC
LIMIT 1`, name).Scan(&director.Name, &director.Bio, &director.BirthYear, &deathYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("director %q: %w", name, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("query director: %w", err)
	}
	if deathYear.Valid {
		year := int(deathYear.Int64)
		director.DeathYear = &year
	}
	return &director, nil
}

func (r *CatalogRepository) GenreByName(ctx context.Context, name string) (*domain.Genre, error) {
	var genre domain.Genre
	err := r.db.QueryRowContext(ctx, `
SELECT genre_name, genre_description
FROM movies
WHERE genre_name = ?
ORDER BY title ASC
LIMIT 1`, name).Scan(&genre.Name, &genre.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("genre %q: %w", name, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("query genre: %w", err)
	}
	return &genre, nil
}

func (r *CatalogRepository) ActorByName(ctx context.Context, name string) (*domain.Actor, error) {
	var actor domain.Actor
	err := r.db.QueryRowContext(ctx, `
SELECT id, name, birth_year
FROM actors
WHERE name = ?
LIMIT 1`, name).Scan(&actor.ID, &actor.Name, &actor.BirthYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("actor %q: %w", name, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("query actor: %w", err)
	}
	return &actor, nil
}

func (r *CatalogRepository) UpsertActor(ctx context.Context, actor *domain.Actor) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO actors (id, name, birth_year)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, birth_year = excluded.birth_year`,
		actor.ID, actor.Name, actor.BirthYear,
	); err != nil {
		return fmt.Errorf("upsert actor: %w", err)
	}
	return nil
}

func (r *CatalogRepository) UpsertMovie(ctx context.Context, movie *domain.Movie) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	var deathYear any
	if movie.Director.DeathYear != nil {
		deathYear = *movie.Director.DeathYear
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO movies (id, title, description, genre_name, genre_description,
	director_name, director_bio, director_birth_year, director_death_year,
	image_path, featured)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	description = excluded.description,
	genre_name = excluded.genre_name,
	genre_description = excluded.genre_description,
	director_name = excluded.director_name,
	director_bio = excluded.director_bio,
	director_birth_year = excluded.director_birth_year,
	director_death_year = excluded.director_death_year,
	image_path = excluded.image_path,
	featured = excluded.featured`,
		movie.ID,
		movie.Title,
		movie.Description,
		movie.Genre.Name,
		movie.Genre.Description,
		movie.Director.Name,
		movie.Director.Bio,
		movie.Director.BirthYear,
		deathYear,
		movie.ImagePath,
		movie.Featured,
	); err != nil {
		return fmt.Errorf("upsert movie: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM movie_actors WHERE movie_id = ?`, movie.ID); err != nil {
		return fmt.Errorf("delete movie actors: %w", err)
	}
	for i, actorID := range movie.ActorIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO movie_actors (movie_id, actor_id, position)
VALUES (?, ?, ?)
ON CONFLICT(movie_id, actor_id) DO NOTHING`, movie.ID, actorID, i); err != nil {
			return fmt.Errorf("insert movie actor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *CatalogRepository) actorIDs(ctx context.Context, movieID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT actor_id
FROM movie_actors
WHERE movie_id = ?
ORDER BY position ASC`, movieID)
	if err != nil {
		return nil, fmt.Errorf("query movie actors: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan movie actor: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanMovie(row interface {
	Scan(dest ...any) error
}) (*domain.Movie, error) {
	var (
		movie     domain.Movie
		deathYear sql.NullInt64
	)
	if err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.Genre.Name,
		&movie.Genre.Description,
		&movie.Director.Name,
		&movie.Director.Bio,
		&movie.Director.BirthYear,
		&deathYear,
		&movie.ImagePath,
		&movie.Featured,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movie: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan movie: %w", err)
	}
	if deathYear.Valid {
		year := int(deathYear.Int64)
		movie.Director.DeathYear = &year
	}
	return &movie, nil
}
