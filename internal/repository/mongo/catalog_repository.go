package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"movieclub-api/internal/domain"
	"movieclub-api/internal/repository"
)

type genreDocument struct {
	Name        string `bson:"name"`
	Description string `bson:"description"`
}

type directorDocument struct {
	Name      string `bson:"name"`
	Bio       string `bson:"bio"`
	BirthYear int    `bson:"birthYear"`
	DeathYear *int   `bson:"deathYear,omitempty"`
}

type movieDocument struct {
	ID          string           `bson:"_id"`
	Title       string           `bson:"title"`
	Description string           `bson:"description"`
	Genre       genreDocument    `bson:"genre"`
	Director    directorDocument `bson:"director"`
	Actors      []string         `bson:"actors"`
	ImagePath   string           `bson:"ImagePath"`
	Featured    bool             `bson:"Featured"`
}

type actorDocument struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	BirthYear int    `bson:"birthYear"`
}

type CatalogRepository struct {
	movies *mongodriver.Collection
	actors *mongodriver.Collection
}

func NewCatalogRepository(c *Client) repository.CatalogRepository {
	return &CatalogRepository{
		movies: c.db.Collection(moviesCollection),
		actors: c.db.Collection(actorsCollection),
	}
}

func (r *CatalogRepository) Init(ctx context.Context) error {
	if err := ensureIndexes(ctx, r.movies, []mongodriver.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetName("title")},
		{Keys: bson.D{{Key: "genre.name", Value: 1}}, Options: options.Index().SetName("genre_name")},
		{Keys: bson.D{{Key: "director.name", Value: 1}}, Options: options.Index().SetName("director_name")},
	}); err != nil {
		return err
	}
	return ensureIndexes(ctx, r.actors, []mongodriver.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("name")},
	})
}

func (r *CatalogRepository) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	cur, err := r.movies.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find movies: %w", err)
	}
	defer cur.Close(ctx)

	var movies []domain.Movie
	for cur.Next(ctx) {
		var doc movieDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode movie: %w", err)
		}
		movies = append(movies, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

func (r *CatalogRepository) MovieByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	doc, err := r.findMovie(ctx, bson.D{{Key: "title", Value: title}}, "movie "+title)
	if err != nil {
		return nil, err
	}
	movie := doc.toDomain()
	return &movie, nil
}

func (r *CatalogRepository) DirectorByName(ctx context.Context, name string) (*domain.Director, error) {
	doc, err := r.findMovie(ctx, bson.D{{Key: "director.name", Value: name}}, "director "+name)
	if err != nil {
		return nil, err
	}
	director := doc.toDomain().Director
	return &director, nil
}

func (r *CatalogRepository) GenreByName(ctx context.Context, name string) (*domain.Genre, error) {
	doc, err := r.findMovie(ctx, bson.D{{Key: "genre.name", Value: name}}, "genre "+name)
	if err != nil {
		return nil, err
	}
	genre := doc.toDomain().Genre
	return &genre, nil
}

func (r *CatalogRepository) ActorByName(ctx context.Context, name string) (*domain.Actor, error) {
	var doc actorDocument
	if err := r.actors.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("actor %q: %w", name, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("find actor: %w", err)
	}
	return &domain.Actor{ID: doc.ID, Name: doc.Name, BirthYear: doc.BirthYear}, nil
}

func (r *CatalogRepository) UpsertActor(ctx context.Context, actor *domain.Actor) error {
	doc := actorDocument{ID: actor.ID, Name: actor.Name, BirthYear: actor.BirthYear}
	_, err := r.actors.ReplaceOne(ctx, bson.D{{Key: "_id", Value: actor.ID}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert actor: %w", err)
	}
	return nil
}

func (r *CatalogRepository) UpsertMovie(ctx context.Context, movie *domain.Movie) error {
	doc := toMovieDocument(movie)
	_, err := r.movies.ReplaceOne(ctx, bson.D{{Key: "_id", Value: movie.ID}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert movie: %w", err)
	}
	return nil
}

func (r *CatalogRepository) findMovie(ctx context.Context, filter bson.D, what string) (*movieDocument, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "title", Value: 1}})

	var doc movieDocument
	if err := r.movies.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", what, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("find %s: %w", what, err)
	}
	return &doc, nil
}

func toMovieDocument(m *domain.Movie) movieDocument {
	actors := m.ActorIDs
	if actors == nil {
		actors = []string{}
	}
	return movieDocument{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Genre:       genreDocument{Name: m.Genre.Name, Description: m.Genre.Description},
		Director: directorDocument{
			Name:      m.Director.Name,
			Bio:       m.Director.Bio,
			BirthYear: m.Director.BirthYear,
			DeathYear: m.Director.DeathYear,
		},
		Actors:    actors,
		ImagePath: m.ImagePath,
		Featured:  m.Featured,
	}
}

func (d movieDocument) toDomain() domain.Movie {
	actors := d.Actors
	if actors == nil {
		actors = []string{}
	}
	return domain.Movie{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Genre:       domain.Genre{Name: d.Genre.Name, Description: d.Genre.Description},
		Director: domain.Director{
			Name:      d.Director.Name,
			Bio:       d.Director.Bio,
			BirthYear: d.Director.BirthYear,
			DeathYear: d.Director.DeathYear,
		},
		ActorIDs:  actors,
		ImagePath: d.ImagePath,
		Featured:  d.Featured,
	}
}
