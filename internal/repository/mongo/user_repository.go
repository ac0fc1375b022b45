package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"movieclub-api/internal/domain"
	"movieclub-api/internal/repository"
)

type userDocument struct {
	ID             string     `bson:"_id"`
	Username       string     `bson:"username"`
	Password       string     `bson:"password"`
	Email          string     `bson:"email"`
	Birthday       *time.Time `bson:"Birthday,omitempty"`
	FavoriteMovies []string   `bson:"favoriteMovies"`
	CreatedAt      time.Time  `bson:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt"`
}

type UserRepository struct {
	users *mongodriver.Collection
}

func NewUserRepository(c *Client) repository.UserRepository {
	return &UserRepository{users: c.db.Collection(usersCollection)}
}

// Init creates the unique username index, which is the authoritative duplicate guard.
func (r *UserRepository) Init(ctx context.Context) error {
	return ensureIndexes(ctx, r.users, []mongodriver.IndexModel{
		uniqueIndex("uniq_username", "username"),
	})
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := toMS(time.Now())
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.FavoriteMovies == nil {
		user.FavoriteMovies = []string{}
	}

	if _, err := r.users.InsertOne(ctx, toUserDocument(user)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert user %q: %w", user.Username, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("user %q: %w", username, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	cur, err := r.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var users []domain.User
	for cur.Next(ctx) {
		var doc userDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, *doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, username string, user *domain.User) error {
	user.UpdatedAt = toMS(time.Now())

	set := bson.D{
		{Key: "username", Value: user.Username},
		{Key: "password", Value: user.PasswordHash},
		{Key: "email", Value: user.Email},
		{Key: "updatedAt", Value: user.UpdatedAt},
	}
	var update bson.D
	if user.Birthdate != nil {
		set = append(set, bson.E{Key: "Birthday", Value: toMS(*user.Birthdate)})
		update = bson.D{{Key: "$set", Value: set}}
	} else {
		update = bson.D{
			{Key: "$set", Value: set},
			{Key: "$unset", Value: bson.D{{Key: "Birthday", Value: ""}}},
		}
	}

	res, err := r.users.UpdateOne(ctx, bson.D{{Key: "username", Value: username}}, update)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("rename user to %q: %w", user.Username, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update user %q: %w", username, repository.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	res, err := r.users.DeleteOne(ctx, bson.D{{Key: "username", Value: username}})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete user %q: %w", username, repository.ErrNotFound)
	}
	return nil
}

// AddFavorite uses $addToSet so repeated adds leave a single entry.
func (r *UserRepository) AddFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	return r.modifyFavorites(ctx, username, bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "favoriteMovies", Value: movieID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: toMS(time.Now())}}},
	})
}

func (r *UserRepository) RemoveFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	return r.modifyFavorites(ctx, username, bson.D{
		{Key: "$pull", Value: bson.D{{Key: "favoriteMovies", Value: movieID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: toMS(time.Now())}}},
	})
}

func (r *UserRepository) modifyFavorites(ctx context.Context, username string, update bson.D) (*domain.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.users.FindOneAndUpdate(ctx, bson.D{{Key: "username", Value: username}}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("user %q: %w", username, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("update favorites: %w", err)
	}
	return doc.toDomain(), nil
}

func toUserDocument(u *domain.User) userDocument {
	doc := userDocument{
		ID:             u.ID,
		Username:       u.Username,
		Password:       u.PasswordHash,
		Email:          u.Email,
		FavoriteMovies: u.FavoriteMovies,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if u.Birthdate != nil {
		b := toMS(*u.Birthdate)
		doc.Birthday = &b
	}
	return doc
}

func (d userDocument) toDomain() *domain.User {
	user := &domain.User{
		ID:             d.ID,
		Username:       d.Username,
		PasswordHash:   d.Password,
		Email:          d.Email,
		FavoriteMovies: d.FavoriteMovies,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
	if user.FavoriteMovies == nil {
		user.FavoriteMovies = []string{}
	}
	if d.Birthday != nil {
		b := d.Birthday.UTC()
		user.Birthdate = &b
	}
	return user
}

// toMS truncates to the millisecond precision of BSON dates.
func toMS(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
