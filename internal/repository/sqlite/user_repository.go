package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"movieclub-api/internal/domain"
	"movieclub-api/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	email TEXT NOT NULL,
	birthdate DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS user_favorites (
	user_id TEXT NOT NULL,
	movie_id TEXT NOT NULL,
	added_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, movie_id),
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, email, birthdate, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Email,
		nullableTime(user.Birthdate),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %q: %w", user.Username, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, email, birthdate, created_at, updated_at
FROM users
WHERE username = ?`,
		username,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if user.FavoriteMovies, err = r.favorites(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, password_hash, email, birthdate, created_at, updated_at
FROM users
ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for i := range users {
		favorites, err := r.favorites(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].FavoriteMovies = favorites
	}
	return users, nil
}

// Update overwrites the profile of the user currently named username.
// user.Username may differ from username when the account is renamed.
func (r *UserRepository) Update(ctx context.Context, username string, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET username = ?, password_hash = ?, email = ?, birthdate = ?, updated_at = ?
WHERE username = ?`,
		user.Username,
		user.PasswordHash,
		user.Email,
		nullableTime(user.Birthdate),
		user.UpdatedAt,
		username,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("rename user to %q: %w", user.Username, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return expectAffected(res, "update user")
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	if _, err := tx.ExecContext(ctx, `
DELETE FROM user_favorites
WHERE user_id IN (SELECT id FROM users WHERE username = ?)`, username); err != nil {
		return fmt.Errorf("delete favorites: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := expectAffected(res, "delete user"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// AddFavorite is idempotent: adding a movie already in the list leaves it unchanged.
func (r *UserRepository) AddFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	id, err := r.userID(ctx, username)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO user_favorites (user_id, movie_id, added_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id, movie_id) DO NOTHING`,
		id, movieID, time.Now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("insert favorite: %w", err)
	}
	if err := r.touch(ctx, id); err != nil {
		return nil, err
	}
	return r.GetByUsername(ctx, username)
}

func (r *UserRepository) RemoveFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	id, err := r.userID(ctx, username)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_favorites WHERE user_id = ? AND movie_id = ?`, id, movieID); err != nil {
		return nil, fmt.Errorf("delete favorite: %w", err)
	}
	if err := r.touch(ctx, id); err != nil {
		return nil, err
	}
	return r.GetByUsername(ctx, username)
}

func (r *UserRepository) userID(ctx context.Context, username string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, username).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("user %q: %w", username, repository.ErrNotFound)
		}
		return "", fmt.Errorf("lookup user id: %w", err)
	}
	return id, nil
}

func (r *UserRepository) touch(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return nil
}

func (r *UserRepository) favorites(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT movie_id
FROM user_favorites
WHERE user_id = ?
ORDER BY added_at ASC, movie_id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	favorites := []string{}
	for rows.Next() {
		var movieID string
		if err := rows.Scan(&movieID); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, movieID)
	}
	return favorites, rows.Err()
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user      domain.User
		birthdate sql.NullTime
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&birthdate,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if birthdate.Valid {
		t := birthdate.Time.UTC()
		user.Birthdate = &t
	}
	return &user, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}
