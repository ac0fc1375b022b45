package domain

import "time"

// User represents a registered member of the movie club.
type User struct {
	ID             string
	Username       string
	PasswordHash   string
	Email          string
	Birthdate      *time.Time
	FavoriteMovies []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Redacted returns a copy of u without the password hash, safe to hand to serializers.
func (u *User) Redacted() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	out.FavoriteMovies = append([]string{}, u.FavoriteMovies...)
	if u.Birthdate != nil {
		b := *u.Birthdate
		out.Birthdate = &b
	}
	return &out
}
