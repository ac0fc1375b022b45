package http

import (
	"time"

	"movieclub-api/internal/domain"
)

const dateLayout = "2006-01-02"

type UserResponse struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Birthdate      *string  `json:"birthdate,omitempty"`
	FavoriteMovies []string `json:"favoriteMovies"`
}

type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
}

type GenreResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DirectorResponse struct {
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	BirthYear int    `json:"birthYear,omitempty"`
	DeathYear *int   `json:"deathYear,omitempty"`
}

type MovieResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Genre       GenreResponse    `json:"genre"`
	Director    DirectorResponse `json:"director"`
	Actors      []string         `json:"actors"`
	ImagePath   string           `json:"imagePath,omitempty"`
	ImageURL    string           `json:"imageUrl,omitempty"`
	Featured    bool             `json:"featured"`
}

type ActorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthYear int    `json:"birthYear"`
}

// userToResponse never carries the password hash.
func userToResponse(user domain.User) UserResponse {
	resp := UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		FavoriteMovies: user.FavoriteMovies,
	}
	if resp.FavoriteMovies == nil {
		resp.FavoriteMovies = []string{}
	}
	if user.Birthdate != nil {
		v := user.Birthdate.Format(dateLayout)
		resp.Birthdate = &v
	}
	return resp
}

func genreToResponse(g domain.Genre) GenreResponse {
	return GenreResponse{Name: g.Name, Description: g.Description}
}

func directorToResponse(d domain.Director) DirectorResponse {
	return DirectorResponse{
		Name:      d.Name,
		Bio:       d.Bio,
		BirthYear: d.BirthYear,
		DeathYear: d.DeathYear,
	}
}

func movieToResponse(m domain.Movie, imageURL string) MovieResponse {
	resp := MovieResponse{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Genre:       genreToResponse(m.Genre),
		Director:    directorToResponse(m.Director),
		Actors:      m.ActorIDs,
		ImagePath:   m.ImagePath,
		Featured:    m.Featured,
	}
	if imageURL != m.ImagePath {
		resp.ImageURL = imageURL
	}
	if resp.Actors == nil {
		resp.Actors = []string{}
	}
	return resp
}

func actorToResponse(a domain.Actor) ActorResponse {
	return ActorResponse{ID: a.ID, Name: a.Name, BirthYear: a.BirthYear}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
