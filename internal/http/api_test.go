package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"movieclub-api/internal/auth"
	"movieclub-api/internal/domain"
	"movieclub-api/internal/repository/sqlite"
	"movieclub-api/internal/service"
)

var testSecret = []byte("http-test-secret")

type APISuite struct {
	suite.Suite

	router *gin.Engine
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *APISuite) SetupTest() {
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(s.T().TempDir(), "api.db"))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	users := sqlite.NewUserRepository(db)
	s.Require().NoError(users.Init(ctx))
	catalog := sqlite.NewCatalogRepository(db)
	s.Require().NoError(catalog.Init(ctx))

	tokens := auth.TokenConfig{Secret: testSecret}
	issuer, err := auth.NewTokenIssuer(tokens)
	s.Require().NoError(err)
	verifier, err := auth.NewTokenVerifier(tokens)
	s.Require().NoError(err)
	hasher := auth.NewHasher(bcrypt.MinCost)

	catalogService := service.NewCatalogService(catalog, service.PosterOptions{})
	_, err = catalogService.Seed(ctx, domain.Catalog{
		Actors: []domain.Actor{{ID: "ac-1", Name: "Al Pacino", BirthYear: 1940}},
		Movies: []domain.Movie{
			{
				ID:       "mv-42",
				Title:    "Heat",
				Genre:    domain.Genre{Name: "Crime", Description: "Crime films"},
				Director: domain.Director{Name: "Michael Mann", BirthYear: 1943},
				ActorIDs: []string{"ac-1"},
			},
			{ID: "mv-7", Title: "Alien", Genre: domain.Genre{Name: "Horror"}},
		},
	})
	s.Require().NoError(err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s.router = gin.New()
	NewHandler(Options{
		Users:          service.NewUserService(users, hasher, issuer),
		Catalog:        catalogService,
		Local:          auth.NewLocalStrategy(users, hasher),
		JWT:            auth.NewJWTStrategy(verifier),
		Logger:         logger,
		Metrics:        NewMetrics(),
		AllowedOrigins: []string{"http://localhost:1234"},
		PublicDir:      filepath.Join("..", "..", "public"),
	}).RegisterRoutes(s.router)
}

func (s *APISuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.T().Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) decode(rec *httptest.ResponseRecorder, out any) {
	s.T().Helper()
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func (s *APISuite) signup(username string) {
	s.T().Helper()

	rec := s.do(http.MethodPost, "/users", gin.H{
		"username": username,
		"password": "Secret123",
		"email":    username + "@example.com",
	}, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *APISuite) login(username string) string {
	s.T().Helper()

	rec := s.do(http.MethodPost, "/login", gin.H{"username": username, "password": "Secret123"}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	s.decode(rec, &resp)
	s.Require().NotEmpty(resp.Token)
	return resp.Token
}

func (s *APISuite) TestWelcome() {
	rec := s.do(http.MethodGet, "/", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Welcome to my movie club!", rec.Body.String())
}

func (s *APISuite) TestDocumentation() {
	rec := s.do(http.MethodGet, "/documentation", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "<html")
}

func (s *APISuite) TestSignup() {
	rec := s.do(http.MethodPost, "/users", gin.H{
		"username":  "johndoe123",
		"password":  "Secret123",
		"email":     "john@example.com",
		"birthdate": "1990-01-01",
	}, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var raw map[string]any
	s.decode(rec, &raw)
	s.NotContains(raw, "password")
	s.NotContains(raw, "passwordHash")
	s.NotContains(rec.Body.String(), "Secret123")
	s.Equal("johndoe123", raw["username"])
	s.Equal("1990-01-01", raw["birthdate"])
	s.Equal([]any{}, raw["favoriteMovies"])
	s.NotEmpty(raw["id"])
}

func (s *APISuite) TestSignupDuplicate() {
	s.signup("johndoe123")

	rec := s.do(http.MethodPost, "/users", gin.H{
		"username": "johndoe123",
		"password": "other",
		"email":    "other@example.com",
	}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "johndoe123 already exists")
}

func (s *APISuite) TestSignupValidation() {
	rec := s.do(http.MethodPost, "/users", gin.H{
		"username":  "ab!",
		"email":     "not-an-email",
		"birthdate": "01/01/1990",
	}, "")
	s.Require().Equal(http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var resp struct {
		Errors []FieldError `json:"errors"`
	}
	s.decode(rec, &resp)

	rules := map[string]string{}
	for _, fe := range resp.Errors {
		rules[fe.Field] = fe.Rule
		s.NotEmpty(fe.Message)
	}
	s.Equal(map[string]string{
		"username":  "min",
		"password":  "required",
		"email":     "email",
		"birthdate": "datetime",
	}, rules)
}

func (s *APISuite) TestSignupBadJSON() {
	rec := s.do(http.MethodPost, "/users", "{not json", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestLogin() {
	s.signup("johndoe123")

	rec := s.do(http.MethodPost, "/login", gin.H{"username": "johndoe123", "password": "Secret123"}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	s.decode(rec, &resp)
	s.Equal("johndoe123", resp.User.Username)
	s.NotEmpty(resp.Token)
	s.NotContains(rec.Body.String(), "$2a$")

	expires, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	s.Require().NoError(err)
	s.WithinDuration(time.Now().Add(auth.DefaultTokenTTL), expires, time.Minute)
}

func (s *APISuite) TestLoginFailuresLookAlike() {
	s.signup("johndoe123")

	wrongPassword := s.do(http.MethodPost, "/login", gin.H{"username": "johndoe123", "password": "nope"}, "")
	unknownUser := s.do(http.MethodPost, "/login", gin.H{"username": "nobody123", "password": "Secret123"}, "")
	missingPassword := s.do(http.MethodPost, "/login", gin.H{"username": "johndoe123"}, "")

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownUser, missingPassword} {
		s.Equal(http.StatusBadRequest, rec.Code)
		s.JSONEq(`{"error":"invalid credentials"}`, rec.Body.String())
	}
}

func (s *APISuite) TestProtectedRoutesRequireToken() {
	s.signup("johndoe123")

	rec := s.do(http.MethodGet, "/users", nil, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.NotEmpty(rec.Header().Get("WWW-Authenticate"))

	rec = s.do(http.MethodGet, "/movies", nil, "not-a-jwt")
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPut, "/users/johndoe123", gin.H{"email": "x@example.com"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestExpiredAndForeignTokens() {
	s.signup("johndoe123")
	user := &domain.User{ID: "u-1", Username: "johndoe123"}

	stale, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret: testSecret,
		Now:    func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) },
	})
	s.Require().NoError(err)
	expired, err := stale.Issue(user)
	s.Require().NoError(err)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/users", nil, expired.Value).Code)

	foreign, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: []byte("someone-else")})
	s.Require().NoError(err)
	forged, err := foreign.Issue(user)
	s.Require().NoError(err)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/users", nil, forged.Value).Code)
}

func (s *APISuite) TestListAndGetUsers() {
	s.signup("johndoe123")
	s.signup("janedoe456")
	token := s.login("johndoe123")

	rec := s.do(http.MethodGet, "/users", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var users []UserResponse
	s.decode(rec, &users)
	s.Len(users, 2)

	// reads are not restricted to the owner
	rec = s.do(http.MethodGet, "/users/janedoe456", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "password")

	rec = s.do(http.MethodGet, "/users/nobody123", nil, token)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestUpdateOtherUserIsForbidden() {
	s.signup("johndoe123")
	s.signup("janedoe456")
	token := s.login("johndoe123")

	rec := s.do(http.MethodPut, "/users/janedoe456", gin.H{"email": "hijacked@example.com"}, token)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/users/janedoe456", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var user UserResponse
	s.decode(rec, &user)
	s.Equal("janedoe456@example.com", user.Email)

	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, "/users/janedoe456", nil, token).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/users/janedoe456/movies/mv-42", nil, token).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, "/users/janedoe456/movies/mv-42", nil, token).Code)
}

func (s *APISuite) TestUpdateOwnProfile() {
	s.signup("johndoe123")
	token := s.login("johndoe123")

	rec := s.do(http.MethodPut, "/users/johndoe123", gin.H{"email": "new@example.com", "birthdate": "1985-05-05"}, token)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var user UserResponse
	s.decode(rec, &user)
	s.Equal("new@example.com", user.Email)
	s.Require().NotNil(user.Birthdate)
	s.Equal("1985-05-05", *user.Birthdate)

	rec = s.do(http.MethodPut, "/users/johndoe123", gin.H{"email": "broken"}, token)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPut, "/users/johndoe123", gin.H{"password": "Changed99"}, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/login", gin.H{"username": "johndoe123", "password": "Changed99"}, "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APISuite) TestRenameConflict() {
	s.signup("johndoe123")
	s.signup("janedoe456")
	token := s.login("johndoe123")

	rec := s.do(http.MethodPut, "/users/johndoe123", gin.H{"username": "janedoe456"}, token)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *APISuite) TestFavorites() {
	s.signup("johndoe123")
	token := s.login("johndoe123")

	var user UserResponse
	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodPost, "/users/johndoe123/movies/mv-42", nil, token)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		s.decode(rec, &user)
		s.Equal([]string{"mv-42"}, user.FavoriteMovies)
	}

	rec := s.do(http.MethodDelete, "/users/johndoe123/movies/mv-42", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &user)
	s.Empty(user.FavoriteMovies)
}

func (s *APISuite) TestDeleteUser() {
	s.signup("johndoe123")
	token := s.login("johndoe123")

	rec := s.do(http.MethodDelete, "/users/johndoe123", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("johndoe123 was deleted.", rec.Body.String())

	rec = s.do(http.MethodDelete, "/users/johndoe123", nil, token)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("johndoe123 was not found", rec.Body.String())
}

func (s *APISuite) TestCatalog() {
	s.signup("johndoe123")
	token := s.login("johndoe123")

	rec := s.do(http.MethodGet, "/movies", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var movies []MovieResponse
	s.decode(rec, &movies)
	s.Len(movies, 2)

	rec = s.do(http.MethodGet, "/movies/Heat", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var movie MovieResponse
	s.decode(rec, &movie)
	s.Equal("mv-42", movie.ID)
	s.Equal([]string{"ac-1"}, movie.Actors)

	rec = s.do(http.MethodGet, "/directors/Michael%20Mann", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var director DirectorResponse
	s.decode(rec, &director)
	s.Equal(1943, director.BirthYear)

	rec = s.do(http.MethodGet, "/genres/Crime", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"name":"Crime","description":"Crime films"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/actors/Al%20Pacino", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"id":"ac-1","name":"Al Pacino","birthYear":1940}`, rec.Body.String())

	for _, path := range []string{"/movies/Nope", "/directors/Nobody", "/genres/Western", "/actors/Nobody"} {
		s.Equal(http.StatusNotFound, s.do(http.MethodGet, path, nil, token).Code, path)
	}
}

func (s *APISuite) TestCORS() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "http://localhost:1234")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("http://localhost:1234", rec.Header().Get("Access-Control-Allow-Origin"))
}

func (s *APISuite) TestMetrics() {
	s.do(http.MethodGet, "/", nil, "")

	rec := s.do(http.MethodGet, "/metrics", nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `movieclub_http_requests_total{method="GET",route="/",status="200"} 1`)
}
