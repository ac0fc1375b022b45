package http

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"movieclub-api/internal/auth"
	"movieclub-api/internal/service"
)

// Options wires the handler to its collaborators.
type Options struct {
	Users          service.UserService
	Catalog        service.CatalogService
	Local          auth.Strategy
	JWT            auth.Strategy
	Logger         *logrus.Logger
	Metrics        *Metrics
	AllowedOrigins []string
	PublicDir      string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	catalog   service.CatalogService
	local     auth.Strategy
	jwt       auth.Strategy
	logger    *logrus.Logger
	metrics   *Metrics
	origins   []string
	publicDir string
}

func NewHandler(opts Options) *Handler {
	registerValidation()

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:     opts.Users,
		catalog:   opts.Catalog,
		local:     opts.Local,
		jwt:       opts.JWT,
		logger:    logger,
		metrics:   opts.Metrics,
		origins:   opts.AllowedOrigins,
		publicDir: opts.PublicDir,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.requestLogger())
	if h.metrics != nil {
		router.Use(h.metrics.middleware())
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
	router.Use(corsMiddleware(h.origins))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to my movie club!")
	})
	if h.publicDir != "" {
		router.GET("/documentation", func(c *gin.Context) {
			c.File(filepath.Join(h.publicDir, "documentation.html"))
		})
		router.Static("/public", h.publicDir)
	}

	router.POST("/login", h.authenticate(h.local), h.login)
	router.POST("/users", h.createUser)

	protected := router.Group("/", h.authenticate(h.jwt))
	{
		protected.GET("/users", h.listUsers)
		protected.GET("/users/:username", h.getUser)

		owned := protected.Group("/users/:username", requireOwner("username"))
		owned.PUT("", h.updateUser)
		owned.DELETE("", h.deleteUser)
		owned.POST("/movies/:movieId", h.addFavorite)
		owned.DELETE("/movies/:movieId", h.removeFavorite)

		protected.GET("/movies", h.listMovies)
		protected.GET("/movies/:title", h.getMovie)
		protected.GET("/directors/:name", h.getDirector)
		protected.GET("/genres/:name", h.getGenre)
		protected.GET("/actors/:name", h.getActor)
	}
}

func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := false
	origins := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
		origins[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := origins[origin]; !ok && !allowAll {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "The CORS policy for this application doesn't allow access from origin " + origin,
				})
				return
			}
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
