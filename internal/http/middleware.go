package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"movieclub-api/internal/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// authenticate gates the route behind strategy. Local credentials come from the JSON body,
// JWT credentials from the Authorization header. Any failure aborts the chain.
func (h *Handler) authenticate(strategy auth.Strategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, err := credentialsFor(c, strategy.Kind())
		if err != nil {
			h.rejectAuth(c, strategy.Kind(), err)
			return
		}

		user, err := strategy.Authenticate(c.Request.Context(), creds)
		if err != nil || user == nil {
			if err == nil {
				err = auth.ErrUnauthorized
			}
			h.rejectAuth(c, strategy.Kind(), err)
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), user))
		c.Next()
	}
}

func credentialsFor(c *gin.Context, kind auth.Kind) (auth.Credentials, error) {
	switch kind {
	case auth.KindLocal:
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return auth.Credentials{}, auth.ErrInvalidCredentials
		}
		return auth.Credentials{Username: req.Username, Password: req.Password}, nil
	case auth.KindJWT:
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			return auth.Credentials{}, auth.ErrMalformedToken
		}
		return auth.Credentials{Token: token}, nil
	default:
		return auth.Credentials{}, auth.ErrUnauthorized
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (h *Handler) rejectAuth(c *gin.Context, kind auth.Kind, err error) {
	logger := h.logger.WithFields(logrus.Fields{
		"strategy": string(kind),
		"path":     c.Request.URL.Path,
	})

	if kind == auth.KindLocal {
		// unknown user and wrong password get the same answer
		if errors.Is(err, auth.ErrNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
			logger.WithError(err).Info("login rejected")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
			return
		}
		logger.WithError(err).Error("login failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	logger.WithError(err).Info("token rejected")
	c.Header("WWW-Authenticate", `Bearer realm="movieclub"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// requireOwner applies the ownership policy to the user named by the path param.
func requireOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := auth.Authorize(c.Request.Context(), c.Param(param))
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, auth.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		}
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := logrus.Fields{
			"method":    c.Request.Method,
			"path":      path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
			"bytes":     c.Writer.Size(),
		}
		if user, ok := auth.IdentityFrom(c.Request.Context()); ok {
			fields["user"] = user.Username
		}
		h.logger.WithFields(fields).Info("request")
	}
}
