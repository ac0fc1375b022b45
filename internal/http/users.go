package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"movieclub-api/internal/auth"
	"movieclub-api/internal/service"
)

type createUserRequest struct {
	Username  string `json:"username" binding:"required,min=5,alphanum"`
	Password  string `json:"password" binding:"required,max=72"`
	Email     string `json:"email" binding:"required,email"`
	Birthdate string `json:"birthdate" binding:"omitempty,datetime=2006-01-02"`
}

type updateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=5,alphanum"`
	Password  *string `json:"password" binding:"omitempty,min=1,max=72"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Birthdate *string `json:"birthdate" binding:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) login(c *gin.Context) {
	user, ok := auth.IdentityFrom(c.Request.Context())
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
		return
	}

	res, err := h.users.IssueToken(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		User:      userToResponse(*res.User),
		Token:     res.Token.Value,
		ExpiresAt: res.Token.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	birthdate, err := parseDate(req.Birthdate)
	if err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		Birthdate: birthdate,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s already exists", req.Username)})
			return
		}
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	in := service.UpdateInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	}
	if req.Birthdate != nil {
		birthdate, err := parseDate(*req.Birthdate)
		if err != nil {
			writeBindError(c, err)
			return
		}
		in.Birthdate = birthdate
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("username"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	username := c.Param("username")
	if err := h.users.Delete(c.Request.Context(), username); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.String(http.StatusBadRequest, "%s was not found", username)
			return
		}
		h.writeError(c, err)
		return
	}
	c.String(http.StatusOK, "%s was deleted.", username)
}

func (h *Handler) addFavorite(c *gin.Context) {
	user, err := h.users.AddFavorite(c.Request.Context(), c.Param("username"), c.Param("movieId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) removeFavorite(c *gin.Context) {
	user, err := h.users.RemoveFavorite(c.Request.Context(), c.Param("username"), c.Param("movieId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}
