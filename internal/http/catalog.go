package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listMovies(c *gin.Context) {
	movies, err := h.catalog.ListMovies(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]MovieResponse, len(movies))
	for i := range movies {
		url, err := h.catalog.PosterURL(c.Request.Context(), movies[i])
		if err != nil {
			h.logger.WithError(err).Warn("poster url")
			url = movies[i].ImagePath
		}
		resp[i] = movieToResponse(movies[i], url)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getMovie(c *gin.Context) {
	movie, err := h.catalog.MovieByTitle(c.Request.Context(), c.Param("title"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	url, err := h.catalog.PosterURL(c.Request.Context(), *movie)
	if err != nil {
		h.logger.WithError(err).Warn("poster url")
		url = movie.ImagePath
	}
	c.JSON(http.StatusOK, movieToResponse(*movie, url))
}

func (h *Handler) getDirector(c *gin.Context) {
	director, err := h.catalog.DirectorByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, directorToResponse(*director))
}

func (h *Handler) getGenre(c *gin.Context) {
	genre, err := h.catalog.GenreByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, genreToResponse(*genre))
}

func (h *Handler) getActor(c *gin.Context) {
	actor, err := h.catalog.ActorByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, actorToResponse(*actor))
}
