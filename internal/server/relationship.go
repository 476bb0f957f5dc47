package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	favoritedomain "github.com/smallbiznis/internlink/internal/favorite/domain"
)

type blockUserRequest struct {
	UserID snowflake.ID `json:"user_id"`
}

type toggleFavoriteRequest struct {
	Kind     favoritedomain.Kind `json:"kind"`
	TargetID snowflake.ID        `json:"target_id"`
}

func (s *Server) BlockUser(c *gin.Context) {
	var req blockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(""))
		return
	}

	result, err := s.blacklist.Block(c.Request.Context(), actorID(c), req.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (s *Server) ListBlocked(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.blacklist.ListBlocked(c.Request.Context(), actorID(c), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) ToggleFavorite(c *gin.Context) {
	var req toggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(""))
		return
	}

	kind := favoritedomain.Kind(strings.ToLower(strings.TrimSpace(string(req.Kind))))
	result, err := s.favorites.Toggle(c.Request.Context(), actorID(c), kind, req.TargetID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ListFavorites(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.favorites.List(c.Request.Context(), actorID(c), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
