package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"go.uber.org/zap"
)

type stageResponse struct {
	UserID snowflake.ID        `json:"user_id"`
	Stage  accountdomain.Stage `json:"stage"`
}

func (s *Server) DeleteMe(c *gin.Context) {
	userID := actorID(c)
	if err := s.accounts.SoftDelete(c.Request.Context(), userID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("account deleted by owner", zap.Stringer("user_id", userID))
	c.Status(http.StatusNoContent)
}

func (s *Server) RestoreUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.accounts.Restore(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	participant, err := s.accounts.GetParticipant(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("account restored",
		zap.Stringer("user_id", id),
		zap.Stringer("admin_id", actorID(c)),
	)
	c.JSON(http.StatusOK, gin.H{"data": participant.Account()})
}

// RecalculateMyStage is called by profile owners after editing profile,
// study plan or resume data.
func (s *Server) RecalculateMyStage(c *gin.Context) {
	userID := actorID(c)
	stage, err := s.accounts.RecalculateStage(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stageResponse{UserID: userID, Stage: stage}})
}

// RecalculateUserStage lets an administrator refresh a stage after an
// accreditation decision.
func (s *Server) RecalculateUserStage(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	stage, err := s.accounts.RecalculateStage(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("stage recalculated",
		zap.Stringer("user_id", id),
		zap.Stringer("admin_id", actorID(c)),
		zap.String("stage", string(stage)),
	)
	c.JSON(http.StatusOK, gin.H{"data": stageResponse{UserID: id, Stage: stage}})
}
