package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invitationdomain "github.com/smallbiznis/internlink/internal/invitation/domain"
)

type createInvitationRequest struct {
	Type       invitationdomain.Type `json:"type"`
	ReceiverID snowflake.ID          `json:"receiver_id"`
	VacancyID  *snowflake.ID         `json:"vacancy_id,omitempty"`
	ResumeID   *snowflake.ID         `json:"resume_id,omitempty"`
	Message    string                `json:"message"`
}

type changeInvitationStatusRequest struct {
	Status invitationdomain.Status `json:"status"`
}

type listInvitationsQuery struct {
	Direction string `form:"direction"`
	Status    string `form:"status"`
}

func (s *Server) CreateInvitation(c *gin.Context) {
	var req createInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(""))
		return
	}

	invitation, err := s.invitations.Create(c.Request.Context(), actorID(c), invitationdomain.CreateInvitationRequest{
		ReceiverID: req.ReceiverID,
		VacancyID:  req.VacancyID,
		ResumeID:   req.ResumeID,
		Message:    req.Message,
	}, invitationdomain.Type(strings.ToLower(strings.TrimSpace(string(req.Type)))))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": invitation})
}

func (s *Server) ChangeInvitationStatus(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req changeInvitationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(""))
		return
	}

	status := invitationdomain.Status(strings.ToLower(strings.TrimSpace(string(req.Status))))
	invitation, err := s.invitations.ChangeStatus(c.Request.Context(), actorID(c), id, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invitation})
}

func (s *Server) GetInvitation(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invitation, err := s.invitations.Get(c.Request.Context(), actorID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invitation})
}

func (s *Server) ListInvitations(c *gin.Context) {
	var query listInvitationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError(""))
		return
	}
	page, err := bindPage(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filter := invitationdomain.ListFilter{
		Direction: invitationdomain.Direction(strings.ToLower(strings.TrimSpace(query.Direction))),
		Status:    invitationdomain.Status(strings.ToLower(strings.TrimSpace(query.Status))),
	}
	result, err := s.invitations.ListForUser(c.Request.Context(), actorID(c), filter, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
