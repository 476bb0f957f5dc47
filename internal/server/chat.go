package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	chatdomain "github.com/smallbiznis/internlink/internal/chat/domain"
)

type sendMessageRequest struct {
	ReceiverID   snowflake.ID  `json:"receiver_id"`
	Content      string        `json:"content"`
	InvitationID *snowflake.ID `json:"invitation_id,omitempty"`
}

func (s *Server) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(""))
		return
	}

	message, err := s.chats.SendMessage(c.Request.Context(), actorID(c), chatdomain.SendMessageRequest{
		ReceiverID:   req.ReceiverID,
		Content:      req.Content,
		InvitationID: req.InvitationID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": message})
}

func (s *Server) ListChats(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.chats.GetChatsForUser(c.Request.Context(), actorID(c), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) ListMessages(c *gin.Context) {
	chatID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	page, err := bindPage(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.chats.GetMessages(c.Request.Context(), chatID, actorID(c), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) MarkChatRead(c *gin.Context) {
	chatID, err := parsePathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	marked, err := s.chats.MarkRead(c.Request.Context(), actorID(c), chatID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"marked": marked}})
}
