package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/apperr"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
)

type Service interface {
	GetOrCreateChat(ctx context.Context, a, b snowflake.ID) (*Chat, error)
	SendMessage(ctx context.Context, senderID snowflake.ID, req SendMessageRequest) (*Message, error)
	MarkRead(ctx context.Context, userID, chatID snowflake.ID) (int64, error)
	GetChatsForUser(ctx context.Context, userID snowflake.ID, page pagination.Request) (pagination.Result[ChatSummary], error)
	GetMessages(ctx context.Context, chatID, actorID snowflake.ID, page pagination.Request) (pagination.Result[Message], error)
	ResolveParticipantDisplay(ctx context.Context, userID snowflake.ID) (ParticipantDisplay, error)
}

// RateLimiter throttles message sending per user.
type RateLimiter interface {
	Allow(ctx context.Context, userID snowflake.ID) error
}

var (
	ErrInvalidID           = apperr.Validation("invalid_id", "sender and receiver ids are required")
	ErrSelfMessage         = apperr.Validation("self_message", "you cannot message yourself")
	ErrEmptyMessage        = apperr.Validation("empty_message", "message content is required")
	ErrMessageTooLong      = apperr.Validation("message_too_long", "message is too long")
	ErrSameRole            = apperr.Forbidden("same_role", "messages are exchanged between students and employers")
	ErrReceiverUnavailable = apperr.Forbidden("receiver_unavailable", "the recipient cannot receive messages yet")
	ErrChatNotFound        = apperr.NotFound("chat_not_found", "chat not found")
	ErrInvitationNotFound  = apperr.NotFound("invitation_not_found", "invitation not found for this conversation")
)
