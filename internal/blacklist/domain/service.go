package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/apperr"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
)

type Service interface {
	Block(ctx context.Context, blockerID, blockedID snowflake.ID) (*BlockResult, error)
	IsBlockedEitherDirection(ctx context.Context, a, b snowflake.ID) (bool, error)
	EnsureCommunicationAllowed(ctx context.Context, senderID, receiverID snowflake.ID) error
	ListBlocked(ctx context.Context, userID snowflake.ID, page pagination.Request) (pagination.Result[Entry], error)
}

var (
	ErrInvalidID            = apperr.Validation("invalid_id", "both user ids are required")
	ErrSelfBlock            = apperr.Validation("self_block", "you cannot block yourself")
	ErrAlreadyBlocked       = apperr.Conflict("already_blocked", "user is already blocked")
	ErrBlockAdministrator   = apperr.Forbidden("block_administrator", "administrators cannot be blocked")
	ErrCommunicationBlocked = apperr.Blocked("communication_blocked", "communication between these users is blocked")
)
