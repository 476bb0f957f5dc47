package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/apperr"
)

type Service interface {
	// GetParticipant returns the account including soft-deleted ones.
	GetParticipant(ctx context.Context, id snowflake.ID) (Participant, error)
	// GetParticipants resolves ids in bulk; unknown ids are absent from the map.
	GetParticipants(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Participant, error)
	// GetActiveParticipant fails with ErrUserNotFound for missing or deleted accounts.
	GetActiveParticipant(ctx context.Context, id snowflake.ID) (Participant, error)
	GetActiveResume(ctx context.Context, id snowflake.ID) (*Resume, error)
	RecalculateStage(ctx context.Context, id snowflake.ID) (Stage, error)
	SoftDelete(ctx context.Context, id snowflake.ID) error
	Restore(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidID      = apperr.Validation("invalid_id", "user id is required")
	ErrUserNotFound   = apperr.NotFound("user_not_found", "user not found")
	ErrResumeNotFound = apperr.NotFound("resume_not_found", "resume not found")
	ErrAlreadyDeleted = apperr.InvalidState("account_deleted", "account is already deleted")
	ErrNotDeleted     = apperr.InvalidState("account_not_deleted", "account is not deleted")
)
