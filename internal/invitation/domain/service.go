package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/apperr"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, senderID snowflake.ID, req CreateInvitationRequest, typ Type) (*Invitation, error)
	ChangeStatus(ctx context.Context, actorID, invitationID snowflake.ID, status Status) (*Invitation, error)
	// ExpireStale moves every sent invitation whose expiry is before now to
	// expired in one transaction and returns how many changed.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	Get(ctx context.Context, actorID, invitationID snowflake.ID) (*Invitation, error)
	ListForUser(ctx context.Context, userID snowflake.ID, filter ListFilter, page pagination.Request) (pagination.Result[Invitation], error)
}

var (
	ErrInvalidID           = apperr.Validation("invalid_id", "user and invitation ids are required")
	ErrInvalidType         = apperr.Validation("invalid_invitation_type", "invitation type must be offer or response")
	ErrInvalidStatus       = apperr.Validation("invalid_invitation_status", "status must be accepted, rejected or cancelled")
	ErrInvalidDirection    = apperr.Validation("invalid_direction", "direction must be incoming or outgoing")
	ErrSelfInvitation      = apperr.Validation("self_invitation", "you cannot send an invitation to yourself")
	ErrMessageTooLong      = apperr.Validation("message_too_long", "invitation message is too long")
	ErrVacancyNotOwned     = apperr.Validation("vacancy_not_owned", "vacancy does not belong to the employer")
	ErrResumeNotOwned      = apperr.Validation("resume_not_owned", "resume does not belong to the student")
	ErrRoleMismatch        = apperr.Forbidden("role_mismatch", "offers go from employers to students and responses from students to employers")
	ErrNotReceiver         = apperr.Forbidden("not_receiver", "only the receiver can accept or reject an invitation")
	ErrNotSender           = apperr.Forbidden("not_sender", "only the sender can cancel an invitation")
	ErrInvitationNotFound  = apperr.NotFound("invitation_not_found", "invitation not found")
	ErrDuplicate           = apperr.Conflict("duplicate_invitation", "an active invitation already exists for this student, employer, vacancy and type")
	ErrOperationNotAllowed = apperr.InvalidState("operation_not_allowed", "invitation is no longer open")
	ErrExpired             = apperr.InvalidState("invitation_expired", "invitation has expired")
)
