package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/apperr"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
)

type Service interface {
	// Toggle removes an existing favorite or adds a new one.
	Toggle(ctx context.Context, userID snowflake.ID, kind Kind, targetID snowflake.ID) (*ToggleResult, error)
	List(ctx context.Context, userID snowflake.ID, page pagination.Request) (pagination.Result[Favorite], error)
}

var (
	ErrInvalidID      = apperr.Validation("invalid_id", "user and target ids are required")
	ErrInvalidKind    = apperr.Validation("invalid_favorite_kind", "kind must be vacancy, employer or student")
	ErrSelfFavorite   = apperr.Validation("self_favorite", "you cannot favorite yourself")
	ErrKindNotAllowed = apperr.Forbidden("favorite_kind_not_allowed", "students favorite vacancies and employers, employers favorite students")
	ErrTargetNotFound = apperr.NotFound("favorite_target_not_found", "favorite target not found")
	ErrDuplicate      = apperr.Conflict("duplicate_favorite", "target is already in favorites")
)
