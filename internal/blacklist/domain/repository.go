package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	Exists(ctx context.Context, db *gorm.DB, userID, blockedUserID snowflake.ID) (bool, error)
	ExistsEitherDirection(ctx context.Context, db *gorm.DB, a, b snowflake.ID) (bool, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, page pagination.Request) (pagination.Result[Entry], error)

	// CrossingFavoriteIDs returns favorites owned by one party that point at
	// the other party directly or at one of its vacancies.
	CrossingFavoriteIDs(ctx context.Context, db *gorm.DB, a, b snowflake.ID) ([]snowflake.ID, error)
	// OpenInvitationIDs returns sent or accepted invitations between a and b.
	OpenInvitationIDs(ctx context.Context, db *gorm.DB, a, b snowflake.ID) ([]snowflake.ID, error)
	DeleteFavorites(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (int64, error)
	RejectInvitations(ctx context.Context, db *gorm.DB, ids []snowflake.ID, at time.Time) (int64, error)
}
