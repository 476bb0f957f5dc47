package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invitation *Invitation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invitation, error)
	ExistsActive(ctx context.Context, db *gorm.DB, studentID, employerID, vacancyKey snowflake.ID, typ Type) (bool, error)
	// TransitionFromSent moves a sent invitation to status and reports the
	// number of rows changed; zero means it was no longer sent.
	TransitionFromSent(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, at time.Time) (int64, error)
	ExpireStale(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	ListForUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListFilter, page pagination.Request) (pagination.Result[Invitation], error)
}
