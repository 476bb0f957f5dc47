package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindUser(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindUsers(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]User, error)
	FindStudentProfiles(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]StudentProfile, error)
	FindEmployerProfiles(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]EmployerProfile, error)
	ListStudyPlans(ctx context.Context, db *gorm.DB, studentID snowflake.ID) ([]StudyPlan, error)
	ListResumes(ctx context.Context, db *gorm.DB, studentID snowflake.ID) ([]Resume, error)
	FindResume(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Resume, error)
	UpdateStage(ctx context.Context, db *gorm.DB, id snowflake.ID, stage Stage, at time.Time) error

	SoftDeleteUser(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (int64, error)
	SoftDeleteDependents(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	CancelOpenInvitations(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (int64, error)
	RestoreUser(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	RestoreDependents(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to time.Time) error
}
