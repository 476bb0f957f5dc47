package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Vacancy, error)
	ListByEmployer(ctx context.Context, db *gorm.DB, employerID snowflake.ID, page pagination.Request) (pagination.Result[Vacancy], error)
}
