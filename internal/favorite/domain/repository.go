package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, userID snowflake.ID, kind Kind, targetID snowflake.ID) (*Favorite, error)
	Insert(ctx context.Context, db *gorm.DB, fav *Favorite) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, page pagination.Request) (pagination.Result[Favorite], error)
}
