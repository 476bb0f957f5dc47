package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	FindChatByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Chat, error)
	FindChatByPair(ctx context.Context, db *gorm.DB, user1ID, user2ID snowflake.ID) (*Chat, error)
	InsertChat(ctx context.Context, db *gorm.DB, chat *Chat) error
	TouchChat(ctx context.Context, db *gorm.DB, chatID snowflake.ID, at time.Time) error

	InsertMessage(ctx context.Context, db *gorm.DB, msg *Message) error
	MarkRead(ctx context.Context, db *gorm.DB, chatID, readerID snowflake.ID) (int64, error)
	ListMessages(ctx context.Context, db *gorm.DB, chatID snowflake.ID, page pagination.Request) (pagination.Result[Message], error)

	ListChatsForUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, page pagination.Request) (pagination.Result[Chat], error)
	LastMessages(ctx context.Context, db *gorm.DB, chatIDs []snowflake.ID) (map[snowflake.ID]Message, error)
	UnreadCounts(ctx context.Context, db *gorm.DB, chatIDs []snowflake.ID, readerID snowflake.ID) (map[snowflake.ID]int64, error)
}
