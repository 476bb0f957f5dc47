package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/internlink/internal/chat/domain"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindChatByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Chat, error) {
	var chat domain.Chat
	err := db.WithContext(ctx).Raw(
		`SELECT id, user1_id, user2_id, created_at, last_message_at
		 FROM chats WHERE id = ?`,
		id,
	).Scan(&chat).Error
	if err != nil {
		return nil, err
	}
	if chat.ID == 0 {
		return nil, nil
	}
	return &chat, nil
}

func (r *repo) FindChatByPair(ctx context.Context, db *gorm.DB, user1ID, user2ID snowflake.ID) (*domain.Chat, error) {
	var chat domain.Chat
	err := db.WithContext(ctx).Raw(
		`SELECT id, user1_id, user2_id, created_at, last_message_at
		 FROM chats WHERE user1_id = ? AND user2_id = ?`,
		user1ID, user2ID,
	).Scan(&chat).Error
	if err != nil {
		return nil, err
	}
	if chat.ID == 0 {
		return nil, nil
	}
	return &chat, nil
}

func (r *repo) InsertChat(ctx context.Context, db *gorm.DB, chat *domain.Chat) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO chats (id, user1_id, user2_id, created_at, last_message_at)
		 VALUES (?, ?, ?, ?, ?)`,
		chat.ID, chat.User1ID, chat.User2ID, chat.CreatedAt, chat.LastMessageAt,
	).Error
}

func (r *repo) TouchChat(ctx context.Context, db *gorm.DB, chatID snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE chats SET last_message_at = ? WHERE id = ? AND last_message_at <= ?`,
		at, chatID, at,
	).Error
}

func (r *repo) InsertMessage(ctx context.Context, db *gorm.DB, msg *domain.Message) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO messages (id, chat_id, sender_id, content, sent_at, is_read, invitation_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatID, msg.SenderID, msg.Content, msg.SentAt, msg.IsRead, msg.InvitationID,
	).Error
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, chatID, readerID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE messages SET is_read = ?
		 WHERE chat_id = ? AND sender_id <> ? AND is_read = ?`,
		true, chatID, readerID, false,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) ListMessages(ctx context.Context, db *gorm.DB, chatID snowflake.ID, page pagination.Request) (pagination.Result[domain.Message], error) {
	query := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("chat_id = ?", chatID).
		Order("sent_at desc, id desc")
	return pagination.Paginate[domain.Message](ctx, query, page)
}

func (r *repo) ListChatsForUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, page pagination.Request) (pagination.Result[domain.Chat], error) {
	query := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("last_message_at desc, id desc")
	return pagination.Paginate[domain.Chat](ctx, query, page)
}

func (r *repo) LastMessages(ctx context.Context, db *gorm.DB, chatIDs []snowflake.ID) (map[snowflake.ID]domain.Message, error) {
	out := make(map[snowflake.ID]domain.Message, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}

	var rows []domain.Message
	err := db.WithContext(ctx).Raw(
		`SELECT m.id, m.chat_id, m.sender_id, m.content, m.sent_at, m.is_read, m.invitation_id
		 FROM messages m
		 WHERE m.chat_id IN ?
		   AND m.id = (
		     SELECT m2.id FROM messages m2
		     WHERE m2.chat_id = m.chat_id
		     ORDER BY m2.sent_at DESC, m2.id DESC
		     LIMIT 1
		   )`,
		chatIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ChatID] = row
	}
	return out, nil
}

func (r *repo) UnreadCounts(ctx context.Context, db *gorm.DB, chatIDs []snowflake.ID, readerID snowflake.ID) (map[snowflake.ID]int64, error) {
	out := make(map[snowflake.ID]int64, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ChatID snowflake.ID
		Unread int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT chat_id, COUNT(*) AS unread
		 FROM messages
		 WHERE chat_id IN ? AND sender_id <> ? AND is_read = ?
		 GROUP BY chat_id`,
		chatIDs, readerID, false,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ChatID] = row.Unread
	}
	return out, nil
}
