package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
)

// Chat is a conversation between two users stored in canonical order,
// User1ID < User2ID.
type Chat struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	User1ID       snowflake.ID `gorm:"column:user1_id;not null" json:"user1_id"`
	User2ID       snowflake.ID `gorm:"column:user2_id;not null" json:"user2_id"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	LastMessageAt time.Time    `gorm:"not null" json:"last_message_at"`
}

func (c Chat) IsParticipant(userID snowflake.ID) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Counterpart returns the other participant for userID.
func (c Chat) Counterpart(userID snowflake.ID) snowflake.ID {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// CanonicalPair orders two user ids numerically.
func CanonicalPair(a, b snowflake.ID) (snowflake.ID, snowflake.ID) {
	if a > b {
		return b, a
	}
	return a, b
}

type Message struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	ChatID       snowflake.ID  `gorm:"not null" json:"chat_id"`
	SenderID     snowflake.ID  `gorm:"not null" json:"sender_id"`
	Content      string        `gorm:"not null" json:"content"`
	SentAt       time.Time     `gorm:"not null" json:"sent_at"`
	IsRead       bool          `gorm:"not null;default:false" json:"is_read"`
	InvitationID *snowflake.ID `json:"invitation_id,omitempty"`
}

type ParticipantDisplay struct {
	ID          snowflake.ID       `json:"id"`
	DisplayName string             `json:"display_name"`
	Role        accountdomain.Role `json:"role"`
}

// DisplayOf renders a participant for chat listings. Deleted accounts keep
// their role but lose their name.
func DisplayOf(p accountdomain.Participant) ParticipantDisplay {
	return ParticipantDisplay{
		ID:          p.ID(),
		DisplayName: p.DisplayName(),
		Role:        p.Role(),
	}
}

type ChatSummary struct {
	Chat        Chat               `json:"chat"`
	Counterpart ParticipantDisplay `json:"counterpart"`
	LastMessage *Message           `json:"last_message,omitempty"`
	UnreadCount int64              `json:"unread_count"`
}

type SendMessageRequest struct {
	ReceiverID   snowflake.ID  `json:"receiver_id"`
	Content      string        `json:"content"`
	InvitationID *snowflake.ID `json:"invitation_id,omitempty"`
}
