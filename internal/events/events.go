// Package events carries relationship side effects to collaborators that
// live outside the core (achievements, push delivery). Publishing is fire and
// forget: a failed publish never fails the operation that produced it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

const (
	TopicInvitationCreated   = "invitation.created"
	TopicInvitationAccepted  = "invitation.accepted"
	TopicInvitationRejected  = "invitation.rejected"
	TopicInvitationCancelled = "invitation.cancelled"
	TopicInvitationsExpired  = "invitation.expired"
	TopicUserBlocked         = "user.blocked"
	TopicMessageSent         = "message.sent"
	TopicFavoriteToggled     = "favorite.toggled"
	TopicAccountDeleted      = "account.deleted"
	TopicAccountRestored     = "account.restored"
)

//go:generate mockgen -destination=mocks/publisher.go -package=mocks github.com/smallbiznis/internlink/internal/events Publisher

type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Envelope is the wire shape delivered to subscribers.
type Envelope struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type InvitationEvent struct {
	InvitationID snowflake.ID  `json:"invitation_id"`
	SenderID     snowflake.ID  `json:"sender_id"`
	ReceiverID   snowflake.ID  `json:"receiver_id"`
	VacancyID    *snowflake.ID `json:"vacancy_id,omitempty"`
	Type         string        `json:"type"`
	Status       string        `json:"status"`
	ActorID      snowflake.ID  `json:"actor_id,omitempty"`
}

type InvitationsExpiredEvent struct {
	Count int64     `json:"count"`
	At    time.Time `json:"at"`
}

type BlockEvent struct {
	BlockerID          snowflake.ID `json:"blocker_id"`
	BlockedID          snowflake.ID `json:"blocked_id"`
	RemovedFavorites   int          `json:"removed_favorites"`
	RejectedInvitation int          `json:"rejected_invitations"`
}

type MessageEvent struct {
	MessageID    snowflake.ID  `json:"message_id"`
	ChatID       snowflake.ID  `json:"chat_id"`
	SenderID     snowflake.ID  `json:"sender_id"`
	ReceiverID   snowflake.ID  `json:"receiver_id"`
	InvitationID *snowflake.ID `json:"invitation_id,omitempty"`
}

type FavoriteEvent struct {
	UserID     snowflake.ID `json:"user_id"`
	TargetKind string       `json:"target_kind"`
	TargetID   snowflake.ID `json:"target_id"`
	Favorited  bool         `json:"favorited"`
}

type AccountEvent struct {
	UserID snowflake.ID `json:"user_id"`
	Role   string       `json:"role"`
}

// Emit marshals payload and hands it to pub. Failures are logged only.
func Emit(ctx context.Context, pub Publisher, log *zap.Logger, topic string, payload any) {
	if pub == nil {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Warn("event encode failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	if err := pub.Publish(ctx, topic, raw); err != nil {
		log.Warn("event publish failed", zap.String("topic", topic), zap.Error(err))
	}
}
