package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type outboxPublisher struct {
	db *gorm.DB
}

// NewOutboxPublisher stores every event in relationship_events.
func NewOutboxPublisher(db *gorm.DB) Publisher {
	return &outboxPublisher{db: db}
}

func (p *outboxPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("event topic is required")
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	return p.db.WithContext(ctx).Exec(
		`INSERT INTO relationship_events (id, topic, payload, created_at)
		 VALUES (?, ?, ?, ?)`,
		ulid.Make().String(),
		topic,
		datatypes.JSON(payload),
		time.Now().UTC(),
	).Error
}
