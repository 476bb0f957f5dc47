package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Entry records that UserID blocked BlockedUserID. Entries are directional
// but communication checks look at both directions.
type Entry struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID `gorm:"not null;uniqueIndex:ux_blacklist_pair" json:"user_id"`
	BlockedUserID snowflake.ID `gorm:"not null;uniqueIndex:ux_blacklist_pair" json:"blocked_user_id"`
	BlockedAt     time.Time    `gorm:"not null" json:"blocked_at"`
}

func (Entry) TableName() string { return "blacklist_entries" }

type BlockResult struct {
	Entry               Entry `json:"entry"`
	RemovedFavorites    int   `json:"removed_favorites"`
	RejectedInvitations int   `json:"rejected_invitations"`
}
