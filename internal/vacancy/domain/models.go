package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Vacancy is the slice of a vacancy the relationship core needs: who owns it
// and whether it is still live.
type Vacancy struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	EmployerID snowflake.ID `gorm:"not null;index" json:"employer_id"`
	Title      string       `gorm:"not null" json:"title"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
	DeletedAt  *time.Time   `json:"deleted_at,omitempty"`
}

func (v Vacancy) IsDeleted() bool { return v.DeletedAt != nil }
