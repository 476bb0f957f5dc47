package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Type string

const (
	// TypeOffer is sent by an employer to a student.
	TypeOffer Type = "offer"
	// TypeResponse is sent by a student to an employer.
	TypeResponse Type = "response"
)

func (t Type) Valid() bool {
	return t == TypeOffer || t == TypeResponse
}

type Status string

const (
	StatusSent      Status = "sent"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

type Invitation struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	SenderID   snowflake.ID  `gorm:"not null" json:"sender_id"`
	ReceiverID snowflake.ID  `gorm:"not null" json:"receiver_id"`
	StudentID  snowflake.ID  `gorm:"not null" json:"student_id"`
	EmployerID snowflake.ID  `gorm:"not null" json:"employer_id"`
	VacancyID  *snowflake.ID `json:"vacancy_id,omitempty"`
	VacancyKey snowflake.ID  `gorm:"not null;default:0" json:"-"`
	ResumeID   *snowflake.ID `json:"resume_id,omitempty"`
	Type       Type          `gorm:"type:varchar(16);not null" json:"type"`
	Message    string        `gorm:"not null" json:"message"`
	Status     Status        `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt  time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null" json:"updated_at"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
}

// PastDue reports whether a sent invitation outlived its expiry at now.
func (i Invitation) PastDue(now time.Time) bool {
	return i.Status == StatusSent && i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}

func (i Invitation) IsParty(userID snowflake.ID) bool {
	return userID == i.SenderID || userID == i.ReceiverID
}

type CreateInvitationRequest struct {
	ReceiverID snowflake.ID  `json:"receiver_id"`
	VacancyID  *snowflake.ID `json:"vacancy_id,omitempty"`
	ResumeID   *snowflake.ID `json:"resume_id,omitempty"`
	Message    string        `json:"message"`
}

type Direction string

const (
	DirectionAll      Direction = ""
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

type ListFilter struct {
	Direction Direction
	Status    Status
}
