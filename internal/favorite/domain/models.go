package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Kind string

const (
	KindVacancy  Kind = "vacancy"
	KindEmployer Kind = "employer"
	KindStudent  Kind = "student"
)

func (k Kind) Valid() bool {
	switch k {
	case KindVacancy, KindEmployer, KindStudent:
		return true
	}
	return false
}

// Favorite references exactly one of a vacancy, an employer or a student.
// TargetKind and TargetID mirror whichever reference is set.
type Favorite struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID     snowflake.ID  `gorm:"not null" json:"user_id"`
	VacancyID  *snowflake.ID `json:"vacancy_id,omitempty"`
	EmployerID *snowflake.ID `json:"employer_id,omitempty"`
	StudentID  *snowflake.ID `json:"student_id,omitempty"`
	TargetKind Kind          `gorm:"type:varchar(16);not null" json:"target_kind"`
	TargetID   snowflake.ID  `gorm:"not null" json:"target_id"`
	AddedAt    time.Time     `gorm:"not null" json:"added_at"`
}

// NewFavorite fills the typed reference column for kind.
func NewFavorite(id, userID snowflake.ID, kind Kind, targetID snowflake.ID, at time.Time) *Favorite {
	fav := &Favorite{
		ID:         id,
		UserID:     userID,
		TargetKind: kind,
		TargetID:   targetID,
		AddedAt:    at,
	}
	ref := targetID
	switch kind {
	case KindVacancy:
		fav.VacancyID = &ref
	case KindEmployer:
		fav.EmployerID = &ref
	case KindStudent:
		fav.StudentID = &ref
	}
	return fav
}

type ToggleResult struct {
	Favorited bool      `json:"favorited"`
	Favorite  *Favorite `json:"favorite,omitempty"`
}
