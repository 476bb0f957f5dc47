package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleStudent       Role = "student"
	RoleEmployer      Role = "employer"
	RoleAdministrator Role = "administrator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleEmployer, RoleAdministrator:
		return true
	}
	return false
}

type Stage string

const (
	StageAnonymous      Stage = "anonymous"
	StageProfileFilled  Stage = "profile_filled"
	StageFullyActivated Stage = "fully_activated"
)

type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Role      Role         `gorm:"type:varchar(32);not null" json:"role"`
	Email     string       `gorm:"not null;uniqueIndex" json:"email"`
	Stage     Stage        `gorm:"type:varchar(32);not null;default:anonymous" json:"stage"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
	DeletedAt *time.Time   `gorm:"index" json:"deleted_at,omitempty"`
}

func (u User) IsDeleted() bool { return u.DeletedAt != nil }

type StudentProfile struct {
	UserID     snowflake.ID `gorm:"primaryKey" json:"user_id"`
	FirstName  string       `gorm:"not null;default:''" json:"first_name"`
	LastName   string       `gorm:"not null;default:''" json:"last_name"`
	MiddleName string       `gorm:"not null;default:''" json:"middle_name,omitempty"`
	Phone      string       `gorm:"not null;default:''" json:"phone"`
}

type EmployerProfile struct {
	UserID           snowflake.ID `gorm:"primaryKey" json:"user_id"`
	OrganizationName string       `gorm:"not null;default:''" json:"organization_name"`
	ContactName      string       `gorm:"not null;default:''" json:"contact_name"`
	Phone            string       `gorm:"not null;default:''" json:"phone"`
	TaxNumber        string       `gorm:"not null;default:''" json:"tax_number,omitempty"`
	Description      string       `gorm:"not null;default:''" json:"description,omitempty"`
	Website          string       `gorm:"not null;default:''" json:"website,omitempty"`
	Address          string       `gorm:"not null;default:''" json:"address,omitempty"`
	Accredited       bool         `gorm:"not null;default:false" json:"accredited"`
	AccreditedAt     *time.Time   `json:"accredited_at,omitempty"`
}

type StudyPlan struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	StudentID    snowflake.ID  `gorm:"not null;index" json:"student_id"`
	FacultyID    *snowflake.ID `json:"faculty_id,omitempty"`
	CourseID     *snowflake.ID `json:"course_id,omitempty"`
	SpecialityID *snowflake.ID `json:"speciality_id,omitempty"`
	IsActive     bool          `gorm:"not null;default:false" json:"is_active"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty"`
}

// Complete reports whether every required reference is set.
func (p StudyPlan) Complete() bool {
	return p.FacultyID != nil && p.CourseID != nil && p.SpecialityID != nil
}

type Resume struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	StudentID snowflake.ID `gorm:"not null;index" json:"student_id"`
	Title     string       `gorm:"not null;default:''" json:"title"`
	IsActive  bool         `gorm:"not null;default:false" json:"is_active"`
	DeletedAt *time.Time   `json:"deleted_at,omitempty"`
}

// Snapshot is everything the stage engine looks at for one account.
type Snapshot struct {
	User       *User
	Student    *StudentProfile
	Employer   *EmployerProfile
	StudyPlans []StudyPlan
	Resumes    []Resume
}
