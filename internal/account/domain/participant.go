package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	AdministratorDisplayName  = "Administrator"
	DeletedAccountDisplayName = "Deleted account"
)

// Participant is a user resolved to its role variant. The set of
// implementations is closed to this package.
type Participant interface {
	ID() snowflake.ID
	Role() Role
	Stage() Stage
	IsDeleted() bool
	DisplayName() string
	Account() User
	participant()
}

type Student struct {
	User    User
	Profile StudentProfile
}

type Employer struct {
	User    User
	Profile EmployerProfile
}

type Administrator struct {
	User User
}

func (s Student) ID() snowflake.ID { return s.User.ID }
func (s Student) Role() Role       { return RoleStudent }
func (s Student) Stage() Stage     { return s.User.Stage }
func (s Student) IsDeleted() bool  { return s.User.IsDeleted() }
func (s Student) Account() User    { return s.User }
func (Student) participant()       {}

func (s Student) DisplayName() string {
	if s.IsDeleted() {
		return DeletedAccountDisplayName
	}
	return strings.TrimSpace(strings.TrimSpace(s.Profile.LastName) + " " + strings.TrimSpace(s.Profile.FirstName))
}

func (e Employer) ID() snowflake.ID { return e.User.ID }
func (e Employer) Role() Role       { return RoleEmployer }
func (e Employer) Stage() Stage     { return e.User.Stage }
func (e Employer) IsDeleted() bool  { return e.User.IsDeleted() }
func (e Employer) Account() User    { return e.User }
func (Employer) participant()       {}

func (e Employer) DisplayName() string {
	if e.IsDeleted() {
		return DeletedAccountDisplayName
	}
	return strings.TrimSpace(e.Profile.OrganizationName)
}

func (a Administrator) ID() snowflake.ID { return a.User.ID }
func (a Administrator) Role() Role       { return RoleAdministrator }
func (a Administrator) Stage() Stage     { return a.User.Stage }
func (a Administrator) IsDeleted() bool  { return a.User.IsDeleted() }
func (a Administrator) Account() User    { return a.User }
func (Administrator) participant()       {}

func (a Administrator) DisplayName() string {
	if a.IsDeleted() {
		return DeletedAccountDisplayName
	}
	return AdministratorDisplayName
}

// NewParticipant builds the role variant for user. Missing profiles are
// treated as empty.
func NewParticipant(user User, student *StudentProfile, employer *EmployerProfile) Participant {
	switch user.Role {
	case RoleStudent:
		p := Student{User: user}
		if student != nil {
			p.Profile = *student
		}
		return p
	case RoleEmployer:
		p := Employer{User: user}
		if employer != nil {
			p.Profile = *employer
		}
		return p
	default:
		return Administrator{User: user}
	}
}

// Display is the public view of a chat participant.
type Display struct {
	ID          snowflake.ID `json:"id"`
	DisplayName string       `json:"display_name"`
	Role        Role         `json:"role"`
}

func DisplayOf(p Participant) Display {
	return Display{ID: p.ID(), DisplayName: p.DisplayName(), Role: p.Role()}
}

func IsAdministrator(p Participant) bool {
	return p != nil && p.Role() == RoleAdministrator
}
