package registration

import (
	"strings"

	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/config"
)

// Values the signup flow writes before the user edits their profile.
var placeholderNames = map[string]struct{}{
	"":                 {},
	"-":                {},
	"n/a":              {},
	"none":             {},
	"unknown":          {},
	"user":             {},
	"new user":         {},
	"student":          {},
	"employer":         {},
	"name":             {},
	"first name":       {},
	"last name":        {},
	"firstname":        {},
	"lastname":         {},
	"organization":     {},
	"new organization": {},
	"company":          {},
}

func isPlaceholder(value string) bool {
	_, ok := placeholderNames[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

func present(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Engine computes registration stages.
type Engine struct {
	policy *config.PolicyHolder
}

func NewEngine(policy *config.PolicyHolder) *Engine {
	return &Engine{policy: policy}
}

// Recalculate sets snap.User.Stage from the snapshot contents. It never fails
// and gives the same answer when called again on the same snapshot.
func (e *Engine) Recalculate(snap *accountdomain.Snapshot) {
	if snap == nil || snap.User == nil {
		return
	}
	snap.User.Stage = e.compute(snap)
}

func (e *Engine) compute(snap *accountdomain.Snapshot) accountdomain.Stage {
	user := snap.User
	if user.IsDeleted() {
		return accountdomain.StageAnonymous
	}

	switch user.Role {
	case accountdomain.RoleAdministrator:
		return accountdomain.StageFullyActivated
	case accountdomain.RoleStudent:
		return studentStage(snap)
	case accountdomain.RoleEmployer:
		return e.employerStage(snap)
	default:
		return accountdomain.StageAnonymous
	}
}

func studentStage(snap *accountdomain.Snapshot) accountdomain.Stage {
	p := snap.Student
	if p == nil || isPlaceholder(p.FirstName) || isPlaceholder(p.LastName) || !present(p.Phone) {
		return accountdomain.StageAnonymous
	}

	hasPlan := false
	for _, plan := range snap.StudyPlans {
		if plan.IsActive && plan.DeletedAt == nil && plan.Complete() {
			hasPlan = true
			break
		}
	}
	hasResume := false
	for _, resume := range snap.Resumes {
		if resume.IsActive && resume.DeletedAt == nil {
			hasResume = true
			break
		}
	}
	if hasPlan && hasResume {
		return accountdomain.StageFullyActivated
	}
	return accountdomain.StageProfileFilled
}

func (e *Engine) employerStage(snap *accountdomain.Snapshot) accountdomain.Stage {
	p := snap.Employer
	if p == nil || isPlaceholder(p.OrganizationName) || !present(p.ContactName) || !present(p.Phone) {
		return accountdomain.StageAnonymous
	}
	if !p.Accredited {
		return accountdomain.StageProfileFilled
	}

	complete := present(p.TaxNumber) && present(p.Description) && present(p.Address) && present(p.Website)
	if complete {
		return accountdomain.StageFullyActivated
	}

	// A verified employer keeps its stage when only optional organization
	// fields are blank, unless the strict policy is configured.
	if snap.User.Stage == accountdomain.StageFullyActivated &&
		e.policy.Get().EmployerDemotion == config.EmployerDemotionPreserveVerified {
		return accountdomain.StageFullyActivated
	}
	return accountdomain.StageProfileFilled
}
