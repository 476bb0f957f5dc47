package registration

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/apperr"
)

//go:embed model.conf
var modelText string

type Action string

const (
	ActionViewVacancies Action = "view_vacancies"
	ActionEditProfile   Action = "edit_profile"
	ActionSendResponse  Action = "send_response"
	ActionSendOffer     Action = "send_offer"
	ActionSendMessage   Action = "send_message"
	ActionAddFavorite   Action = "add_favorite"
	ActionBlockUser     Action = "block_user"
	ActionCreateVacancy Action = "create_vacancy"
	ActionViewResumes   Action = "view_resumes"
)

const (
	DenialEmployerAwaitingAccreditation = "Your organization is awaiting accreditation by an administrator."
	DenialEmployerProfileIncomplete     = "Complete your organization profile to use this feature."
	DenialStudentProfileIncomplete      = "Complete your student profile to use this feature."
	DenialGeneric                       = "This action is not available at your registration stage."
)

// ErrPermissionDenied is the sentinel behind every gate denial; the message
// carries the role and stage specific explanation.
var ErrPermissionDenied = apperr.Forbidden("permission_denied", DenialGeneric)

type rule struct {
	role    accountdomain.Role
	stage   accountdomain.Stage
	actions []Action
}

// permissionTable lists what each non-terminal stage may do. Fully activated
// accounts are allowed everything and have no rows here.
var permissionTable = []rule{
	{accountdomain.RoleStudent, accountdomain.StageAnonymous, []Action{
		ActionViewVacancies, ActionEditProfile,
	}},
	{accountdomain.RoleStudent, accountdomain.StageProfileFilled, []Action{
		ActionViewVacancies, ActionEditProfile, ActionSendResponse,
		ActionSendMessage, ActionAddFavorite, ActionBlockUser,
	}},
	{accountdomain.RoleEmployer, accountdomain.StageAnonymous, []Action{
		ActionEditProfile,
	}},
	{accountdomain.RoleEmployer, accountdomain.StageProfileFilled, []Action{
		ActionEditProfile, ActionViewResumes, ActionSendMessage,
		ActionAddFavorite, ActionBlockUser,
	}},
	{accountdomain.RoleAdministrator, accountdomain.StageAnonymous, []Action{
		ActionEditProfile,
	}},
	{accountdomain.RoleAdministrator, accountdomain.StageProfileFilled, []Action{
		ActionEditProfile,
	}},
}

// Gate answers (role, stage, action) questions from a table loaded once.
// It exposes no way to change the table after construction.
type Gate struct {
	enforcer *casbin.SyncedEnforcer
}

func NewGate() (*Gate, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}

	policies := make([][]string, 0, 32)
	for _, r := range permissionTable {
		for _, action := range r.actions {
			policies = append(policies, []string{string(r.role), string(r.stage), string(action)})
		}
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("load permission table: %w", err)
	}
	return &Gate{enforcer: enforcer}, nil
}

func (g *Gate) IsAllowed(role accountdomain.Role, stage accountdomain.Stage, action Action) bool {
	if stage == accountdomain.StageFullyActivated {
		return true
	}
	allowed, err := g.enforcer.Enforce(string(role), string(stage), string(action))
	return err == nil && allowed
}

func (g *Gate) ExplainDenial(role accountdomain.Role, stage accountdomain.Stage) string {
	switch {
	case role == accountdomain.RoleEmployer && stage == accountdomain.StageProfileFilled:
		return DenialEmployerAwaitingAccreditation
	case role == accountdomain.RoleEmployer && stage == accountdomain.StageAnonymous:
		return DenialEmployerProfileIncomplete
	case role == accountdomain.RoleStudent && stage != accountdomain.StageFullyActivated:
		return DenialStudentProfileIncomplete
	default:
		return DenialGeneric
	}
}

// Check returns nil when allowed and a Forbidden error carrying the denial
// text otherwise.
func (g *Gate) Check(role accountdomain.Role, stage accountdomain.Stage, action Action) error {
	if g.IsAllowed(role, stage, action) {
		return nil
	}
	return ErrPermissionDenied.WithMessage(g.ExplainDenial(role, stage))
}
