package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/apperr"
	blacklistdomain "github.com/smallbiznis/internlink/internal/blacklist/domain"
	blacklistrepository "github.com/smallbiznis/internlink/internal/blacklist/repository"
	blacklistservice "github.com/smallbiznis/internlink/internal/blacklist/service"
	"github.com/smallbiznis/internlink/internal/favorite/domain"
	"github.com/smallbiznis/internlink/internal/favorite/repository"
	"github.com/smallbiznis/internlink/internal/registration"
	"github.com/smallbiznis/internlink/internal/testutil/stack"
	vacancydomain "github.com/smallbiznis/internlink/internal/vacancy/domain"
	vacancyrepository "github.com/smallbiznis/internlink/internal/vacancy/repository"
	vacancyservice "github.com/smallbiznis/internlink/internal/vacancy/service"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	*stack.Stack
	svc       domain.Service
	blacklist blacklistdomain.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := stack.New(t)
	bl := blacklistservice.New(blacklistservice.Params{
		DB:       st.DB,
		Log:      st.Log,
		GenID:    st.Node,
		Repo:     blacklistrepository.Provide(),
		Accounts: st.Accounts,
		Gate:     st.Gate,
		Clock:    st.Clock,
	})
	svc := New(Params{
		DB:        st.DB,
		Log:       st.Log,
		GenID:     st.Node,
		Repo:      repository.Provide(),
		Accounts:  st.Accounts,
		Vacancies: vacancyservice.New(vacancyservice.Params{DB: st.DB, Log: st.Log, Repo: vacancyrepository.Provide()}),
		Blacklist: bl,
		Gate:      st.Gate,
		Clock:     st.Clock,
	})
	return fixture{Stack: st, svc: svc, blacklist: bl}
}

func TestToggleAddsThenRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	studentID := f.Seed.Student(accountdomain.StageProfileFilled)
	employerID := f.Seed.Employer(accountdomain.StageFullyActivated, "Acme")
	vacancyID := f.Seed.Vacancy(employerID)

	added, err := f.svc.Toggle(ctx, studentID, domain.KindVacancy, vacancyID)
	require.NoError(t, err)
	assert.True(t, added.Favorited)
	require.NotNil(t, added.Favorite)
	require.NotNil(t, added.Favorite.VacancyID)
	assert.Equal(t, vacancyID, *added.Favorite.VacancyID)
	assert.Nil(t, added.Favorite.EmployerID)
	assert.Equal(t, int64(1), f.Seed.Count("favorites", "user_id = ? AND vacancy_id = ?", studentID, vacancyID))

	removed, err := f.svc.Toggle(ctx, studentID, domain.KindVacancy, vacancyID)
	require.NoError(t, err)
	assert.False(t, removed.Favorited)
	assert.Zero(t, f.Seed.Count("favorites", "user_id = ?", studentID))
}

func TestToggleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	studentID := f.Seed.Student(accountdomain.StageFullyActivated)
	otherStudent := f.Seed.Student(accountdomain.StageFullyActivated)
	anonymousStudent := f.Seed.Student(accountdomain.StageAnonymous)
	employerID := f.Seed.Employer(accountdomain.StageFullyActivated, "Acme")
	deletedEmployer := f.Seed.Employer(accountdomain.StageFullyActivated, "Gone")
	f.Seed.SoftDelete(deletedEmployer)
	adminID := f.Seed.Administrator()

	cases := []struct {
		name   string
		user   snowflake.ID
		kind   domain.Kind
		target snowflake.ID
		want   error
	}{
		{"bad kind", studentID, domain.Kind("course"), employerID, domain.ErrInvalidKind},
		{"missing target", studentID, domain.KindEmployer, 0, domain.ErrInvalidID},
		{"self", employerID, domain.KindEmployer, employerID, domain.ErrSelfFavorite},
		{"student favorites student", studentID, domain.KindStudent, otherStudent, domain.ErrKindNotAllowed},
		{"employer favorites vacancy", employerID, domain.KindVacancy, 1, domain.ErrKindNotAllowed},
		{"administrator", adminID, domain.KindStudent, studentID, domain.ErrKindNotAllowed},
		{"deleted employer", studentID, domain.KindEmployer, deletedEmployer, domain.ErrTargetNotFound},
		{"kind mismatch", studentID, domain.KindEmployer, otherStudent, domain.ErrTargetNotFound},
		{"missing vacancy", studentID, domain.KindVacancy, 12345, vacancydomain.ErrVacancyNotFound},
		{"stage", anonymousStudent, domain.KindEmployer, employerID, registration.ErrPermissionDenied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Toggle(ctx, tc.user, tc.kind, tc.target)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}

	res, err := f.svc.Toggle(ctx, employerID, domain.KindStudent, studentID)
	require.NoError(t, err)
	assert.True(t, res.Favorited)
	require.NotNil(t, res.Favorite.StudentID)
}

func TestToggleRemovesFavoriteWhoseTargetWentAway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	studentID := f.Seed.Student(accountdomain.StageFullyActivated)
	employerID := f.Seed.Employer(accountdomain.StageFullyActivated, "Acme")
	otherEmployer := f.Seed.Employer(accountdomain.StageFullyActivated, "Globex")
	vacancyID := f.Seed.Vacancy(employerID)

	_, err := f.svc.Toggle(ctx, studentID, domain.KindVacancy, vacancyID)
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, studentID, domain.KindEmployer, otherEmployer)
	require.NoError(t, err)

	require.NoError(t, f.DB.Exec(`UPDATE vacancies SET deleted_at = ? WHERE id = ?`, f.Clock.Now(), vacancyID).Error)
	f.Seed.SoftDelete(otherEmployer)

	removed, err := f.svc.Toggle(ctx, studentID, domain.KindVacancy, vacancyID)
	require.NoError(t, err)
	assert.False(t, removed.Favorited)
	removed, err = f.svc.Toggle(ctx, studentID, domain.KindEmployer, otherEmployer)
	require.NoError(t, err)
	assert.False(t, removed.Favorited)
	assert.Zero(t, f.Seed.Count("favorites", "user_id = ?", studentID))

	_, err = f.svc.Toggle(ctx, studentID, domain.KindVacancy, vacancyID)
	assert.True(t, errors.Is(err, vacancydomain.ErrVacancyNotFound), "got %v", err)
}

func TestToggleRemovesAfterStageDrop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	studentID := f.Seed.Student(accountdomain.StageFullyActivated)
	employerID := f.Seed.Employer(accountdomain.StageFullyActivated, "Acme")

	_, err := f.svc.Toggle(ctx, studentID, domain.KindEmployer, employerID)
	require.NoError(t, err)

	require.NoError(t, f.DB.Exec(`UPDATE users SET stage = ? WHERE id = ?`, accountdomain.StageAnonymous, studentID).Error)

	removed, err := f.svc.Toggle(ctx, studentID, domain.KindEmployer, employerID)
	require.NoError(t, err)
	assert.False(t, removed.Favorited)
	assert.Zero(t, f.Seed.Count("favorites", "user_id = ?", studentID))

	_, err = f.svc.Toggle(ctx, studentID, domain.KindEmployer, employerID)
	assert.True(t, errors.Is(err, registration.ErrPermissionDenied), "got %v", err)
}

func TestToggleBlockedPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	studentID := f.Seed.Student(accountdomain.StageFullyActivated)
	employerID := f.Seed.Employer(accountdomain.StageFullyActivated, "Acme")
	vacancyID := f.Seed.Vacancy(employerID)

	_, err := f.blacklist.Block(ctx, employerID, studentID)
	require.NoError(t, err)

	_, err = f.svc.Toggle(ctx, studentID, domain.KindVacancy, vacancyID)
	assert.Equal(t, apperr.KindCommunicationBlocked, apperr.KindOf(err))
	_, err = f.svc.Toggle(ctx, studentID, domain.KindEmployer, employerID)
	assert.Equal(t, apperr.KindCommunicationBlocked, apperr.KindOf(err))
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	studentID := f.Seed.Student(accountdomain.StageFullyActivated)
	employerID := f.Seed.Employer(accountdomain.StageFullyActivated, "Acme")
	vacancyID := f.Seed.Vacancy(employerID)

	_, err := f.svc.Toggle(ctx, studentID, domain.KindEmployer, employerID)
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, studentID, domain.KindVacancy, vacancyID)
	require.NoError(t, err)

	page, err := f.svc.List(ctx, studentID, pagination.Request{Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Meta.TotalItems)
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.Len(t, page.Data, 1)
}
