package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang/mock/gomock"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/apperr"
	"github.com/smallbiznis/internlink/internal/blacklist/domain"
	"github.com/smallbiznis/internlink/internal/blacklist/repository"
	"github.com/smallbiznis/internlink/internal/events"
	"github.com/smallbiznis/internlink/internal/events/mocks"
	"github.com/smallbiznis/internlink/internal/registration"
	"github.com/smallbiznis/internlink/internal/testutil/stack"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(st *stack.Stack, pub events.Publisher) domain.Service {
	return New(Params{
		DB:        st.DB,
		Log:       st.Log,
		GenID:     st.Node,
		Repo:      repository.Provide(),
		Accounts:  st.Accounts,
		Gate:      st.Gate,
		Clock:     st.Clock,
		Publisher: pub,
	})
}

func insertFavorite(t *testing.T, st *stack.Stack, owner snowflake.ID, kind string, target snowflake.ID) snowflake.ID {
	t.Helper()
	id := st.Node.Generate()
	var vacancyID, employerID, studentID *snowflake.ID
	switch kind {
	case "vacancy":
		vacancyID = &target
	case "employer":
		employerID = &target
	case "student":
		studentID = &target
	}
	require.NoError(t, st.DB.Exec(
		`INSERT INTO favorites (id, user_id, vacancy_id, employer_id, student_id, target_kind, target_id, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, owner, vacancyID, employerID, studentID, kind, target, time.Now().UTC(),
	).Error)
	return id
}

func insertInvitation(t *testing.T, st *stack.Stack, sender, receiver, student, employer snowflake.ID, typ, status string) snowflake.ID {
	t.Helper()
	id := st.Node.Generate()
	now := time.Now().UTC()
	require.NoError(t, st.DB.Exec(
		`INSERT INTO invitations (id, sender_id, receiver_id, student_id, employer_id, vacancy_key, type, message, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, '', ?, ?, ?)`,
		id, sender, receiver, student, employer, typ, status, now, now,
	).Error)
	return id
}

func invitationStatus(t *testing.T, st *stack.Stack, id snowflake.ID) string {
	t.Helper()
	var status string
	require.NoError(t, st.DB.Raw(`SELECT status FROM invitations WHERE id = ?`, id).Scan(&status).Error)
	return status
}

func TestBlockRejectsSelfAndMissingIDs(t *testing.T) {
	st := stack.New(t)
	svc := newService(st, nil)
	studentID := st.Seed.Student(accountdomain.StageFullyActivated)

	_, err := svc.Block(context.Background(), studentID, studentID)
	assert.True(t, errors.Is(err, domain.ErrSelfBlock))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Block(context.Background(), 0, studentID)
	assert.True(t, errors.Is(err, domain.ErrInvalidID))
}

func TestBlockCascade(t *testing.T) {
	st := stack.New(t)
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), events.TopicUserBlocked, gomock.Any()).Return(nil).Times(1)
	svc := newService(st, pub)
	ctx := context.Background()

	studentID := st.Seed.Student(accountdomain.StageFullyActivated)
	employerID := st.Seed.Employer(accountdomain.StageFullyActivated, "Acme")
	otherEmployerID := st.Seed.Employer(accountdomain.StageFullyActivated, "Globex")
	vacancyID := st.Seed.Vacancy(employerID)
	otherVacancyID := st.Seed.Vacancy(otherEmployerID)

	favVacancy := insertFavorite(t, st, studentID, "vacancy", vacancyID)
	favEmployer := insertFavorite(t, st, studentID, "employer", employerID)
	favStudent := insertFavorite(t, st, employerID, "student", studentID)
	favUnrelated := insertFavorite(t, st, studentID, "vacancy", otherVacancyID)

	sent := insertInvitation(t, st, studentID, employerID, studentID, employerID, "response", "sent")
	accepted := insertInvitation(t, st, employerID, studentID, studentID, employerID, "offer", "accepted")
	cancelled := insertInvitation(t, st, studentID, employerID, studentID, employerID, "response", "cancelled")
	unrelated := insertInvitation(t, st, studentID, otherEmployerID, studentID, otherEmployerID, "response", "sent")

	result, err := svc.Block(ctx, employerID, studentID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.RemovedFavorites)
	assert.Equal(t, 2, result.RejectedInvitations)
	assert.Equal(t, st.Clock.Now(), result.Entry.BlockedAt)

	for _, id := range []snowflake.ID{favVacancy, favEmployer, favStudent} {
		assert.Zero(t, st.Seed.Count("favorites", "id = ?", id))
	}
	assert.Equal(t, int64(1), st.Seed.Count("favorites", "id = ?", favUnrelated))

	assert.Equal(t, "rejected", invitationStatus(t, st, sent))
	assert.Equal(t, "rejected", invitationStatus(t, st, accepted))
	assert.Equal(t, "cancelled", invitationStatus(t, st, cancelled))
	assert.Equal(t, "sent", invitationStatus(t, st, unrelated))
}

func TestBlockIsCheckedInBothDirections(t *testing.T) {
	st := stack.New(t)
	svc := newService(st, nil)
	ctx := context.Background()

	studentID := st.Seed.Student(accountdomain.StageFullyActivated)
	employerID := st.Seed.Employer(accountdomain.StageFullyActivated, "Acme")

	require.NoError(t, svc.EnsureCommunicationAllowed(ctx, studentID, employerID))

	_, err := svc.Block(ctx, studentID, employerID)
	require.NoError(t, err)

	blocked, err := svc.IsBlockedEitherDirection(ctx, employerID, studentID)
	require.NoError(t, err)
	assert.True(t, blocked)

	for _, pair := range [][2]snowflake.ID{{studentID, employerID}, {employerID, studentID}} {
		err := svc.EnsureCommunicationAllowed(ctx, pair[0], pair[1])
		assert.True(t, errors.Is(err, domain.ErrCommunicationBlocked))
		assert.Equal(t, apperr.KindCommunicationBlocked, apperr.KindOf(err))
	}

	_, err = svc.Block(ctx, studentID, employerID)
	assert.True(t, errors.Is(err, domain.ErrAlreadyBlocked))

	// The reverse direction is a distinct entry.
	_, err = svc.Block(ctx, employerID, studentID)
	require.NoError(t, err)
}

func TestBlockGuards(t *testing.T) {
	st := stack.New(t)
	svc := newService(st, nil)
	ctx := context.Background()

	fresh := st.Seed.Student(accountdomain.StageAnonymous)
	employerID := st.Seed.Employer(accountdomain.StageFullyActivated, "Acme")
	adminID := st.Seed.Administrator()
	deleted := st.Seed.Student(accountdomain.StageFullyActivated)
	st.Seed.SoftDelete(deleted)

	_, err := svc.Block(ctx, fresh, employerID)
	assert.True(t, errors.Is(err, registration.ErrPermissionDenied))

	_, err = svc.Block(ctx, employerID, adminID)
	assert.True(t, errors.Is(err, domain.ErrBlockAdministrator))

	_, err = svc.Block(ctx, employerID, deleted)
	assert.True(t, errors.Is(err, accountdomain.ErrUserNotFound))
}

func TestListBlocked(t *testing.T) {
	st := stack.New(t)
	svc := newService(st, nil)
	ctx := context.Background()

	employerID := st.Seed.Employer(accountdomain.StageFullyActivated, "Acme")
	first := st.Seed.Student(accountdomain.StageProfileFilled)
	second := st.Seed.Student(accountdomain.StageProfileFilled)

	_, err := svc.Block(ctx, employerID, first)
	require.NoError(t, err)
	st.Clock.Advance(time.Minute)
	_, err = svc.Block(ctx, employerID, second)
	require.NoError(t, err)

	page, err := svc.ListBlocked(ctx, employerID, pagination.Request{Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Meta.TotalItems)
	assert.Equal(t, 2, page.Meta.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, second, page.Data[0].BlockedUserID)
}
