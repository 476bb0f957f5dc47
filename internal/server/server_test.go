package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/internlink/internal/account/domain"
	"github.com/smallbiznis/internlink/internal/apperr"
	blacklistrepository "github.com/smallbiznis/internlink/internal/blacklist/repository"
	blacklistservice "github.com/smallbiznis/internlink/internal/blacklist/service"
	chatrepository "github.com/smallbiznis/internlink/internal/chat/repository"
	chatservice "github.com/smallbiznis/internlink/internal/chat/service"
	"github.com/smallbiznis/internlink/internal/config"
	favoriterepository "github.com/smallbiznis/internlink/internal/favorite/repository"
	favoriteservice "github.com/smallbiznis/internlink/internal/favorite/service"
	invitationdomain "github.com/smallbiznis/internlink/internal/invitation/domain"
	invitationrepository "github.com/smallbiznis/internlink/internal/invitation/repository"
	invitationservice "github.com/smallbiznis/internlink/internal/invitation/service"
	"github.com/smallbiznis/internlink/internal/observability"
	"github.com/smallbiznis/internlink/internal/registration"
	"github.com/smallbiznis/internlink/internal/testutil/stack"
	vacancyrepository "github.com/smallbiznis/internlink/internal/vacancy/repository"
	vacancyservice "github.com/smallbiznis/internlink/internal/vacancy/service"
	"github.com/smallbiznis/internlink/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "internlink-test-secret"

type harness struct {
	*stack.Stack
	engine *gin.Engine
}

func newHarness(t *testing.T) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := stack.New(t)
	vacancies := vacancyservice.New(vacancyservice.Params{DB: st.DB, Log: st.Log, Repo: vacancyrepository.Provide()})
	bl := blacklistservice.New(blacklistservice.Params{
		DB:       st.DB,
		Log:      st.Log,
		GenID:    st.Node,
		Repo:     blacklistrepository.Provide(),
		Accounts: st.Accounts,
		Gate:     st.Gate,
		Clock:    st.Clock,
	})
	invitations := invitationservice.New(invitationservice.Params{
		DB:        st.DB,
		Log:       st.Log,
		GenID:     st.Node,
		Repo:      invitationrepository.Provide(),
		Accounts:  st.Accounts,
		Vacancies: vacancies,
		Blacklist: bl,
		Gate:      st.Gate,
		Policy:    st.Policy,
		Clock:     st.Clock,
	})
	chats := chatservice.New(chatservice.Params{
		DB:          st.DB,
		Log:         st.Log,
		GenID:       st.Node,
		Repo:        chatrepository.Provide(),
		Accounts:    st.Accounts,
		Blacklist:   bl,
		Invitations: invitations,
		Gate:        st.Gate,
		Policy:      st.Policy,
		Clock:       st.Clock,
	})
	favorites := favoriteservice.New(favoriteservice.Params{
		DB:        st.DB,
		Log:       st.Log,
		GenID:     st.Node,
		Repo:      favoriterepository.Provide(),
		Accounts:  st.Accounts,
		Vacancies: vacancies,
		Blacklist: bl,
		Gate:      st.Gate,
		Clock:     st.Clock,
	})

	engine := NewEngine(observability.Config{Environment: "test"}, nil)
	NewServer(ServerParams{
		Gin:         engine,
		Cfg:         config.Config{AuthJWTSecret: testSecret},
		Log:         st.Log,
		Accounts:    st.Accounts,
		Invitations: invitations,
		Chats:       chats,
		Blacklist:   bl,
		Favorites:   favorites,
	})

	return harness{Stack: st, engine: engine}
}

func token(t *testing.T, userID snowflake.ID) string {
	t.Helper()
	raw, err := IssueToken(testSecret, userID, "", time.Now(), time.Hour)
	require.NoError(t, err)
	return raw
}

func (h harness) request(t *testing.T, method, path string, userID snowflake.ID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  pagination.Meta `json:"meta"`
	Error *errorPayload   `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	rec := h.request(t, http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	h := newHarness(t)

	rec := h.request(t, http.MethodGet, "/nope", 0, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec).Error.Code)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)
	student := h.Seed.Student(accountdomain.StageFullyActivated)
	deleted := h.Seed.Student(accountdomain.StageFullyActivated)
	h.Seed.SoftDelete(deleted)

	wrongSecret, err := IssueToken("other-secret", student, "", time.Now(), time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, student, "", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage", header: "Bearer not-a-token"},
		{name: "wrong secret", header: "Bearer " + wrongSecret},
		{name: "expired", header: "Bearer " + expired},
		{name: "unknown account", header: "Bearer " + token(t, h.Node.Generate())},
		{name: "deleted account", header: "Bearer " + token(t, deleted)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.engine.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decode(t, rec).Error.Type)
		})
	}

	rec := h.request(t, http.MethodGet, "/api/v1/chats", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, int64(0), env.Meta.TotalItems)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestInvitationEndpoints(t *testing.T) {
	h := newHarness(t)
	student := h.Seed.Student(accountdomain.StageFullyActivated)
	employer := h.Seed.Employer(accountdomain.StageFullyActivated, "Acme")

	rec := h.request(t, http.MethodPost, "/api/v1/invitations", employer, map[string]any{
		"type":        "offer",
		"receiver_id": student.String(),
		"message":     "Join our summer internship",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created invitationdomain.Invitation
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, invitationdomain.StatusSent, created.Status)
	assert.Equal(t, student, created.StudentID)

	rec = h.request(t, http.MethodPost, "/api/v1/invitations", employer, map[string]any{
		"type":        "offer",
		"receiver_id": student.String(),
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_invitation", decode(t, rec).Error.Code)

	rec = h.request(t, http.MethodGet, "/api/v1/invitations?direction=incoming&page=1&page_size=10", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode(t, rec).Meta.TotalItems)

	rec = h.request(t, http.MethodGet, "/api/v1/invitations?direction=sideways", student, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_direction", decode(t, rec).Error.Code)

	path := "/api/v1/invitations/" + created.ID.String()
	rec = h.request(t, http.MethodPatch, path+"/status", employer, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_receiver", decode(t, rec).Error.Code)

	rec = h.request(t, http.MethodPatch, path+"/status", student, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var accepted invitationdomain.Invitation
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &accepted))
	assert.Equal(t, invitationdomain.StatusAccepted, accepted.Status)

	rec = h.request(t, http.MethodPatch, path+"/status", student, map[string]any{"status": "rejected"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(apperr.KindInvalidState), decode(t, rec).Error.Type)

	rec = h.request(t, http.MethodGet, path, employer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	outsider := h.Seed.Student(accountdomain.StageFullyActivated)
	rec = h.request(t, http.MethodGet, path, outsider, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.request(t, http.MethodGet, "/api/v1/invitations/abc", student, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPermissionDenialCarriesExplanation(t *testing.T) {
	h := newHarness(t)
	student := h.Seed.Student(accountdomain.StageFullyActivated)
	employer := h.Seed.Employer(accountdomain.StageProfileFilled, "Acme")

	rec := h.request(t, http.MethodPost, "/api/v1/invitations", employer, map[string]any{
		"type":        "offer",
		"receiver_id": student.String(),
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "permission_denied", env.Error.Code)
	assert.Equal(t, registration.DenialEmployerAwaitingAccreditation, env.Error.Message)
}

func TestMessagingEndpoints(t *testing.T) {
	h := newHarness(t)
	student := h.Seed.Student(accountdomain.StageFullyActivated)
	employer := h.Seed.Employer(accountdomain.StageFullyActivated, "Acme")

	rec := h.request(t, http.MethodPost, "/api/v1/messages", employer, map[string]any{
		"receiver_id": student.String(),
		"content":     "  Hello Anna  ",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var message struct {
		ChatID  snowflake.ID `json:"chat_id"`
		Content string       `json:"content"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &message))
	assert.Equal(t, "Hello Anna", message.Content)

	rec = h.request(t, http.MethodGet, "/api/v1/chats", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []struct {
		Counterpart struct {
			DisplayName string `json:"display_name"`
		} `json:"counterpart"`
		UnreadCount int64 `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "Acme", summaries[0].Counterpart.DisplayName)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)

	chatPath := "/api/v1/chats/" + message.ChatID.String()
	rec = h.request(t, http.MethodGet, chatPath+"/messages", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode(t, rec).Meta.TotalItems)

	rec = h.request(t, http.MethodPost, chatPath+"/read", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"marked":1}`, string(decode(t, rec).Data))

	outsider := h.Seed.Employer(accountdomain.StageFullyActivated, "Other")
	rec = h.request(t, http.MethodGet, chatPath+"/messages", outsider, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.request(t, http.MethodPost, "/api/v1/messages", employer, map[string]any{
		"receiver_id": employer.String(),
		"content":     "me",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "self_message", decode(t, rec).Error.Code)

	rec = h.request(t, http.MethodPost, "/api/v1/messages", employer, map[string]any{
		"receiver_id": 12,
		"content":     "numeric ids are rejected",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockingEndpoints(t *testing.T) {
	h := newHarness(t)
	student := h.Seed.Student(accountdomain.StageFullyActivated)
	employer := h.Seed.Employer(accountdomain.StageFullyActivated, "Acme")

	rec := h.request(t, http.MethodPost, "/api/v1/blacklist", student, map[string]any{"user_id": employer.String()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.request(t, http.MethodPost, "/api/v1/blacklist", student, map[string]any{"user_id": employer.String()})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_blocked", decode(t, rec).Error.Code)

	rec = h.request(t, http.MethodGet, "/api/v1/blacklist", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode(t, rec).Meta.TotalItems)

	rec = h.request(t, http.MethodPost, "/api/v1/messages", employer, map[string]any{
		"receiver_id": student.String(),
		"content":     "hello?",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, string(apperr.KindCommunicationBlocked), env.Error.Type)
	assert.Equal(t, "communication_blocked", env.Error.Code)
}

func TestFavoriteEndpoints(t *testing.T) {
	h := newHarness(t)
	student := h.Seed.Student(accountdomain.StageFullyActivated)
	employer := h.Seed.Employer(accountdomain.StageFullyActivated, "Acme")

	body := map[string]any{"kind": "employer", "target_id": employer.String()}
	rec := h.request(t, http.MethodPost, "/api/v1/favorites/toggle", student, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(decode(t, rec).Data), `"favorited":true`)

	rec = h.request(t, http.MethodGet, "/api/v1/favorites", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode(t, rec).Meta.TotalItems)

	rec = h.request(t, http.MethodPost, "/api/v1/favorites/toggle", student, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"favorited":false`)

	rec = h.request(t, http.MethodPost, "/api/v1/favorites/toggle", student, map[string]any{"kind": "planet", "target_id": employer.String()})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_favorite_kind", decode(t, rec).Error.Code)
}

func TestDeleteAndRestoreAccount(t *testing.T) {
	h := newHarness(t)
	student := h.Seed.Student(accountdomain.StageFullyActivated)
	employer := h.Seed.Employer(accountdomain.StageFullyActivated, "Acme")
	admin := h.Seed.Administrator()

	rec := h.request(t, http.MethodDelete, "/api/v1/users/me", student, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = h.request(t, http.MethodGet, "/api/v1/chats", student, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	restorePath := "/api/v1/admin/users/" + student.String() + "/restore"
	rec = h.request(t, http.MethodPost, restorePath, employer, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin_only", decode(t, rec).Error.Code)

	rec = h.request(t, http.MethodPost, restorePath, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.request(t, http.MethodPost, restorePath, admin, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "account_not_deleted", decode(t, rec).Error.Code)

	rec = h.request(t, http.MethodGet, "/api/v1/chats", student, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStageRecalculationEndpoints(t *testing.T) {
	h := newHarness(t)
	student := h.Seed.Student(accountdomain.StageAnonymous)
	employer := h.Seed.Employer(accountdomain.StageProfileFilled, "Acme")
	admin := h.Seed.Administrator()

	var got struct {
		UserID snowflake.ID        `json:"user_id"`
		Stage  accountdomain.Stage `json:"stage"`
	}

	rec := h.request(t, http.MethodPost, "/api/v1/users/me/stage", student, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.Equal(t, student, got.UserID)
	assert.Equal(t, accountdomain.StageProfileFilled, got.Stage)

	h.Seed.StudyPlan(student)
	h.Seed.Resume(student)
	rec = h.request(t, http.MethodPost, "/api/v1/users/me/stage", student, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.Equal(t, accountdomain.StageFullyActivated, got.Stage)

	stagePath := "/api/v1/admin/users/" + employer.String() + "/stage"
	rec = h.request(t, http.MethodPost, stagePath, employer, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin_only", decode(t, rec).Error.Code)

	rec = h.request(t, http.MethodPost, stagePath, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.Equal(t, employer, got.UserID)
	assert.Equal(t, accountdomain.StageFullyActivated, got.Stage)

	rec = h.request(t, http.MethodPost, "/api/v1/admin/users/42/stage", admin, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user_not_found", decode(t, rec).Error.Code)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{err: apperr.Validation("bad", "bad input"), status: http.StatusBadRequest, code: "bad"},
		{err: apperr.NotFound("missing", "missing"), status: http.StatusNotFound, code: "missing"},
		{err: apperr.Forbidden("nope", "nope"), status: http.StatusForbidden, code: "nope"},
		{err: apperr.Blocked("blocked", "blocked"), status: http.StatusForbidden, code: "blocked"},
		{err: apperr.Conflict("dup", "dup"), status: http.StatusConflict, code: "dup"},
		{err: apperr.InvalidState("closed", "closed"), status: http.StatusConflict, code: "closed"},
		{err: apperr.RateLimited("slow_down", "slow down"), status: http.StatusTooManyRequests, code: "slow_down"},
		{err: ErrUnauthorized, status: http.StatusUnauthorized, code: "unauthorized"},
		{err: errors.New("connection reset"), status: http.StatusInternalServerError, code: "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, payload.Code)
		})
	}

	_, payload := mapError(errors.New("dial tcp 10.0.0.1: secret detail"))
	assert.Equal(t, "internal server error", payload.Message)
}
