package settings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain"
	"github.com/NordCoder/Pushkeeper/internal/domain/notification"
	"github.com/NordCoder/Pushkeeper/internal/domain/user"
	"github.com/NordCoder/Pushkeeper/internal/repository/memorytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hook = "https://discord.com/api/webhooks/42/token"

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func newUC() (*Usecase, *memorytest.Users, *memorytest.Notifications) {
	users := memorytest.NewUsers()
	history := memorytest.NewNotifications()
	return New(users, history), users, history
}

func TestUpsertUser_CreatesThenRefreshesName(t *testing.T) {
	uc, _, _ := newUC()
	ctx := context.Background()

	first, err := uc.UpsertUser(ctx, &user.User{ExternalID: "583231", DisplayName: "octocat"})
	require.NoError(t, err)
	assert.Equal(t, user.DefaultPushGoal, first.PushGoal)
	assert.Nil(t, first.AnnoyTime)

	_, err = uc.UpdateSettings(ctx, first.ID, user.Settings{PushGoal: intp(4), AnnoyTime: strp("9:30")})
	require.NoError(t, err)

	again, err := uc.UpsertUser(ctx, &user.User{ExternalID: "583231", DisplayName: "The Octocat"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "The Octocat", again.DisplayName)
	assert.Equal(t, 4, again.PushGoal)
	require.NotNil(t, again.AnnoyTime)
	assert.Equal(t, "09:30", *again.AnnoyTime)
}

func TestUpsertUser_RequiresExternalID(t *testing.T) {
	uc, _, _ := newUC()
	_, err := uc.UpsertUser(context.Background(), &user.User{DisplayName: "ghost"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateSettings_Validation(t *testing.T) {
	uc, users, _ := newUC()
	u := users.Put(&user.User{ExternalID: "1"})

	bad := []user.Settings{
		{PushGoal: intp(0)},
		{PushGoal: intp(-2)},
		{AnnoyTime: strp("25:00")},
		{AnnoyTime: strp("noon")},
		{NotificationEndpoint: strp("https://example.com/hook")},
	}
	for _, s := range bad {
		_, err := uc.UpdateSettings(context.Background(), u.ID, s)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestUpdateSettings_NormalisesAndClears(t *testing.T) {
	uc, users, _ := newUC()
	u := users.Put(&user.User{ExternalID: "1"})
	ctx := context.Background()

	got, err := uc.UpdateSettings(ctx, u.ID, user.Settings{AnnoyTime: strp("7:05"), NotificationEndpoint: strp(" " + hook + " ")})
	require.NoError(t, err)
	assert.Equal(t, "07:05", *got.AnnoyTime)
	assert.Equal(t, hook, *got.NotificationEndpoint)
	assert.True(t, got.Onboarded())

	got, err = uc.UpdateSettings(ctx, u.ID, user.Settings{AnnoyTime: strp("")})
	require.NoError(t, err)
	assert.Nil(t, got.AnnoyTime)
	assert.NotNil(t, got.NotificationEndpoint)
	assert.False(t, got.Onboarded())
}

func TestUpdateSettings_UnknownUser(t *testing.T) {
	uc, _, _ := newUC()
	_, err := uc.UpdateSettings(context.Background(), 99, user.Settings{PushGoal: intp(2)})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetUser_StoreFailure(t *testing.T) {
	uc, users, _ := newUC()
	users.FailOn("GetByID", errors.New("conn reset"))
	_, err := uc.GetUser(context.Background(), 1)
	assert.True(t, domain.IsStoreError(err))
}

func request(t *testing.T, mux http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	uc, _, history := newUC()
	mux := http.NewServeMux()
	NewServer(nil, uc, "admin").Register(mux)

	rec := request(t, mux, http.MethodPut, "/v1/users", `{"external_id":"77","display_name":"mona"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(t, mux, http.MethodPut, "/v1/users", `{"external_id":"77","display_name":"mona"}`, "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"display_name":"mona"`)

	rec = request(t, mux, http.MethodPatch, "/v1/users/1/settings", `{"push_goal":3,"annoy_time":"18:00","notification_endpoint":"`+hook+`"}`, "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"annoy_time":"18:00"`)

	rec = request(t, mux, http.MethodPatch, "/v1/users/1/settings", `{"push_goal":0}`, "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(t, mux, http.MethodPatch, "/v1/users/1/settings", `{"colour":"red"}`, "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(t, mux, http.MethodGet, "/v1/users/1", "", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"push_goal":3`)

	rec = request(t, mux, http.MethodGet, "/v1/users/2", "", "admin")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(t, mux, http.MethodGet, "/v1/users/abc", "", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, history.Create(context.Background(), &notification.Notification{
		UserID: 1, Day: "2024-03-01", Kind: notification.KindReminder, SentAt: time.Now(), Payload: "hey",
	}))
	rec = request(t, mux, http.MethodGet, "/v1/users/1/notifications?limit=5", "", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"reminder"`)
}
