package apiv1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usemaya/maya/internal/profile"
	"github.com/usemaya/maya/plugin/ai/memory"
	"github.com/usemaya/maya/server/service/assistant"
	"github.com/usemaya/maya/store"
	"github.com/usemaya/maya/store/cache"
	"github.com/usemaya/maya/store/db"
)

type echoChatHandler struct {
	lastUser    *store.User
	lastMessage string
}

func (h *echoChatHandler) Handle(_ context.Context, user *store.User, message string) (string, error) {
	h.lastUser = user
	h.lastMessage = message
	return "echo: " + message, nil
}

type apiFixture struct {
	e       *echo.Echo
	service *APIV1Service
	store   *store.Store
	chat    *echoChatHandler
	memory  *memory.ConversationMemory
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()

	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		Data:   t.TempDir(),
		Secret: "test-secret",
	}
	require.NoError(t, p.Validate())
	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(ctx))
	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })

	c := cache.New(cache.Config{})
	t.Cleanup(func() { _ = c.Close() })

	chat := &echoChatHandler{}
	mem := memory.New(c)
	service := NewAPIV1Service(p.Secret, p, s, chat, mem)

	e := echo.New()
	service.Register(e)

	return &apiFixture{e: e, service: service, store: s, chat: chat, memory: mem}
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) signup(t *testing.T, email string) *tokenResponse {
	t.Helper()
	rec := f.request(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    email,
		"password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tokens := &tokenResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), tokens))
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	return tokens
}

func TestSignupValidation(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{name: "missing email", email: "", password: "hunter2", want: http.StatusBadRequest},
		{name: "not an email", email: "nope", password: "hunter2", want: http.StatusBadRequest},
		{name: "short password", email: "a@example.com", password: "abc", want: http.StatusBadRequest},
		{name: "valid", email: "a@example.com", password: "hunter2", want: http.StatusCreated},
		{name: "duplicate email", email: "a@example.com", password: "hunter2", want: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.request(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
				"email":    tt.email,
				"password": tt.password,
			})
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestLogin(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "maya@example.com")

	rec := f.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "maya@example.com",
		"password": "hunter2",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "maya@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "hunter2",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh(t *testing.T) {
	f := newAPIFixture(t)
	tokens := f.signup(t, "maya@example.com")

	rec := f.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	fresh := &tokenResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), fresh))
	assert.NotEmpty(t, fresh.AccessToken)

	// An access token is not a refresh token.
	rec = f.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": tokens.AccessToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/chat", "", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/v1/tasks", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	tokens := f.signup(t, "maya@example.com")

	rec := f.request(t, http.MethodPost, "/api/v1/chat", tokens.AccessToken, map[string]string{
		"message": "hello there",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "echo: hello there", resp.Response)
	assert.Equal(t, "maya@example.com", f.chat.lastUser.Email)

	rec = f.request(t, http.MethodPost, "/api/v1/chat", tokens.AccessToken, map[string]string{
		"message": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	tokens := f.signup(t, "maya@example.com")

	rec := f.request(t, http.MethodPost, "/api/v1/tasks", tokens.AccessToken, map[string]string{
		"content":  "water the plants",
		"due_date": "2026-09-01 09:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := &taskResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), created))
	assert.Equal(t, "pending", created.Status)

	// Empty update body is rejected.
	rec = f.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/%d", created.ID), tokens.AccessToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/%d", created.ID), tokens.AccessToken, map[string]string{
		"content": "water all the plants",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.request(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/done", created.ID), tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	finished := &taskResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), finished))
	assert.Equal(t, "done", finished.Status)

	// Marking done twice is rejected.
	rec = f.request(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/done", created.ID), tokens.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/tasks/%d", created.ID), tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTaskOwnerIsolationOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	ownerTokens := f.signup(t, "owner@example.com")
	intruderTokens := f.signup(t, "intruder@example.com")

	rec := f.request(t, http.MethodPost, "/api/v1/tasks", ownerTokens.AccessToken, map[string]string{
		"content": "secret task",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := &taskResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), created))

	rec = f.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/%d", created.ID), intruderTokens.AccessToken, map[string]string{
		"content": "hijacked",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/tasks/%d", created.ID), intruderTokens.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListDoneTasksBounded(t *testing.T) {
	f := newAPIFixture(t)
	tokens := f.signup(t, "maya@example.com")
	ctx := context.Background()

	email := "maya@example.com"
	user, err := f.store.GetUser(ctx, &store.FindUser{Email: &email})
	require.NoError(t, err)

	done := store.TaskStatusDone
	for i := 0; i < 12; i++ {
		task, err := f.store.CreateTask(ctx, &store.Task{
			CreatorID: user.ID,
			Content:   fmt.Sprintf("chore %d", i),
			CreatedTs: int64(1000 + i),
		})
		require.NoError(t, err)
		_, err = f.store.UpdateTask(ctx, &store.UpdateTask{ID: task.ID, CreatorID: user.ID, Status: &done})
		require.NoError(t, err)
	}

	rec := f.request(t, http.MethodGet, "/api/v1/tasks?status=done", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []*taskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 10)
	assert.Equal(t, "chore 11", tasks[0].Content, "most recent first")
}

func TestChatHistoryClear(t *testing.T) {
	f := newAPIFixture(t)
	tokens := f.signup(t, "maya@example.com")
	ctx := context.Background()

	email := "maya@example.com"
	user, err := f.store.GetUser(ctx, &store.FindUser{Email: &email})
	require.NoError(t, err)

	_, err = f.store.CreateChatMessage(ctx, &store.ChatMessage{
		CreatorID: user.ID, Role: store.ChatMessageRoleUser, Content: "hello",
	})
	require.NoError(t, err)
	f.memory.Append(ctx, assistant.SessionKey(user.ID), memory.Turn{Role: memory.RoleUser, Content: "hello"})

	rec := f.request(t, http.MethodGet, "/api/v1/chat/history", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []*chatHistoryMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	rec = f.request(t, http.MethodDelete, "/api/v1/chat/history", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	messages, err := f.store.ListChatMessages(ctx, &store.FindChatMessage{CreatorID: &user.ID})
	require.NoError(t, err)
	assert.Empty(t, messages)
	assert.Empty(t, f.memory.Recent(ctx, assistant.SessionKey(user.ID)))
}
