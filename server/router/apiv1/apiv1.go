// Package apiv1 exposes the JSON HTTP API: auth, chat and the task surface.
package apiv1

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/usemaya/maya/internal/profile"
	"github.com/usemaya/maya/plugin/ai/memory"
	"github.com/usemaya/maya/server/auth"
	"github.com/usemaya/maya/server/middleware"
	"github.com/usemaya/maya/store"
)

// userContextKey is where the authenticated user lives on the echo context.
const userContextKey = "maya.user"

// ChatHandler produces the assistant reply for a message. Satisfied by
// *assistant.Dispatcher.
type ChatHandler interface {
	Handle(ctx context.Context, user *store.User, message string) (string, error)
}

// APIV1Service wires the v1 routes.
type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	Chat    ChatHandler
	Memory  *memory.ConversationMemory
	limiter *middleware.RateLimiter
}

// NewAPIV1Service creates the v1 API service.
func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store, chat ChatHandler, mem *memory.ConversationMemory) *APIV1Service {
	return &APIV1Service{
		Secret:  secret,
		Profile: profile,
		Store:   store,
		Chat:    chat,
		Memory:  mem,
		limiter: middleware.NewRateLimiter(2, 5),
	}
}

// Register mounts all v1 routes on the echo server.
func (s *APIV1Service) Register(e *echo.Echo) {
	v1 := e.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", s.Signup)
	authGroup.POST("/login", s.Login)
	authGroup.POST("/refresh", s.Refresh)

	secured := v1.Group("", s.authMiddleware)

	rateLimited := s.limiter.Middleware(func(c echo.Context) string {
		if user, ok := c.Get(userContextKey).(*store.User); ok {
			return strconv.Itoa(int(user.ID))
		}
		return ""
	})
	secured.POST("/chat", s.HandleChat, rateLimited)
	secured.GET("/chat/history", s.GetChatHistory)
	secured.DELETE("/chat/history", s.ClearChatHistory)

	secured.GET("/tasks", s.ListTasks)
	secured.POST("/tasks", s.CreateTask)
	secured.PATCH("/tasks/:id", s.UpdateTask)
	secured.POST("/tasks/:id/done", s.CompleteTask)
	secured.DELETE("/tasks/:id", s.DeleteTask)
}

// authMiddleware authenticates the Bearer access token and loads the user.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := extractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		claims, err := auth.Authenticate(token, auth.AccessTokenAudience, []byte(s.Secret))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
		userID, err := parseUserID(claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{ID: &userID})
		if err != nil {
			if err == store.ErrNotFound {
				return echo.NewHTTPError(http.StatusUnauthorized, "user no longer exists")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

func extractBearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

func parseUserID(subject string) (int32, error) {
	id, err := strconv.ParseInt(subject, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

func currentUser(c echo.Context) *store.User {
	user, _ := c.Get(userContextKey).(*store.User)
	return user
}
