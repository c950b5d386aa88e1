package apiv1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/usemaya/maya/server/service/assistant"
	"github.com/usemaya/maya/store"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type chatHistoryMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"created_ts"`
}

// HandleChat runs a message through the assistant and returns the reply.
func (s *APIV1Service) HandleChat(c echo.Context) error {
	user := currentUser(c)
	req := &chatRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed chat request")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	reply, err := s.Chat.Handle(c.Request().Context(), user, message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to handle message")
	}
	return c.JSON(http.StatusOK, &chatResponse{Response: reply})
}

// GetChatHistory returns the user's permanent chat log, oldest first.
func (s *APIV1Service) GetChatHistory(c echo.Context) error {
	user := currentUser(c)
	messages, err := s.Store.ListChatMessages(c.Request().Context(), &store.FindChatMessage{
		CreatorID: &user.ID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load chat history")
	}

	history := make([]*chatHistoryMessage, 0, len(messages))
	for _, message := range messages {
		history = append(history, &chatHistoryMessage{
			Role:      string(message.Role),
			Content:   message.Content,
			CreatedTs: message.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, history)
}

// ClearChatHistory deletes the user's chat log and evicts their conversation
// window.
func (s *APIV1Service) ClearChatHistory(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)

	if err := s.Store.DeleteChatMessages(ctx, &store.DeleteChatMessage{CreatorID: user.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear chat history")
	}
	s.Memory.Evict(ctx, assistant.SessionKey(user.ID))
	return c.NoContent(http.StatusNoContent)
}
