package apiv1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/usemaya/maya/store"
)

// doneTaskLimit bounds the finished-task listing to the most recent entries.
const doneTaskLimit = 10

type createTaskRequest struct {
	Content string `json:"content"`
	DueDate string `json:"due_date"`
}

type updateTaskRequest struct {
	Content *string `json:"content"`
	DueDate *string `json:"due_date"`
	Status  *string `json:"status"`
}

type taskResponse struct {
	ID        int32  `json:"id"`
	UID       string `json:"uid"`
	Content   string `json:"content"`
	DueDate   string `json:"due_date"`
	Status    string `json:"status"`
	CreatedTs int64  `json:"created_ts"`
}

func convertTask(task *store.Task) *taskResponse {
	return &taskResponse{
		ID:        task.ID,
		UID:       task.UID,
		Content:   task.Content,
		DueDate:   task.DueDate,
		Status:    string(task.Status),
		CreatedTs: task.CreatedTs,
	}
}

// ListTasks returns the user's tasks. Pending tasks come back oldest first;
// done tasks are bounded to the most recent 10.
func (s *APIV1Service) ListTasks(c echo.Context) error {
	user := currentUser(c)

	find := &store.FindTask{CreatorID: &user.ID}
	switch c.QueryParam("status") {
	case "", string(store.TaskStatusPending):
		pending := store.TaskStatusPending
		find.Status = &pending
	case string(store.TaskStatusDone):
		done := store.TaskStatusDone
		find.Status = &done
		find.OrderDesc = true
		find.Limit = doneTaskLimit
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "status must be pending or done")
	}

	tasks, err := s.Store.ListTasks(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tasks")
	}

	response := make([]*taskResponse, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, convertTask(task))
	}
	return c.JSON(http.StatusOK, response)
}

// CreateTask creates a pending task.
func (s *APIV1Service) CreateTask(c echo.Context) error {
	user := currentUser(c)
	req := &createTaskRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed task request")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	task, err := s.Store.CreateTask(c.Request().Context(), &store.Task{
		CreatorID: user.ID,
		Content:   content,
		DueDate:   strings.TrimSpace(req.DueDate),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create task")
	}
	return c.JSON(http.StatusCreated, convertTask(task))
}

// UpdateTask applies a partial update to an owned task.
func (s *APIV1Service) UpdateTask(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)
	taskID, err := parseTaskID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}

	req := &updateTaskRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed task request")
	}
	if req.Content == nil && req.DueDate == nil && req.Status == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "update has no fields")
	}

	update := &store.UpdateTask{
		ID:        taskID,
		CreatorID: user.ID,
		Content:   req.Content,
		DueDate:   req.DueDate,
	}
	if req.Status != nil {
		status := store.TaskStatus(*req.Status)
		if status != store.TaskStatusDone {
			return echo.NewHTTPError(http.StatusBadRequest, "status can only be set to done")
		}
		update.Status = &status
	}

	task, err := s.Store.UpdateTask(ctx, update)
	if err != nil {
		if err == store.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

// CompleteTask marks an owned pending task as done.
func (s *APIV1Service) CompleteTask(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)
	taskID, err := parseTaskID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}

	done := store.TaskStatusDone
	task, err := s.Store.UpdateTask(ctx, &store.UpdateTask{
		ID:        taskID,
		CreatorID: user.ID,
		Status:    &done,
	})
	if err != nil {
		if err == store.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

// DeleteTask removes an owned task.
func (s *APIV1Service) DeleteTask(c echo.Context) error {
	user := currentUser(c)
	taskID, err := parseTaskID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}

	if err := s.Store.DeleteTask(c.Request().Context(), &store.DeleteTask{
		ID:        taskID,
		CreatorID: user.ID,
	}); err != nil {
		if err == store.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete task")
	}
	return c.NoContent(http.StatusNoContent)
}

func parseTaskID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}
