package store

// TaskStatus is the lifecycle state of a task. The only transition is
// pending to done; done is terminal.
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusDone    TaskStatus = "done"
)

// Task is a scheduled item owned by a user. Owner and creation time are
// immutable after creation; content and due date stay editable.
type Task struct {
	ID        int32
	UID       string
	CreatorID int32
	Content   string
	DueDate   string // display string, e.g. "2026-09-01 09:00"
	Status    TaskStatus
	CreatedTs int64
}

type FindTask struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	Status    *TaskStatus
	// Limit bounds the result count; zero means unbounded.
	Limit int
	// OrderDesc lists newest first instead of the default oldest first.
	OrderDesc bool
}

type UpdateTask struct {
	ID        int32
	CreatorID int32
	Content   *string
	DueDate   *string
	Status    *TaskStatus
}

type DeleteTask struct {
	ID        int32
	CreatorID int32
}
