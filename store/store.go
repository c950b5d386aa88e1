package store

import (
	"context"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/usemaya/maya/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	return s.driver.CreateUser(ctx, create)
}

func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	return s.driver.GetUser(ctx, find)
}

func (s *Store) UpsertFact(ctx context.Context, upsert *UpsertFact) (*Fact, error) {
	upsert.Key = NormalizeFactKey(upsert.Key)
	if upsert.Key == "" {
		return nil, errors.New("fact key is required")
	}
	return s.driver.UpsertFact(ctx, upsert)
}

func (s *Store) ListFacts(ctx context.Context, find *FindFact) ([]*Fact, error) {
	return s.driver.ListFacts(ctx, find)
}

func (s *Store) DeleteFact(ctx context.Context, delete *DeleteFact) error {
	delete.Key = NormalizeFactKey(delete.Key)
	return s.driver.DeleteFact(ctx, delete)
}

func (s *Store) CreateTask(ctx context.Context, create *Task) (*Task, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.Status == "" {
		create.Status = TaskStatusPending
	}
	return s.driver.CreateTask(ctx, create)
}

func (s *Store) ListTasks(ctx context.Context, find *FindTask) ([]*Task, error) {
	return s.driver.ListTasks(ctx, find)
}

func (s *Store) GetTask(ctx context.Context, find *FindTask) (*Task, error) {
	tasks, err := s.driver.ListTasks(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNotFound
	}
	return tasks[0], nil
}

// UpdateTask applies a partial update. The pending-to-done transition is the
// only status change allowed; owner and creation time are immutable.
func (s *Store) UpdateTask(ctx context.Context, update *UpdateTask) (*Task, error) {
	if update.Content == nil && update.DueDate == nil && update.Status == nil {
		return nil, errors.New("update has no fields")
	}

	current, err := s.GetTask(ctx, &FindTask{ID: &update.ID, CreatorID: &update.CreatorID})
	if err != nil {
		return nil, err
	}
	if update.Status != nil {
		if *update.Status != TaskStatusDone {
			return nil, errors.Errorf("invalid status transition to %q", *update.Status)
		}
		if current.Status != TaskStatusPending {
			return nil, errors.New("task is already done")
		}
	}

	return s.driver.UpdateTask(ctx, update)
}

func (s *Store) DeleteTask(ctx context.Context, delete *DeleteTask) error {
	return s.driver.DeleteTask(ctx, delete)
}

func (s *Store) CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error) {
	return s.driver.CreateChatMessage(ctx, create)
}

func (s *Store) ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, find)
}

func (s *Store) DeleteChatMessages(ctx context.Context, delete *DeleteChatMessage) error {
	return s.driver.DeleteChatMessages(ctx, delete)
}
