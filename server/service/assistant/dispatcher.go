// Package assistant implements the chat dispatch pipeline: classify the
// message, run the matching branch against the store and scheduler, and
// record the exchange.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/usemaya/maya/plugin/ai/aitime"
	"github.com/usemaya/maya/plugin/ai/intent"
	"github.com/usemaya/maya/plugin/ai/memory"
	"github.com/usemaya/maya/plugin/ai/reminder"
	"github.com/usemaya/maya/store"
)

// Classifier turns a chat message into a typed intent. Satisfied by
// *intent.Classifier.
type Classifier interface {
	Classify(ctx context.Context, message string, now time.Time) intent.Intent
}

// Generator produces completion text for a prompt. Satisfied by
// *generate.Generator.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// Dispatcher routes chat messages through the intent branches.
type Dispatcher struct {
	store      *store.Store
	classifier Classifier
	generator  Generator
	memory     *memory.ConversationMemory
	scheduler  reminder.Scheduler
	times      *aitime.Parser

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNow fixes the dispatcher clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// NewDispatcher wires the dispatcher dependencies together.
func NewDispatcher(
	s *store.Store,
	classifier Classifier,
	generator Generator,
	mem *memory.ConversationMemory,
	scheduler reminder.Scheduler,
	times *aitime.Parser,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		store:      s,
		classifier: classifier,
		generator:  generator,
		memory:     mem,
		scheduler:  scheduler,
		times:      times,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SessionKey is the conversation-window key for a user.
func SessionKey(userID int32) string {
	return fmt.Sprintf("chat:%d", userID)
}

// Handle produces the assistant reply for a message and applies the branch
// side effects. Every successful exchange is appended to the permanent chat
// log and to the conversation window.
func (d *Dispatcher) Handle(ctx context.Context, user *store.User, message string) (string, error) {
	now := d.now()
	classified := d.classifier.Classify(ctx, message, now)

	var reply string
	var err error
	switch classified.Action {
	case intent.ActionSaveFact:
		reply, err = d.saveFact(ctx, user, classified.SaveFact)
	case intent.ActionCreateTask:
		reply, err = d.createTask(ctx, user, classified.CreateTask, now)
	case intent.ActionFetchTasks:
		reply, err = d.fetchTasks(ctx, user)
	default:
		reply = d.generalChat(ctx, user, message)
	}
	if err != nil {
		return "", err
	}

	d.record(ctx, user, message, reply)
	return reply, nil
}

func (d *Dispatcher) saveFact(ctx context.Context, user *store.User, data *intent.SaveFact) (string, error) {
	key := store.NormalizeFactKey(data.Key)
	value := strings.TrimSpace(data.Value)
	if key == "" || value == "" {
		return factClarificationReply, nil
	}

	fact, err := d.store.UpsertFact(ctx, &store.UpsertFact{
		CreatorID: user.ID,
		Key:       key,
		Value:     value,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to save fact")
	}
	return fmt.Sprintf("Got it! I'll remember that your %s is %s.", fact.Key, fact.Value), nil
}

func (d *Dispatcher) createTask(ctx context.Context, user *store.User, data *intent.CreateTask, now time.Time) (string, error) {
	title := strings.TrimSpace(data.Title)
	if title == "" {
		return taskClarificationReply, nil
	}
	due, err := d.times.Parse(data.Datetime)
	if err != nil {
		return taskClarificationReply, nil
	}

	dueDate := due.Format(aitime.DatetimeLayout)
	task, err := d.store.CreateTask(ctx, &store.Task{
		CreatorID: user.ID,
		Content:   title,
		DueDate:   dueDate,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create task")
	}

	// A past due date is still a valid task, it just gets no reminder.
	if delay := due.Sub(now); delay > 0 {
		d.scheduler.Schedule(delay, user.Email, task.Content)
		return fmt.Sprintf("Task created: %q (due %s). I'll send you a reminder when it's time.", task.Content, dueDate), nil
	}
	return fmt.Sprintf("Task created: %q (due %s).", task.Content, dueDate), nil
}

func (d *Dispatcher) fetchTasks(ctx context.Context, user *store.User) (string, error) {
	pending := store.TaskStatusPending
	tasks, err := d.store.ListTasks(ctx, &store.FindTask{
		CreatorID: &user.ID,
		Status:    &pending,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to list tasks")
	}
	if len(tasks) == 0 {
		return noPendingTasksReply, nil
	}

	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, "Here are your pending tasks:")
	for _, task := range tasks {
		if task.DueDate == "" {
			lines = append(lines, fmt.Sprintf("- %s", task.Content))
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (Due: %s)", task.Content, task.DueDate))
	}
	return strings.Join(lines, "\n"), nil
}

// generalChat never fails: an unreadable fact list degrades to the placeholder
// the same way an empty conversation window does.
func (d *Dispatcher) generalChat(ctx context.Context, user *store.User, message string) string {
	facts, err := d.store.ListFacts(ctx, &store.FindFact{CreatorID: &user.ID})
	if err != nil {
		d.logger.Warn("failed to load facts for chat prompt", "user", user.ID, "error", err)
		facts = nil
	}
	window := d.memory.Recent(ctx, SessionKey(user.ID))

	prompt := buildChatPrompt(facts, window, message)
	return d.generator.Generate(ctx, prompt)
}

// record appends the exchange to the permanent chat log and the conversation
// window. It runs on a detached context so a client disconnect after the reply
// was produced cannot lose the history write.
func (d *Dispatcher) record(ctx context.Context, user *store.User, message, reply string) {
	ctx = context.WithoutCancel(ctx)

	exchange := []*store.ChatMessage{
		{CreatorID: user.ID, Role: store.ChatMessageRoleUser, Content: message},
		{CreatorID: user.ID, Role: store.ChatMessageRoleAssistant, Content: reply},
	}
	for _, chatMessage := range exchange {
		if _, err := d.store.CreateChatMessage(ctx, chatMessage); err != nil {
			d.logger.Error("failed to persist chat message", "user", user.ID, "error", err)
		}
	}

	d.memory.Append(ctx, SessionKey(user.ID),
		memory.Turn{Role: memory.RoleUser, Content: message},
		memory.Turn{Role: memory.RoleAssistant, Content: reply},
	)
}
