package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usemaya/maya/internal/profile"
	"github.com/usemaya/maya/plugin/ai/aitime"
	"github.com/usemaya/maya/plugin/ai/intent"
	"github.com/usemaya/maya/plugin/ai/memory"
	"github.com/usemaya/maya/store"
	"github.com/usemaya/maya/store/cache"
	"github.com/usemaya/maya/store/db"
)

type staticClassifier struct {
	result intent.Intent
}

func (c *staticClassifier) Classify(context.Context, string, time.Time) intent.Intent {
	return c.result
}

type recordingGenerator struct {
	reply   string
	prompts []string
}

func (g *recordingGenerator) Generate(_ context.Context, prompt string) string {
	g.prompts = append(g.prompts, prompt)
	return g.reply
}

type scheduledCall struct {
	delay     time.Duration
	recipient string
	content   string
}

type recordingScheduler struct {
	calls []scheduledCall
}

func (s *recordingScheduler) Schedule(delay time.Duration, recipient, content string) {
	s.calls = append(s.calls, scheduledCall{delay: delay, recipient: recipient, content: content})
}

type fixture struct {
	dispatcher *Dispatcher
	store      *store.Store
	generator  *recordingGenerator
	scheduler  *recordingScheduler
	memory     *memory.ConversationMemory
	user       *store.User
	now        time.Time
}

func newFixture(t *testing.T, classified intent.Intent) *fixture {
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

	user, err := s.CreateUser(ctx, &store.User{Email: "maya@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	c := cache.New(cache.Config{})
	t.Cleanup(func() { _ = c.Close() })

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	generator := &recordingGenerator{reply: "hello from the model"}
	scheduler := &recordingScheduler{}
	mem := memory.New(c)

	dispatcher := NewDispatcher(
		s,
		&staticClassifier{result: classified},
		generator,
		mem,
		scheduler,
		aitime.NewParser(time.UTC),
		WithNow(func() time.Time { return now }),
	)

	return &fixture{
		dispatcher: dispatcher,
		store:      s,
		generator:  generator,
		scheduler:  scheduler,
		memory:     mem,
		user:       user,
		now:        now,
	}
}

func TestHandleSaveFact(t *testing.T) {
	f := newFixture(t, intent.Intent{
		Action:   intent.ActionSaveFact,
		SaveFact: &intent.SaveFact{Key: "Favorite_Movie", Value: "Dune"},
	})
	ctx := context.Background()

	reply, err := f.dispatcher.Handle(ctx, f.user, "my favorite movie is Dune")
	require.NoError(t, err)
	assert.Equal(t, "Got it! I'll remember that your favorite movie is Dune.", reply)

	facts, err := f.store.ListFacts(ctx, &store.FindFact{CreatorID: &f.user.ID})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "favorite movie", facts[0].Key)
	assert.Equal(t, "Dune", facts[0].Value)
}

func TestHandleSaveFactIdempotent(t *testing.T) {
	f := newFixture(t, intent.Intent{
		Action:   intent.ActionSaveFact,
		SaveFact: &intent.SaveFact{Key: "name", Value: "Ada"},
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.dispatcher.Handle(ctx, f.user, "my name is Ada")
		require.NoError(t, err)
	}

	facts, err := f.store.ListFacts(ctx, &store.FindFact{CreatorID: &f.user.ID})
	require.NoError(t, err)
	assert.Len(t, facts, 1)
}

func TestHandleSaveFactClarification(t *testing.T) {
	f := newFixture(t, intent.Intent{
		Action:   intent.ActionSaveFact,
		SaveFact: &intent.SaveFact{Key: "name"},
	})
	ctx := context.Background()

	reply, err := f.dispatcher.Handle(ctx, f.user, "remember my name")
	require.NoError(t, err)
	assert.Equal(t, factClarificationReply, reply)

	facts, err := f.store.ListFacts(ctx, &store.FindFact{CreatorID: &f.user.ID})
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestHandleCreateTaskSchedulesFutureReminder(t *testing.T) {
	f := newFixture(t, intent.Intent{
		Action: intent.ActionCreateTask,
		CreateTask: &intent.CreateTask{
			Title:    "call the dentist",
			Datetime: "2026-08-30 12:05",
		},
	})
	ctx := context.Background()

	reply, err := f.dispatcher.Handle(ctx, f.user, "remind me to call the dentist in 5 minutes")
	require.NoError(t, err)
	assert.Contains(t, reply, `"call the dentist"`)
	assert.Contains(t, reply, "2026-08-30 12:05")
	assert.Contains(t, reply, "reminder")

	pending := store.TaskStatusPending
	tasks, err := f.store.ListTasks(ctx, &store.FindTask{CreatorID: &f.user.ID, Status: &pending})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "call the dentist", tasks[0].Content)

	require.Len(t, f.scheduler.calls, 1)
	call := f.scheduler.calls[0]
	assert.Equal(t, 5*time.Minute, call.delay)
	assert.Equal(t, f.user.Email, call.recipient)
	assert.Equal(t, "call the dentist", call.content)
}

func TestHandleCreateTaskPastDueSkipsReminder(t *testing.T) {
	f := newFixture(t, intent.Intent{
		Action: intent.ActionCreateTask,
		CreateTask: &intent.CreateTask{
			Title:    "file the report",
			Datetime: "2026-08-30 09:00",
		},
	})
	ctx := context.Background()

	reply, err := f.dispatcher.Handle(ctx, f.user, "I had to file the report this morning")
	require.NoError(t, err)
	assert.Contains(t, reply, `"file the report"`)
	assert.NotContains(t, reply, "reminder")

	tasks, err := f.store.ListTasks(ctx, &store.FindTask{CreatorID: &f.user.ID})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Empty(t, f.scheduler.calls)
}

func TestHandleCreateTaskClarification(t *testing.T) {
	tests := []struct {
		name string
		data intent.CreateTask
	}{
		{name: "missing title", data: intent.CreateTask{Datetime: "2026-08-30 13:00"}},
		{name: "missing datetime", data: intent.CreateTask{Title: "water the plants"}},
		{name: "unresolvable datetime", data: intent.CreateTask{Title: "water the plants", Datetime: "whenever"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			f := newFixture(t, intent.Intent{Action: intent.ActionCreateTask, CreateTask: &data})
			ctx := context.Background()

			reply, err := f.dispatcher.Handle(ctx, f.user, "set something up")
			require.NoError(t, err)
			assert.Equal(t, taskClarificationReply, reply)

			tasks, err := f.store.ListTasks(ctx, &store.FindTask{CreatorID: &f.user.ID})
			require.NoError(t, err)
			assert.Empty(t, tasks)
			assert.Empty(t, f.scheduler.calls)
		})
	}
}

func TestHandleFetchTasksEmpty(t *testing.T) {
	f := newFixture(t, intent.Intent{Action: intent.ActionFetchTasks})

	reply, err := f.dispatcher.Handle(context.Background(), f.user, "what's on my plate?")
	require.NoError(t, err)
	assert.Equal(t, noPendingTasksReply, reply)
}

func TestHandleFetchTasksListsPendingOldestFirst(t *testing.T) {
	f := newFixture(t, intent.Intent{Action: intent.ActionFetchTasks})
	ctx := context.Background()

	_, err := f.store.CreateTask(ctx, &store.Task{
		CreatorID: f.user.ID, Content: "buy milk", DueDate: "2026-08-31 09:00", CreatedTs: 1000,
	})
	require.NoError(t, err)
	_, err = f.store.CreateTask(ctx, &store.Task{
		CreatorID: f.user.ID, Content: "walk the dog", CreatedTs: 2000,
	})
	require.NoError(t, err)

	done := store.TaskStatusDone
	finished, err := f.store.CreateTask(ctx, &store.Task{CreatorID: f.user.ID, Content: "old chore", CreatedTs: 500})
	require.NoError(t, err)
	_, err = f.store.UpdateTask(ctx, &store.UpdateTask{ID: finished.ID, CreatorID: f.user.ID, Status: &done})
	require.NoError(t, err)

	reply, err := f.dispatcher.Handle(ctx, f.user, "show my tasks")
	require.NoError(t, err)

	lines := strings.Split(reply, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Here are your pending tasks:", lines[0])
	assert.Equal(t, "- buy milk (Due: 2026-08-31 09:00)", lines[1])
	assert.Equal(t, "- walk the dog", lines[2])
	assert.NotContains(t, reply, "old chore")
}

func TestHandleGeneralChatPromptAssembly(t *testing.T) {
	f := newFixture(t, intent.GeneralChat())
	ctx := context.Background()

	_, err := f.store.UpsertFact(ctx, &store.UpsertFact{CreatorID: f.user.ID, Key: "name", Value: "Ada"})
	require.NoError(t, err)
	f.memory.Append(ctx, SessionKey(f.user.ID),
		memory.Turn{Role: memory.RoleUser, Content: "earlier question"},
		memory.Turn{Role: memory.RoleAssistant, Content: "earlier answer"},
	)

	reply, err := f.dispatcher.Handle(ctx, f.user, "what's my name?")
	require.NoError(t, err)
	assert.Equal(t, "hello from the model", reply)

	require.Len(t, f.generator.prompts, 1)
	prompt := f.generator.prompts[0]
	assert.Contains(t, prompt, "- name: Ada")
	assert.Contains(t, prompt, "user: earlier question")
	assert.Contains(t, prompt, "assistant: earlier answer")
	assert.Contains(t, prompt, `User's message: "what's my name?"`)
}

func TestHandleGeneralChatPlaceholders(t *testing.T) {
	f := newFixture(t, intent.GeneralChat())

	_, err := f.dispatcher.Handle(context.Background(), f.user, "hi")
	require.NoError(t, err)

	require.Len(t, f.generator.prompts, 1)
	assert.Contains(t, f.generator.prompts[0], noFactsPlaceholder)
	assert.Contains(t, f.generator.prompts[0], noWindowPlaceholder)
}

func TestHandleRecordsExchange(t *testing.T) {
	f := newFixture(t, intent.GeneralChat())
	ctx := context.Background()

	reply, err := f.dispatcher.Handle(ctx, f.user, "hi")
	require.NoError(t, err)

	messages, err := f.store.ListChatMessages(ctx, &store.FindChatMessage{CreatorID: &f.user.ID})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, store.ChatMessageRoleUser, messages[0].Role)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, store.ChatMessageRoleAssistant, messages[1].Role)
	assert.Equal(t, reply, messages[1].Content)

	window := f.memory.Recent(ctx, SessionKey(f.user.ID))
	require.Len(t, window, 2)
	assert.Equal(t, memory.Turn{Role: memory.RoleUser, Content: "hi"}, window[0])
	assert.Equal(t, memory.Turn{Role: memory.RoleAssistant, Content: reply}, window[1])
}

func TestHandleRecordsClarificationToo(t *testing.T) {
	f := newFixture(t, intent.Intent{
		Action:   intent.ActionSaveFact,
		SaveFact: &intent.SaveFact{},
	})
	ctx := context.Background()

	_, err := f.dispatcher.Handle(ctx, f.user, "remember")
	require.NoError(t, err)

	messages, err := f.store.ListChatMessages(ctx, &store.FindChatMessage{CreatorID: &f.user.ID})
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}
