package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Generator produces completion text for a prompt. Satisfied by
// *generate.Generator.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// Classifier turns a free-form chat message into a typed Intent.
type Classifier struct {
	generator Generator
	logger    *slog.Logger
}

// NewClassifier creates a classifier backed by the given generator.
func NewClassifier(generator Generator) *Classifier {
	return &Classifier{
		generator: generator,
		logger:    slog.Default(),
	}
}

// classificationPrompt demands one of the four closed JSON shapes. The current
// time is embedded so the model resolves relative dates ("tomorrow at 5pm")
// into an absolute "YYYY-MM-DD HH:MM" string.
const classificationPrompt = `Analyze the user's message to identify the intent and extract entities.
The current date and time is: %s

The possible intents are:
1. "create_task": the user wants to set a reminder or schedule a task.
2. "fetch_tasks": the user wants to see their pending tasks.
3. "save_fact": the user is stating a fact about themselves (e.g. "My name is...", "My favorite movie is...").
4. "general_chat": the user is asking a question, making a statement, or having a normal conversation.

Respond ONLY with a single, raw JSON object matching exactly one of these shapes:
{"action": "create_task", "data": {"title": "...", "datetime": "YYYY-MM-DD HH:MM", "priority": "high|medium|low", "category": "...", "notes": "..."}}
{"action": "fetch_tasks"}
{"action": "save_fact", "data": {"key": "...", "value": "..."}}
{"action": "general_chat"}

Resolve relative dates in the message against the current time.

User's message: "%s"
JSON Response:`

// envelope is the expected top-level JSON structure from the model.
type envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// Classify returns the typed intent for a message. It never fails: malformed
// JSON, an unknown action tag or a missing data object all degrade to
// GeneralChat so the user always gets a conversational reply.
func (c *Classifier) Classify(ctx context.Context, message string, now time.Time) Intent {
	prompt := fmt.Sprintf(classificationPrompt, now.Format("2006-01-02 15:04"), message)
	response := c.generator.Generate(ctx, prompt)

	result, err := parseIntent(response)
	if err != nil {
		c.logger.Warn("intent parse failed, defaulting to general chat", "error", err)
		return GeneralChat()
	}
	return result
}

// parseIntent validates the model output against the four closed shapes.
func parseIntent(response string) (Intent, error) {
	cleaned := stripCodeFences(response)

	var env envelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return Intent{}, fmt.Errorf("malformed intent JSON: %w", err)
	}

	switch Action(env.Action) {
	case ActionCreateTask:
		if len(env.Data) == 0 {
			return Intent{}, fmt.Errorf("create_task intent without data")
		}
		var data CreateTask
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return Intent{}, fmt.Errorf("malformed create_task data: %w", err)
		}
		return Intent{Action: ActionCreateTask, CreateTask: &data}, nil

	case ActionSaveFact:
		if len(env.Data) == 0 {
			return Intent{}, fmt.Errorf("save_fact intent without data")
		}
		var data SaveFact
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return Intent{}, fmt.Errorf("malformed save_fact data: %w", err)
		}
		return Intent{Action: ActionSaveFact, SaveFact: &data}, nil

	case ActionFetchTasks:
		return Intent{Action: ActionFetchTasks}, nil

	case ActionGeneralChat:
		return GeneralChat(), nil

	default:
		return Intent{}, fmt.Errorf("unknown action %q", env.Action)
	}
}

// stripCodeFences extracts the JSON body when the model wraps its answer in a
// markdown code fence despite instructions.
func stripCodeFences(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}

	lines := strings.Split(response, "\n")
	var jsonLines []string
	inFence := false
	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			jsonLines = append(jsonLines, line)
		}
	}
	return strings.Join(jsonLines, "\n")
}
