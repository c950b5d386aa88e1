// Package intent classifies chat messages into the closed set of assistant
// intents by prompting the completion chain for a constrained JSON object.
package intent

// Action is the classified user-goal tag driving dispatch branching.
type Action string

const (
	ActionCreateTask  Action = "create_task"
	ActionFetchTasks  Action = "fetch_tasks"
	ActionSaveFact    Action = "save_fact"
	ActionGeneralChat Action = "general_chat"
)

// CreateTask carries the entities extracted for a task creation request.
// Fields the model could not extract are left empty; the dispatcher asks for
// clarification instead of persisting an incomplete task.
type CreateTask struct {
	Title    string `json:"title"`
	Datetime string `json:"datetime"` // "YYYY-MM-DD HH:MM"
	Priority string `json:"priority"` // high | medium | low
	Category string `json:"category"`
	Notes    string `json:"notes"`
}

// SaveFact carries the key/value pair extracted for a fact statement.
type SaveFact struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Intent is the tagged classification result. Exactly the payload matching
// Action is non-nil.
type Intent struct {
	Action     Action
	CreateTask *CreateTask
	SaveFact   *SaveFact
}

// GeneralChat is the fail-open default: any parse failure degrades to a plain
// conversational reply rather than an error.
func GeneralChat() Intent {
	return Intent{Action: ActionGeneralChat}
}
