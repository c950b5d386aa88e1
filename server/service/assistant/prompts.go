package assistant

import (
	"fmt"
	"strings"

	"github.com/usemaya/maya/plugin/ai/memory"
	"github.com/usemaya/maya/store"
)

// Fixed replies for the non-conversational branches.
const (
	factClarificationReply = "It sounds like you want me to remember something, but I couldn't tell what. Could you rephrase it?"
	taskClarificationReply = "I can set that up for you, but I need to know both what the task is and when it's due. Could you give me those details?"
	noPendingTasksReply    = "You have no pending tasks."
)

const generalChatPrompt = `You are Maya, a friendly and helpful personal assistant.

What you know about the user:
%s

Recent conversation:
%s

User's message: "%s"
Maya's response:`

const (
	noFactsPlaceholder  = "You don't know anything about this user yet."
	noWindowPlaceholder = "No prior conversation."
)

// buildChatPrompt assembles the general-chat prompt from the user's stored
// facts, their recent conversation window and the verbatim message.
func buildChatPrompt(facts []*store.Fact, window []memory.Turn, message string) string {
	factSection := noFactsPlaceholder
	if len(facts) > 0 {
		lines := make([]string, 0, len(facts))
		for _, fact := range facts {
			lines = append(lines, fmt.Sprintf("- %s: %s", fact.Key, fact.Value))
		}
		factSection = strings.Join(lines, "\n")
	}

	windowSection := noWindowPlaceholder
	if len(window) > 0 {
		lines := make([]string, 0, len(window))
		for _, turn := range window {
			lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
		}
		windowSection = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(generalChatPrompt, factSection, windowSection, message)
}
