// Package memory provides the bounded recent-turn cache that gives the
// general-chat path short-term context. It is a best-effort layer: the
// permanent chat log is the authoritative history, so an unavailable backing
// cache degrades to an empty window instead of failing the request.
package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/usemaya/maya/store/cache"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of a conversation window.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	// windowSize bounds the conversation window; older turns are dropped
	// oldest-first.
	windowSize = 10

	// windowTTL is refreshed on every write, so a window only expires after
	// an hour of inactivity.
	windowTTL = time.Hour

	// opTimeout bounds every backing-store call.
	opTimeout = 2 * time.Second
)

// ConversationMemory stores per-session conversation windows.
type ConversationMemory struct {
	cache  cache.Cache
	logger *slog.Logger
}

// New creates a conversation memory over the given cache. A nil cache is
// valid and behaves as an always-empty window.
func New(c cache.Cache) *ConversationMemory {
	return &ConversationMemory{
		cache:  c,
		logger: slog.Default(),
	}
}

// Recent returns up to the last 10 turns for a session, oldest first.
func (m *ConversationMemory) Recent(ctx context.Context, sessionID string) []Turn {
	if m.cache == nil {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, ok := m.cache.Get(opCtx, sessionID)
	if !ok {
		return nil
	}

	var window []Turn
	if err := json.Unmarshal(raw, &window); err != nil {
		m.logger.Warn("dropping corrupt conversation window", "session", sessionID, "error", err)
		m.cache.Delete(opCtx, sessionID)
		return nil
	}
	return window
}

// Append adds turns to a session window, truncates it to the last 10 entries
// and resets the TTL from the write moment. The read-modify-write is not
// atomic across concurrent requests of one session; this layer is
// best-effort by contract.
func (m *ConversationMemory) Append(ctx context.Context, sessionID string, turns ...Turn) {
	if m.cache == nil || len(turns) == 0 {
		return
	}

	window := append(m.Recent(ctx, sessionID), turns...)
	if len(window) > windowSize {
		window = window[len(window)-windowSize:]
	}

	raw, err := json.Marshal(window)
	if err != nil {
		m.logger.Warn("failed to encode conversation window", "session", sessionID, "error", err)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	m.cache.SetWithTTL(opCtx, sessionID, raw, windowTTL)
}

// Evict removes a session window entirely.
func (m *ConversationMemory) Evict(ctx context.Context, sessionID string) {
	if m.cache == nil {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	m.cache.Delete(opCtx, sessionID)
}
