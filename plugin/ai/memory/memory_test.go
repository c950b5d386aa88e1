package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usemaya/maya/store/cache"
)

func newTestMemory(t *testing.T) *ConversationMemory {
	t.Helper()
	c := cache.New(cache.DefaultConfig())
	t.Cleanup(func() { _ = c.Close() })
	return New(c)
}

func TestAppendAndRecent(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	m.Append(ctx, "s1",
		Turn{Role: RoleUser, Content: "hi"},
		Turn{Role: RoleAssistant, Content: "hello!"},
	)

	window := m.Recent(ctx, "s1")
	require.Len(t, window, 2)
	assert.Equal(t, RoleUser, window[0].Role)
	assert.Equal(t, "hi", window[0].Content)
	assert.Equal(t, RoleAssistant, window[1].Role)
}

func TestWindowNeverExceedsTenTurns(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		m.Append(ctx, "s1", Turn{Role: RoleUser, Content: fmt.Sprintf("msg-%d", i)})
	}

	window := m.Recent(ctx, "s1")
	require.Len(t, window, 10)
	assert.Equal(t, "msg-15", window[0].Content, "oldest turns are evicted first")
	assert.Equal(t, "msg-24", window[9].Content)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	m.Append(ctx, "s1", Turn{Role: RoleUser, Content: "for s1"})
	m.Append(ctx, "s2", Turn{Role: RoleUser, Content: "for s2"})

	require.Len(t, m.Recent(ctx, "s1"), 1)
	assert.Equal(t, "for s1", m.Recent(ctx, "s1")[0].Content)
	assert.Equal(t, "for s2", m.Recent(ctx, "s2")[0].Content)
}

func TestEvict(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	m.Append(ctx, "s1", Turn{Role: RoleUser, Content: "hi"})
	m.Evict(ctx, "s1")

	assert.Empty(t, m.Recent(ctx, "s1"))
}

func TestNilCacheDegradesToEmptyWindow(t *testing.T) {
	m := New(nil)
	ctx := context.Background()

	// Neither call may panic or fail.
	m.Append(ctx, "s1", Turn{Role: RoleUser, Content: "hi"})
	m.Evict(ctx, "s1")
	assert.Empty(t, m.Recent(ctx, "s1"))
}

func TestCorruptWindowIsDropped(t *testing.T) {
	c := cache.New(cache.DefaultConfig())
	t.Cleanup(func() { _ = c.Close() })
	m := New(c)
	ctx := context.Background()

	c.SetWithTTL(ctx, "s1", []byte("{not json"), time.Minute)

	assert.Empty(t, m.Recent(ctx, "s1"))
	// The corrupt entry is gone; new appends work again.
	m.Append(ctx, "s1", Turn{Role: RoleUser, Content: "fresh"})
	assert.Len(t, m.Recent(ctx, "s1"), 1)
}
