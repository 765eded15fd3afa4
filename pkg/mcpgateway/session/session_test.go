package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/mcpgateway/session"
)

func TestStore_RegisterAndGet(t *testing.T) {
	s := session.NewStore()
	s.Register("sess-1", "org-1")

	got, ok := s.Get("sess-1")
	require.True(t, ok)
	assert.Equal(t, "org-1", got.OrgID)
	assert.Equal(t, 1, s.Count())
}

func TestStore_Get_UnknownReturnsFalse(t *testing.T) {
	s := session.NewStore()

	_, ok := s.Get("missing")
	assert.False(t, ok)
}

func TestStore_Touch_UpdatesLastAccessedAt(t *testing.T) {
	s := session.NewStore()
	s.Register("sess-1", "org-1")

	before, _ := s.Get("sess-1")
	time.Sleep(time.Millisecond)
	s.Touch("sess-1")
	after, _ := s.Get("sess-1")

	assert.True(t, after.LastAccessedAt.After(before.LastAccessedAt))
}

func TestStore_Touch_UnknownIsNoop(t *testing.T) {
	s := session.NewStore()
	s.Touch("missing") // must not panic
	assert.Equal(t, 0, s.Count())
}

func TestStore_Delete(t *testing.T) {
	s := session.NewStore()
	s.Register("sess-1", "org-1")
	s.Delete("sess-1")

	_, ok := s.Get("sess-1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Count())
}

func TestStore_SweepIdle_RemovesOnlyStaleSessions(t *testing.T) {
	s := session.NewStore()
	s.Register("fresh", "org-1")
	s.Register("stale", "org-1")

	// Force "stale" behind the cutoff by sweeping with a timeout shorter
	// than the time that has already elapsed since registration.
	time.Sleep(5 * time.Millisecond)
	s.Touch("fresh")

	removed := s.SweepIdle(2 * time.Millisecond)

	assert.Equal(t, 1, removed)
	_, freshOK := s.Get("fresh")
	_, staleOK := s.Get("stale")
	assert.True(t, freshOK)
	assert.False(t, staleOK)
}

func TestStore_Count(t *testing.T) {
	s := session.NewStore()
	assert.Equal(t, 0, s.Count())
	s.Register("a", "org-1")
	s.Register("b", "org-2")
	assert.Equal(t, 2, s.Count())
}
