package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(n int) []ResultItem {
	out := make([]ResultItem, n)
	for i := range out {
		out[i] = ResultItem{Kind: KindPhoto, MediaURL: "https://cdn.example/" + string(rune('a'+i))}
	}
	return out
}

func TestCreateIsIdempotent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	st := newMemoryStore(func() time.Time { return now })

	s, created := st.Create(7, "neo")
	require.True(t, created)
	assert.Equal(t, FilterAll, s.Filter)
	assert.Equal(t, ModeNone, s.Mode)
	assert.Equal(t, now, s.JoinedAt)

	s2, created := st.Create(7, "other")
	assert.False(t, created)
	assert.Equal(t, "neo", s2.DisplayName)
	assert.Equal(t, 1, st.Len())
}

func TestUpdateMissingSession(t *testing.T) {
	st := NewMemoryStore()
	err := st.Update(1, func(*Session) error { return nil })
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestViewReturnsCopy(t *testing.T) {
	st := NewMemoryStore()
	st.Create(1, "u")
	require.NoError(t, st.Update(1, func(s *Session) error {
		s.SetResults(items(2))
		return nil
	}))

	snap, ok := st.View(1)
	require.True(t, ok)
	snap.Results[0].MediaURL = "changed"
	snap.Cursor = 1

	again, _ := st.View(1)
	assert.NotEqual(t, "changed", again.Results[0].MediaURL)
	assert.Equal(t, 0, again.Cursor)
}

func TestMoveStaysInBounds(t *testing.T) {
	var s Session
	assert.False(t, s.Move(1), "empty result set never moves")
	assert.Equal(t, 0, s.Cursor)

	s.SetResults(items(3))
	assert.False(t, s.Move(-1))
	assert.True(t, s.Move(1))
	assert.True(t, s.Move(1))
	assert.False(t, s.Move(1))
	assert.Equal(t, 2, s.Cursor)

	s.SetResults(items(1))
	assert.Equal(t, 0, s.Cursor, "new results reset the cursor")
}

func TestTakeModeResets(t *testing.T) {
	var s Session
	s.Await(ModeAwaitingModerationID, OpBan)
	mode, op := s.TakeMode()
	assert.Equal(t, ModeAwaitingModerationID, mode)
	assert.Equal(t, OpBan, op)
	assert.Equal(t, ModeNone, s.Mode)
	assert.Empty(t, s.ModerationOp)

	s.Await(ModeAwaitingQuery, OpBan)
	assert.Empty(t, s.ModerationOp, "op only kept for moderation input")
}

func TestParseFilter(t *testing.T) {
	f, ok := ParseFilter(" Video ")
	assert.True(t, ok)
	assert.Equal(t, FilterVideo, f)

	_, ok = ParseFilter("sculpture")
	assert.False(t, ok)

	f, ok = ParseFilter("all")
	assert.True(t, ok)
	assert.Equal(t, FilterAll, f)
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	st := NewMemoryStore()
	st.Create(1, "a")
	st.Create(2, "b")

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = st.Update(1, func(s *Session) error { s.SearchCount++; return nil })
		}()
		go func() {
			defer wg.Done()
			_ = st.Update(2, func(s *Session) error { s.SearchCount++; return nil })
		}()
	}
	wg.Wait()

	a, _ := st.View(1)
	b, _ := st.View(2)
	assert.Equal(t, 200, a.SearchCount)
	assert.Equal(t, 200, b.SearchCount)
	assert.Equal(t, []int64{1, 2}, st.UserIDs())
}
