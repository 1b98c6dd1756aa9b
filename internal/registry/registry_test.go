package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeChannel(t *testing.T) {
	cases := map[string]string{
		"news":              "@news",
		"@news":             "@news",
		"  @@news ":         "@news",
		"https://t.me/news": "@news",
		"t.me/news/":        "@news",
		"":                  "",
		"@":                 "",
		"two words":         "",
		"https://t.me/a/b":  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeChannel(in), "input %q", in)
	}
}

func TestAddChannelIsIdempotent(t *testing.T) {
	r := NewMemory(time.Now())

	name, added := r.AddChannel("news")
	assert.True(t, added)
	assert.Equal(t, "@news", name)

	name, added = r.AddChannel("@news")
	assert.False(t, added, "normalized duplicate")
	assert.Equal(t, "@news", name)

	_, added = r.AddChannel("@NEWS")
	assert.False(t, added)
	assert.Len(t, r.Channels(), 1)

	name, added = r.AddChannel("   ")
	assert.False(t, added)
	assert.Empty(t, name)
}

func TestRemoveChannelKeepsOrder(t *testing.T) {
	r := NewMemory(time.Now())
	for _, c := range []string{"a", "b", "c"} {
		r.AddChannel(c)
	}
	snapshot := r.Channels()

	_, removed := r.RemoveChannel("b")
	assert.True(t, removed)
	assert.Equal(t, []string{"@a", "@c"}, r.Channels())
	assert.Equal(t, []string{"@a", "@b", "@c"}, snapshot, "earlier snapshots are not torn")

	name, removed := r.RemoveChannel("zzz")
	assert.False(t, removed)
	assert.Equal(t, "@zzz", name)
}

func TestBanUnbanIdempotent(t *testing.T) {
	r := NewMemory(time.Now())
	assert.True(t, r.Ban(5))
	assert.False(t, r.Ban(5))
	assert.True(t, r.IsBanned(5))
	assert.Equal(t, 1, r.BannedCount())

	assert.True(t, r.Unban(5))
	assert.False(t, r.Unban(5))
	assert.False(t, r.IsBanned(5))
}

func TestStatsCounters(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewMemory(start)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); r.RecordUser() }()
		go func() { defer wg.Done(); r.RecordSearch() }()
	}
	wg.Wait()
	r.AddChannel("x")
	r.Ban(9)

	s := r.Stats()
	assert.EqualValues(t, 50, s.TotalUsers)
	assert.EqualValues(t, 50, s.TotalSearches)
	assert.Equal(t, []string{"@x"}, s.Channels)
	assert.Equal(t, 1, s.Banned)
	assert.Equal(t, 3, s.DaysRunning(start.Add(3*24*time.Hour+time.Hour)))
	assert.Equal(t, 0, s.DaysRunning(start.Add(-time.Hour)))
}
