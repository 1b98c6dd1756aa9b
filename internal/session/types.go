package session

import (
	"strings"
	"time"
)

// Filter selects the media kind a search is narrowed to.
type Filter string

const (
	FilterAll          Filter = "all"
	FilterPhoto        Filter = "photo"
	FilterIllustration Filter = "illustration"
	FilterVector       Filter = "vector"
	FilterVideo        Filter = "video"
	FilterMusic        Filter = "music"
	FilterGIF          Filter = "gif"
)

// Filters lists the selectable filters in menu order.
var Filters = []Filter{
	FilterPhoto,
	FilterIllustration,
	FilterVector,
	FilterVideo,
	FilterMusic,
	FilterGIF,
}

// ParseFilter maps a raw value to a known filter.
func ParseFilter(raw string) (Filter, bool) {
	f := Filter(strings.ToLower(strings.TrimSpace(raw)))
	if f == FilterAll {
		return f, true
	}
	for _, known := range Filters {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// InputMode names the free-text answer the bot is waiting for.
// A session has exactly one mode at a time.
type InputMode string

const (
	ModeNone                 InputMode = "none"
	ModeAwaitingQuery        InputMode = "awaiting_query"
	ModeAwaitingBroadcast    InputMode = "awaiting_broadcast"
	ModeAwaitingChannelAdd   InputMode = "awaiting_channel_add"
	ModeAwaitingChannelDel   InputMode = "awaiting_channel_remove"
	ModeAwaitingModerationID InputMode = "awaiting_moderation_id"
)

// ModerationOp tells which action a pending moderation id is for.
type ModerationOp string

const (
	OpBan   ModerationOp = "ban"
	OpUnban ModerationOp = "unban"
)

// MediaKind is the shape of a result item.
type MediaKind string

const (
	KindPhoto MediaKind = "photo"
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// ResultItem is one normalized search hit. Items are never modified after
// they are stored.
type ResultItem struct {
	Kind       MediaKind
	MediaURL   string
	PreviewURL string
	PageURL    string

	Views     int
	Likes     int
	Downloads int
	Tags      []string

	Title           string
	Artist          string
	DurationSeconds int
	Genre           string
}

// Session is the per-user state record.
type Session struct {
	UserID      int64
	DisplayName string
	JoinedAt    time.Time

	SearchCount int
	Filter      Filter
	LastQuery   string

	Results []ResultItem
	Cursor  int

	Mode         InputMode
	ModerationOp ModerationOp
}

func newSession(userID int64, displayName string, now time.Time) Session {
	return Session{
		UserID:      userID,
		DisplayName: displayName,
		JoinedAt:    now,
		Filter:      FilterAll,
		Mode:        ModeNone,
	}
}

// SetResults replaces the result set and moves the cursor to the first item.
func (s *Session) SetResults(items []ResultItem) {
	s.Results = append([]ResultItem(nil), items...)
	s.Cursor = 0
}

// Move shifts the cursor by dir when the target stays within bounds.
// It reports whether the cursor changed.
func (s *Session) Move(dir int) bool {
	next := s.Cursor + dir
	if dir == 0 || next < 0 || next >= len(s.Results) {
		return false
	}
	s.Cursor = next
	return true
}

// Current returns the item under the cursor.
func (s Session) Current() (ResultItem, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Results) {
		return ResultItem{}, false
	}
	return s.Results[s.Cursor], true
}

// Await switches the pending input, replacing any previous one.
func (s *Session) Await(mode InputMode, op ModerationOp) {
	if mode == "" {
		mode = ModeNone
	}
	s.Mode = mode
	s.ModerationOp = ""
	if mode == ModeAwaitingModerationID {
		s.ModerationOp = op
	}
}

// TakeMode returns the pending input and resets it to ModeNone.
func (s *Session) TakeMode() (InputMode, ModerationOp) {
	mode, op := s.Mode, s.ModerationOp
	s.Mode = ModeNone
	s.ModerationOp = ""
	if mode == "" {
		mode = ModeNone
	}
	return mode, op
}

func (s Session) clone() Session {
	out := s
	if s.Results != nil {
		out.Results = append([]ResultItem(nil), s.Results...)
	}
	return out
}
