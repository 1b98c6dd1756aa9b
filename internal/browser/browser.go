// Package browser steps through a stored result set one item at a time.
// The same RenderSpec drives the first send and every later edit.
package browser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/pixabot/internal/apperr"
	"github.com/m3rciful/pixabot/internal/session"
)

const (
	Prev = -1
	Next = +1
)

// RenderSpec describes the item to show and the navigation around it.
type RenderSpec struct {
	Kind     session.MediaKind
	MediaURL string
	Caption  string
	// Position is 1-based.
	Position int
	Total    int
	HasPrev  bool
	HasNext  bool
	// Selectable shows the "pick this" affordance; Final marks a frozen pick.
	Selectable bool
	Final      bool
}

// Render builds the view of the item under the cursor. It reports false
// when the session holds no results.
func Render(snap session.Session) (RenderSpec, bool) {
	item, ok := snap.Current()
	if !ok {
		return RenderSpec{}, false
	}
	total := len(snap.Results)
	return RenderSpec{
		Kind:       item.Kind,
		MediaURL:   item.MediaURL,
		Caption:    caption(item, snap.Cursor+1, total),
		Position:   snap.Cursor + 1,
		Total:      total,
		HasPrev:    snap.Cursor > 0,
		HasNext:    snap.Cursor < total-1,
		Selectable: true,
	}, true
}

// Advance moves the cursor by dir and re-renders. Moves past either end are
// ignored and reported as false with no error.
func Advance(store session.Store, userID int64, dir int) (RenderSpec, bool, error) {
	const op = "browser.advance"
	if dir != Prev && dir != Next {
		return RenderSpec{}, false, apperr.Errorf(apperr.InvalidInput, op, "direction %d", dir)
	}

	var (
		spec  RenderSpec
		moved bool
	)
	err := store.Update(userID, func(s *session.Session) error {
		if !s.Move(dir) {
			return nil
		}
		spec, moved = Render(*s)
		return nil
	})
	if errors.Is(err, session.ErrNoSession) {
		return RenderSpec{}, false, apperr.New(apperr.NotInitialized, op, err)
	}
	if err != nil {
		return RenderSpec{}, false, err
	}
	return spec, moved, nil
}

// Select freezes the current item as the user's pick. It never changes the session.
func Select(snap session.Session) (RenderSpec, bool) {
	item, ok := snap.Current()
	if !ok {
		return RenderSpec{}, false
	}
	return RenderSpec{
		Kind:     item.Kind,
		MediaURL: item.MediaURL,
		Caption:  finalCaption(item),
		Position: snap.Cursor + 1,
		Total:    len(snap.Results),
		Final:    true,
	}, true
}

func caption(item session.ResultItem, pos, total int) string {
	var b strings.Builder
	if item.Kind == session.KindAudio {
		writeAudio(&b, item)
		fmt.Fprintf(&b, "\n🔍 Result %d of %d", pos, total)
		return b.String()
	}
	fmt.Fprintf(&b, "🔍 Result %d of %d\n", pos, total)
	writeMetrics(&b, item)
	return b.String()
}

func finalCaption(item session.ResultItem) string {
	var b strings.Builder
	b.WriteString("✅ Result selected\n")
	if item.Kind == session.KindAudio {
		writeAudio(&b, item)
	} else {
		writeMetrics(&b, item)
	}
	if item.PageURL != "" {
		b.WriteString("\n🔗 ")
		b.WriteString(item.PageURL)
	}
	return b.String()
}

func writeMetrics(b *strings.Builder, item session.ResultItem) {
	fmt.Fprintf(b, "👀 Views: %d\n👍 Likes: %d\n📥 Downloads: %d", item.Views, item.Likes, item.Downloads)
	if len(item.Tags) > 0 {
		b.WriteString("\n🏷 Tags: ")
		b.WriteString(strings.Join(item.Tags, ", "))
	}
}

func writeAudio(b *strings.Builder, item session.ResultItem) {
	fmt.Fprintf(b, "🎵 %s\n🎤 Artist: %s\n⏱ Duration: %s",
		orUnknown(item.Title), orUnknown(item.Artist), Duration(item.DurationSeconds))
	if item.Genre != "" {
		b.WriteString("\n🎼 Genre: ")
		b.WriteString(item.Genre)
	}
}

// Duration formats seconds as m:ss, or "unknown" for zero.
func Duration(seconds int) string {
	if seconds <= 0 {
		return "unknown"
	}
	sec := seconds % 60
	pad := ""
	if sec < 10 {
		pad = "0"
	}
	return strconv.Itoa(seconds/60) + ":" + pad + strconv.Itoa(sec)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
