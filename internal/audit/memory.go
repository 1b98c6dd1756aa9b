package audit

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory keeps the last events in a ring buffer. It backs the journal when
// no database is configured.
type Memory struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
	now    func() time.Time
}

// NewMemory keeps up to capacity events; capacity <= 0 selects 200.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 200
	}
	return &Memory{events: make([]Event, capacity), now: time.Now}
}

func (m *Memory) Record(_ context.Context, e Event) {
	if e.At.IsZero() {
		e.At = m.now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[m.next] = e
	m.next = (m.next + 1) % len(m.events)
	if m.next == 0 {
		m.full = true
	}
}

// Recent returns the latest events of kind, newest first.
func (m *Memory) Recent(_ context.Context, kind Kind, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.next
	if m.full {
		size = len(m.events)
	}
	var out []Event
	for i := 0; i < size && len(out) < limit; i++ {
		idx := (m.next - 1 - i + len(m.events)) % len(m.events)
		if kind == "" || m.events[idx].Kind == kind {
			out = append(out, m.events[idx])
		}
	}
	return out, nil
}

// Replay returns the retained events of the given kinds, oldest first.
func (m *Memory) Replay(_ context.Context, kinds ...Kind) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start, size := 0, m.next
	if m.full {
		start, size = m.next, len(m.events)
	}
	var out []Event
	for i := 0; i < size; i++ {
		e := m.events[(start+i)%len(m.events)]
		if slices.Contains(kinds, e.Kind) {
			out = append(out, e)
		}
	}
	return out, nil
}
