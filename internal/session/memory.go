package session

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNoSession is returned by Update for users that never sent /start.
var ErrNoSession = errors.New("session: not found")

// Store holds one session per user.
type Store interface {
	// Create registers the user on first contact. It reports whether a new
	// session was created; existing sessions are returned untouched.
	Create(userID int64, displayName string) (Session, bool)
	// View returns a copy of the user's session.
	View(userID int64) (Session, bool)
	// Update runs fn under the user's lock. fn must only touch memory.
	Update(userID int64, fn func(*Session) error) error
	// UserIDs returns the known users in ascending order.
	UserIDs() []int64
	Len() int
}

type entry struct {
	mu   sync.Mutex
	sess Session
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*entry
	now      func() time.Time
}

// NewMemoryStore constructs the in-memory Store.
func NewMemoryStore() Store {
	return newMemoryStore(time.Now)
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{
		sessions: make(map[int64]*entry),
		now:      now,
	}
}

func (m *memoryStore) Create(userID int64, displayName string) (Session, bool) {
	m.mu.Lock()
	e, ok := m.sessions[userID]
	if !ok {
		e = &entry{sess: newSession(userID, displayName, m.now())}
		m.sessions[userID] = e
	}
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.clone(), !ok
}

func (m *memoryStore) View(userID int64) (Session, bool) {
	e := m.lookup(userID)
	if e == nil {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.clone(), true
}

func (m *memoryStore) Update(userID int64, fn func(*Session) error) error {
	e := m.lookup(userID)
	if e == nil {
		return ErrNoSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.sess)
}

func (m *memoryStore) UserIDs() []int64 {
	m.mu.RLock()
	ids := make([]int64, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memoryStore) lookup(userID int64) *entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[userID]
}
