// Package registry holds the process-wide bot state shared by all users:
// mandatory channels, the ban list and usage counters.
package registry

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Registry is the synchronized global state injected into components.
type Registry interface {
	// Channels returns a consistent copy of the mandatory channels in insertion order.
	Channels() []string
	// AddChannel normalizes and appends a channel. It returns the normalized
	// name and false when the channel was already present or invalid.
	AddChannel(name string) (string, bool)
	// RemoveChannel normalizes and removes a channel, reporting whether it existed.
	RemoveChannel(name string) (string, bool)

	Ban(userID int64) bool
	Unban(userID int64) bool
	IsBanned(userID int64) bool
	BannedCount() int

	RecordUser()
	RecordSearch()
	Stats() Stats
}

// Stats is a read-only projection of the registry.
type Stats struct {
	TotalUsers    int64
	TotalSearches int64
	StartedAt     time.Time
	Channels      []string
	Banned        int
}

// DaysRunning returns the number of whole days elapsed since StartedAt.
func (s Stats) DaysRunning(now time.Time) int {
	if now.Before(s.StartedAt) {
		return 0
	}
	return int(now.Sub(s.StartedAt) / (24 * time.Hour))
}

// NormalizeChannel brings a channel reference to its "@name" form.
// It returns "" for input that does not name a channel.
func NormalizeChannel(raw string) string {
	name := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			name = name[len(prefix):]
			break
		}
	}
	name = strings.TrimLeft(strings.TrimSpace(name), "@")
	name = strings.TrimRight(name, "/")
	if name == "" || strings.ContainsAny(name, " \t\n/") {
		return ""
	}
	return "@" + name
}

// Memory is the in-memory Registry.
type Memory struct {
	chMu     sync.RWMutex
	channels []string

	banMu  sync.RWMutex
	banned map[int64]struct{}

	users     atomic.Int64
	searches  atomic.Int64
	startedAt time.Time
}

// NewMemory creates an empty registry started at startedAt.
func NewMemory(startedAt time.Time) *Memory {
	return &Memory{
		banned:    make(map[int64]struct{}),
		startedAt: startedAt,
	}
}

func (m *Memory) Channels() []string {
	m.chMu.RLock()
	defer m.chMu.RUnlock()
	return append([]string(nil), m.channels...)
}

func (m *Memory) AddChannel(name string) (string, bool) {
	norm := NormalizeChannel(name)
	if norm == "" {
		return "", false
	}
	m.chMu.Lock()
	defer m.chMu.Unlock()
	if indexFold(m.channels, norm) >= 0 {
		return norm, false
	}
	m.channels = append(m.channels, norm)
	return norm, true
}

func (m *Memory) RemoveChannel(name string) (string, bool) {
	norm := NormalizeChannel(name)
	if norm == "" {
		return "", false
	}
	m.chMu.Lock()
	defer m.chMu.Unlock()
	i := indexFold(m.channels, norm)
	if i < 0 {
		return norm, false
	}
	m.channels = append(m.channels[:i:i], m.channels[i+1:]...)
	return norm, true
}

func (m *Memory) Ban(userID int64) bool {
	m.banMu.Lock()
	defer m.banMu.Unlock()
	if _, ok := m.banned[userID]; ok {
		return false
	}
	m.banned[userID] = struct{}{}
	return true
}

func (m *Memory) Unban(userID int64) bool {
	m.banMu.Lock()
	defer m.banMu.Unlock()
	if _, ok := m.banned[userID]; !ok {
		return false
	}
	delete(m.banned, userID)
	return true
}

func (m *Memory) IsBanned(userID int64) bool {
	m.banMu.RLock()
	defer m.banMu.RUnlock()
	_, ok := m.banned[userID]
	return ok
}

func (m *Memory) BannedCount() int {
	m.banMu.RLock()
	defer m.banMu.RUnlock()
	return len(m.banned)
}

func (m *Memory) RecordUser()   { m.users.Add(1) }
func (m *Memory) RecordSearch() { m.searches.Add(1) }

func (m *Memory) Stats() Stats {
	return Stats{
		TotalUsers:    m.users.Load(),
		TotalSearches: m.searches.Load(),
		StartedAt:     m.startedAt,
		Channels:      m.Channels(),
		Banned:        m.BannedCount(),
	}
}

// Telegram usernames are case-insensitive.
func indexFold(list []string, name string) int {
	for i, v := range list {
		if strings.EqualFold(v, name) {
			return i
		}
	}
	return -1
}
