// Package session holds the per-run conversation state: preferences, a
// bounded window of recent exchanges, and the current mood.
package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
)

// DefaultMood is the mood of a fresh session.
const DefaultMood = "neutral"

// Session is created at startup and discarded at shutdown. The store, not
// the window, is the source of truth for history.
type Session struct {
	RunID     string
	StartedAt time.Time

	mu     sync.Mutex
	prefs  model.Preferences
	mood   string
	dirty  bool
	recent *window
}

// New creates a session with the given preferences and window capacity.
func New(prefs model.Preferences, windowSize int, now time.Time) *Session {
	entropy := rand.New(rand.NewSource(now.UnixNano()))
	return &Session{
		RunID:     ulid.MustNew(ulid.Timestamp(now), entropy).String(),
		StartedAt: now.UTC(),
		prefs:     prefs.Normalized().Clone(),
		mood:      DefaultMood,
		recent:    newWindow(windowSize),
	}
}

// DisplayName returns the name used in responses.
func (s *Session) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.DisplayName
}

// SetDisplayName changes the display name and marks preferences dirty.
func (s *Session) SetDisplayName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.DisplayName == name {
		return
	}
	s.prefs.DisplayName = name
	s.dirty = true
}

// Flag reports a boolean preference flag.
func (s *Session) Flag(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Flags[key]
}

// SetFlag sets a flag and marks preferences dirty.
func (s *Session) SetFlag(key string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.prefs.Flags[key]; ok && cur == on {
		return
	}
	s.prefs.Flags[key] = on
	s.dirty = true
}

// ModuleEnabled reports whether a module is on. Modules default to on.
func (s *Session) ModuleEnabled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.ModuleEnabled(name)
}

// SetModule switches a module on or off and marks preferences dirty.
func (s *Session) SetModule(name string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.prefs.ModuleToggles[name]; ok && cur == on {
		return
	}
	s.prefs.ModuleToggles[name] = on
	s.dirty = true
}

// Preferences returns a copy of the current preferences.
func (s *Session) Preferences() model.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Clone()
}

// Dirty reports whether preferences changed since the last ClearDirty.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// ClearDirty marks preferences as persisted.
func (s *Session) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// Mood returns the current mood tag.
func (s *Session) Mood() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mood
}

// SetMood replaces the mood tag. Empty moods are ignored.
func (s *Session) SetMood(mood string) {
	if mood == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mood = mood
}

// Remember pushes an exchange into the recent window, evicting the oldest
// when full.
func (s *Session) Remember(ex model.Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent.push(ex)
}

// Capacity is the size of the recent window.
func (s *Session) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recent.buf)
}

// Window returns the recent exchanges, oldest first.
func (s *Session) Window() []model.Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.items()
}

// Uptime is the time elapsed since the session started.
func (s *Session) Uptime(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}
