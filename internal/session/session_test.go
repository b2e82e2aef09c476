package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
)

func ex(i int) model.Exchange {
	return model.Exchange{ID: int64(i), Input: fmt.Sprintf("in-%d", i)}
}

func TestWindowEvictsOldestFirst(t *testing.T) {
	s := New(model.DefaultPreferences(), 3, time.Now())
	for i := 1; i <= 5; i++ {
		s.Remember(ex(i))
	}
	got := s.Window()
	require.Len(t, got, 3)
	assert.Equal(t, []int64{3, 4, 5}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestWindowPartiallyFilled(t *testing.T) {
	s := New(model.DefaultPreferences(), 10, time.Now())
	assert.Empty(t, s.Window())
	s.Remember(ex(1))
	s.Remember(ex(2))
	got := s.Window()
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestWindowMinimumCapacity(t *testing.T) {
	s := New(model.DefaultPreferences(), 0, time.Now())
	s.Remember(ex(1))
	s.Remember(ex(2))
	got := s.Window()
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestPreferencesDirtyTracking(t *testing.T) {
	s := New(model.Preferences{}, 5, time.Now())
	assert.Equal(t, model.DefaultDisplayName, s.DisplayName())
	assert.False(t, s.Dirty())

	s.SetDisplayName(model.DefaultDisplayName)
	assert.False(t, s.Dirty(), "unchanged name should not dirty")

	s.SetDisplayName("Ada")
	assert.True(t, s.Dirty())
	s.ClearDirty()

	s.SetFlag(model.FlagColors, true)
	assert.True(t, s.Dirty())
	assert.True(t, s.Flag(model.FlagColors))
	s.ClearDirty()

	assert.True(t, s.ModuleEnabled("clock"))
	s.SetModule("clock", false)
	assert.True(t, s.Dirty())
	assert.False(t, s.ModuleEnabled("clock"))
}

func TestPreferencesCopyIsIsolated(t *testing.T) {
	s := New(model.DefaultPreferences(), 5, time.Now())
	p := s.Preferences()
	p.Flags["x"] = true
	p.DisplayName = "Mallory"
	assert.False(t, s.Flag("x"))
	assert.Equal(t, model.DefaultDisplayName, s.DisplayName())
}

func TestMoodAndIdentity(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(model.DefaultPreferences(), 5, start)
	assert.Equal(t, DefaultMood, s.Mood())
	s.SetMood("happy")
	s.SetMood("")
	assert.Equal(t, "happy", s.Mood())
	assert.Len(t, s.RunID, 26)
	assert.Equal(t, 90*time.Second, s.Uptime(start.Add(90*time.Second)))
}
