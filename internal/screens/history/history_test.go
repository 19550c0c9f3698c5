package history

import (
	"errors"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/flagz/internal/catalog"
	"github.com/abhisek/flagz/internal/i18n"
	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/progress"
)

type fakeSource struct {
	entries []progress.HistoryEntry
	views   map[string]memory.CategoryView
}

func (f fakeSource) History() []progress.HistoryEntry { return f.entries }

func (f fakeSource) Category(key string) (memory.CategoryView, error) {
	v, ok := f.views[key]
	if !ok {
		return memory.CategoryView{}, errors.New("unknown")
	}
	return v, nil
}

func TestScreen_NewestFirstWithDetails(t *testing.T) {
	day := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	src := fakeSource{
		entries: []progress.HistoryEntry{
			{Category: "asia", StartTime: day},
			{Category: "gone_9", StartTime: day.Add(24 * time.Hour)},
			{Category: "europe", StartTime: day.Add(48 * time.Hour)},
		},
		views: map[string]memory.CategoryView{
			"asia": {Category: catalog.Category{Key: "asia"}, Title: "Asia",
				Progress: progress.CategoryProgress{LearnedCount: 3, TotalCount: 5, StudyCount: 2}},
			"europe": {Category: catalog.Category{Key: "europe"}, Title: "Europe"},
		},
	}
	s := New(src, i18n.New("en"))
	s.Init()
	require.Equal(t, 3, s.Len())
	assert.Equal(t, "europe", s.rows[0].entry.Category)
	assert.False(t, s.rows[1].known)

	view := s.View(100, 20)
	assert.Contains(t, view, "gone_9")

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Contains(t, s.View(100, 20), "3 of 5 learned, studied 2 times")
}

func TestScreen_Empty(t *testing.T) {
	s := New(fakeSource{}, i18n.New("en"))
	s.Init()
	assert.Contains(t, s.View(100, 20), "No smart-learning sessions yet")
}
