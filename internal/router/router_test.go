package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/flagz/internal/screen"
)

// fakeScreen stands in for the categories, study, summary and history
// screens.
type fakeScreen struct {
	name   string
	inits  int
	msgs   []tea.Msg
	initFn tea.Cmd
}

func (s *fakeScreen) Init() tea.Cmd {
	s.inits++
	return s.initFn
}

func (s *fakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.msgs = append(s.msgs, msg)
	return s, nil
}

func (s *fakeScreen) View(w, h int) string { return s.name }
func (s *fakeScreen) Title() string        { return s.name }

type tickMsg struct{}

func TestStudyFlow(t *testing.T) {
	categories := &fakeScreen{name: "categories"}
	study := &fakeScreen{name: "study", initFn: func() tea.Msg { return tickMsg{} }}
	summary := &fakeScreen{name: "summary"}

	r := New(categories)
	require.Same(t, categories, r.Root())

	cmd := r.Update(PushScreenMsg{Screen: study})
	require.NotNil(t, cmd, "Init command of the pushed screen is returned")
	assert.Equal(t, tickMsg{}, cmd())
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, 1, study.inits)

	r.Update(ReplaceScreenMsg{Screen: summary})
	assert.Equal(t, 2, r.Depth(), "summary takes the study screen's slot")
	assert.Same(t, summary, r.Active())
	assert.Equal(t, 1, summary.inits)
	assert.Equal(t, "summary", r.View(80, 24))

	r.Update(PopScreenMsg{})
	assert.Same(t, categories, r.Active())
	assert.Equal(t, 0, categories.inits, "the root is not re-initialised on return")
}

func TestPopStopsAtCategories(t *testing.T) {
	categories := &fakeScreen{name: "categories"}
	r := New(categories)

	assert.Nil(t, r.Pop())
	r.Update(PopScreenMsg{})

	assert.Equal(t, 1, r.Depth())
	assert.Same(t, categories, r.Active())
}

func TestPopToRoot(t *testing.T) {
	categories := &fakeScreen{name: "categories"}
	r := New(categories)
	r.Push(&fakeScreen{name: "history"})
	r.Push(&fakeScreen{name: "study"})
	r.Push(&fakeScreen{name: "summary"})

	assert.Nil(t, r.Update(PopToRootMsg{}))
	assert.Equal(t, 1, r.Depth())
	assert.Same(t, r.Root(), r.Active())

	r.PopToRoot()
	assert.Equal(t, 1, r.Depth())
}

func TestReplaceRoot(t *testing.T) {
	r := New(&fakeScreen{name: "categories"})
	fresh := &fakeScreen{name: "categories"}

	r.Replace(fresh)

	assert.Equal(t, 1, r.Depth())
	assert.Same(t, fresh, r.Root())
	assert.Equal(t, 1, fresh.inits)
}

func TestUpdateForwardsToActive(t *testing.T) {
	categories := &fakeScreen{name: "categories"}
	study := &fakeScreen{name: "study"}
	r := New(categories)
	r.Push(study)

	key := tea.KeyPressMsg{Code: tea.KeyEnter}
	r.Update(key)
	r.Update(PushScreenMsg{Screen: &fakeScreen{name: "summary"}})

	assert.Equal(t, []tea.Msg{key}, study.msgs, "navigation messages are not forwarded")
	assert.Empty(t, categories.msgs)
}
