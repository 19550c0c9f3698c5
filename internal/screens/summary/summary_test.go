package summary

import (
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/flagz/internal/i18n"
	"github.com/abhisek/flagz/internal/recommend"
	"github.com/abhisek/flagz/internal/session"
)

type fakeTrainer struct {
	continued, home int
}

func (f *fakeTrainer) ContinueToNext() (recommend.Pick, error) {
	f.continued++
	return recommend.Pick{}, nil
}

func (f *fakeTrainer) ReturnToList() error {
	f.home++
	return nil
}

func testSummary() session.Summary {
	return session.Summary{
		SessionID:   "s-1",
		Category:    "europe_1",
		SessionType: session.TypeSmartLearning,
		Total:       8,
		NewLearned:  5,
		Elapsed:     95 * time.Second,
	}
}

func TestScreen_View(t *testing.T) {
	s := New(&fakeTrainer{}, i18n.New("en"), testSummary())
	view := s.View(80, 24)
	assert.Contains(t, view, "Flags studied: 8")
	assert.Contains(t, view, "Newly learned: 5")
	assert.Contains(t, view, "1:35")
	assert.Equal(t, "Session complete", s.Title())
}

func TestScreen_ContinueIsDefault(t *testing.T) {
	tr := &fakeTrainer{}
	s := New(tr, i18n.New("en"), testSummary())

	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Equal(t, 1, tr.continued)
	assert.Zero(t, tr.home)
}

func TestScreen_Home(t *testing.T) {
	tr := &fakeTrainer{}
	s := New(tr, i18n.New("en"), testSummary())

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Equal(t, 1, tr.home)
}

func TestScreen_NothingNew(t *testing.T) {
	sum := testSummary()
	sum.NewLearned = 0
	s := New(&fakeTrainer{}, i18n.New("en"), sum)
	assert.Contains(t, s.View(80, 24), "Nothing new")
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00", formatElapsed(0))
	assert.Equal(t, "12:05", formatElapsed(12*time.Minute+5*time.Second+300*time.Millisecond))
}
