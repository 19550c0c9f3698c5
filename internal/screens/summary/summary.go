// Package summary shows the result of a finished session.
package summary

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/flagz/internal/i18n"
	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/recommend"
	"github.com/abhisek/flagz/internal/screen"
	"github.com/abhisek/flagz/internal/session"
	"github.com/abhisek/flagz/internal/ui/components"
	"github.com/abhisek/flagz/internal/ui/theme"
)

// Trainer is the part of memory.Trainer this screen drives.
type Trainer interface {
	ContinueToNext() (recommend.Pick, error)
	ReturnToList() error
}

// Screen displays the session summary.
type Screen struct {
	summary session.Summary
	loc     memory.Localizer
	menu    components.Menu
	back    key.Binding
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the summary screen.
func New(trainer Trainer, loc memory.Localizer, sum session.Summary) *Screen {
	return &Screen{
		summary: sum,
		loc:     loc,
		menu: components.NewMenu([]components.MenuItem{
			{
				Label: loc.Translate(i18n.KeyHintContinue),
				Action: func() tea.Cmd {
					_, _ = trainer.ContinueToNext()
					return nil
				},
			},
			{
				Label: loc.Translate(i18n.KeyHintHome),
				Action: func() tea.Cmd {
					_ = trainer.ReturnToList()
					return nil
				},
			},
		}),
		back: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", loc.Translate(i18n.KeyHintHome))),
	}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return s.loc.Translate(i18n.KeyTitleSummary) }

func (s *Screen) KeyHints() []key.Binding {
	return []key.Binding{components.MenuKeys.Up, components.MenuKeys.Choose, s.back}
}

// Summary returns the summary on display.
func (s *Screen) Summary() session.Summary { return s.summary }

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, height int) string {
	sum := s.summary

	var b strings.Builder
	b.WriteString(theme.Title.Render(s.loc.Translate(i18n.KeyTitleSummary)))
	b.WriteString("\n\n")

	stats := []string{
		s.loc.Translate(i18n.KeySummaryTotal, sum.Total),
		s.loc.Translate(i18n.KeySummaryNew, sum.NewLearned),
		s.loc.Translate(i18n.KeySummaryElapsed, formatElapsed(sum.Elapsed)),
	}
	b.WriteString(theme.Body.Render(strings.Join(stats, "\n")))
	b.WriteString("\n\n")
	if sum.NewLearned == 0 {
		b.WriteString(theme.Hint.Render(s.loc.Translate(i18n.KeySummaryNone)))
		b.WriteString("\n\n")
	}
	b.WriteString(s.menu.View())

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(b.String())
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
