// Package categories is the home screen: every category with its
// progress, smart learning and reset.
package categories

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/flagz/internal/i18n"
	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/recommend"
	"github.com/abhisek/flagz/internal/screen"
	"github.com/abhisek/flagz/internal/ui/components"
	"github.com/abhisek/flagz/internal/ui/layout"
	"github.com/abhisek/flagz/internal/ui/theme"
)

// Trainer is the part of memory.Trainer this screen drives. Failures are
// reported to the user through the presenter, so returned errors are
// only informational here.
type Trainer interface {
	SelectCategory(key string) error
	SmartLearn() (recommend.Pick, error)
	RequestReset()
	ResetPending() bool
	ConfirmReset(ctx context.Context, confirmed bool) error
}

type keyMap struct {
	Up, Down, Select, Smart, History, Reset, Confirm, Cancel, Quit key.Binding
}

func newKeyMap(loc memory.Localizer) keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑↓", "")),
		Down:    key.NewBinding(key.WithKeys("down", "j")),
		Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", loc.Translate(i18n.KeyHintSelect))),
		Smart:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", loc.Translate(i18n.KeyHintSmartLearn))),
		History: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", loc.Translate(i18n.KeyHintHistory))),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", loc.Translate(i18n.KeyHintReset))),
		Confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", loc.Translate(i18n.KeyHintConfirm))),
		Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", loc.Translate(i18n.KeyHintCancel))),
		Quit:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", loc.Translate(i18n.KeyHintQuit))),
	}
}

// Screen lists the categories.
type Screen struct {
	ctx     context.Context
	trainer Trainer
	loc     memory.Localizer
	keys    keyMap

	views  []memory.CategoryView
	cursor int
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the category screen. It stays empty until a
// CategoryListMsg arrives.
func New(ctx context.Context, trainer Trainer, loc memory.Localizer) *Screen {
	return &Screen{ctx: ctx, trainer: trainer, loc: loc, keys: newKeyMap(loc)}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return s.loc.Translate(i18n.KeyTitleCategories) }

func (s *Screen) KeyHints() []key.Binding {
	if s.trainer.ResetPending() {
		return []key.Binding{s.keys.Confirm, s.keys.Cancel}
	}
	return []key.Binding{s.keys.Up, s.keys.Select, s.keys.Smart, s.keys.History, s.keys.Reset, s.keys.Quit}
}

// Selected returns the category under the cursor.
func (s *Screen) Selected() (memory.CategoryView, bool) {
	if s.cursor < 0 || s.cursor >= len(s.views) {
		return memory.CategoryView{}, false
	}
	return s.views[s.cursor], true
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.CategoryListMsg:
		s.views = msg.Categories
		s.cursor = min(s.cursor, max(len(s.views)-1, 0))
		return s, nil

	case tea.KeyPressMsg:
		if s.trainer.ResetPending() {
			switch {
			case key.Matches(msg, s.keys.Confirm):
				_ = s.trainer.ConfirmReset(s.ctx, true)
			case key.Matches(msg, s.keys.Cancel):
				_ = s.trainer.ConfirmReset(s.ctx, false)
			}
			return s, nil
		}

		switch {
		case key.Matches(msg, s.keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, s.keys.Down):
			if s.cursor < len(s.views)-1 {
				s.cursor++
			}
		case key.Matches(msg, s.keys.Select):
			if v, ok := s.Selected(); ok {
				_ = s.trainer.SelectCategory(v.Category.Key)
			}
		case key.Matches(msg, s.keys.Smart):
			_, _ = s.trainer.SmartLearn()
		case key.Matches(msg, s.keys.History):
			return s, func() tea.Msg { return screen.OpenHistoryMsg{} }
		case key.Matches(msg, s.keys.Reset):
			s.trainer.RequestReset()
		case key.Matches(msg, s.keys.Quit):
			return s, tea.Quit
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	if len(s.views) == 0 {
		return lipgloss.NewStyle().
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(theme.Hint.Render(s.loc.Translate(i18n.KeyRosterLoading)))
	}

	titleWidth := 0
	for _, v := range s.views {
		titleWidth = max(titleWidth, lipgloss.Width(v.Title))
	}
	barWidth := 40
	if layout.IsCompactWidth(width) {
		barWidth = 24
	}

	// Keep the cursor row visible.
	first := 0
	if height > 2 && s.cursor >= height-2 {
		first = s.cursor - (height - 3)
	}

	var b strings.Builder
	b.WriteString("\n")
	for i := first; i < len(s.views) && i-first < max(height-2, 1); i++ {
		v := s.views[i]

		marker := "  "
		title := theme.Unselected.Render(padRight(v.Title, titleWidth))
		if i == s.cursor {
			marker = theme.Selected.Render("▸ ")
			title = theme.Selected.Render(padRight(v.Title, titleWidth))
		}

		bar := components.ProgressBar{
			Percent: v.Progress.Ratio(),
			Width:   barWidth,
			Done:    v.Progress.Completed(),
		}

		counts := theme.Hint.Render(fmt.Sprintf("%2d/%-2d", v.Progress.LearnedCount, v.Category.Size()))
		badge := ""
		switch {
		case v.Progress.Completed():
			badge = theme.Learned.Render("✓ " + s.loc.Translate(i18n.KeyCompleted))
		case v.Recommended:
			badge = theme.Badge.Render("★ " + s.loc.Translate(i18n.KeyRecommended))
		}

		fmt.Fprintf(&b, "  %s%s  %s %s  %s\n", marker, title, bar.View(), counts, badge)
	}
	return b.String()
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
