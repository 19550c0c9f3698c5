// Package history lists past smart-learning picks.
package history

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/flagz/internal/i18n"
	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/progress"
	"github.com/abhisek/flagz/internal/screen"
	"github.com/abhisek/flagz/internal/ui/theme"
)

// Source supplies the history and category details.
type Source interface {
	History() []progress.HistoryEntry
	Category(key string) (memory.CategoryView, error)
}

type row struct {
	entry    progress.HistoryEntry
	category memory.CategoryView
	known    bool
}

// Screen displays history entries, newest first.
type Screen struct {
	source   Source
	loc      memory.Localizer
	rows     []row
	selected int
	expanded map[int]bool

	up, down, details, back key.Binding
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the history screen.
func New(source Source, loc memory.Localizer) *Screen {
	return &Screen{
		source:   source,
		loc:      loc,
		expanded: make(map[int]bool),
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑↓", "")),
		down:     key.NewBinding(key.WithKeys("down", "j")),
		details:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", loc.Translate(i18n.KeyHintDetails))),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", loc.Translate(i18n.KeyHintBack))),
	}
}

// Init loads the rows. History lives in memory, so no command is needed.
func (s *Screen) Init() tea.Cmd {
	entries := s.source.History()
	s.rows = make([]row, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		r := row{entry: entries[i]}
		if v, err := s.source.Category(entries[i].Category); err == nil {
			r.category = v
			r.known = true
		}
		s.rows = append(s.rows, r)
	}
	return nil
}

func (s *Screen) Title() string { return s.loc.Translate(i18n.KeyTitleHistory) }

func (s *Screen) KeyHints() []key.Binding {
	return []key.Binding{s.up, s.details, s.back}
}

// Len returns the number of entries shown.
func (s *Screen) Len() int { return len(s.rows) }

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}
	switch {
	case key.Matches(kmsg, s.up):
		if s.selected > 0 {
			s.selected--
		}
	case key.Matches(kmsg, s.down):
		if s.selected < len(s.rows)-1 {
			s.selected++
		}
	case key.Matches(kmsg, s.details):
		s.expanded[s.selected] = !s.expanded[s.selected]
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	if len(s.rows) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n" + s.loc.Translate(i18n.KeyHistoryEmpty))
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, r := range s.rows {
		title := r.entry.Category
		if r.known {
			title = r.category.Title
		}

		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "> "
			style = theme.Selected
		}
		line := fmt.Sprintf("%s%s  %s", prefix, r.entry.StartTime.Local().Format("Jan 02, 2006 15:04"), title)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] && r.known {
			cp := r.category.Progress
			detail := s.loc.Translate(i18n.KeyHistoryDetail, cp.LearnedCount, cp.TotalCount, cp.StudyCount)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render("    "+detail)))
			b.WriteString("\n")
		}
	}
	return b.String()
}
