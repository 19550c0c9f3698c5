// Package study shows a category preview and then one flag at a time.
package study

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/flagz/internal/i18n"
	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/mnemonic"
	"github.com/abhisek/flagz/internal/roster"
	"github.com/abhisek/flagz/internal/screen"
	"github.com/abhisek/flagz/internal/ui/theme"
)

// Trainer is the part of memory.Trainer this screen drives.
type Trainer interface {
	BeginSession() error
	MarkRecognized(recognized bool) error
	Advance() error
}

// Hooks generates memory hooks in the background.
type Hooks interface {
	RequestHook(ctx context.Context, in mnemonic.Input)
	ConsumeHook() (*mnemonic.Hook, bool)
	Cached(code string) (mnemonic.Hook, bool)
}

const hookPollInterval = 150 * time.Millisecond

type hookPollMsg struct{}

type keyMap struct {
	Start, Yes, No, Next, Hook, Back key.Binding
}

func newKeyMap(loc memory.Localizer, hooks bool) keyMap {
	k := keyMap{
		Start: key.NewBinding(key.WithKeys("enter", "space"), key.WithHelp("enter", loc.Translate(i18n.KeyHintStart))),
		Yes:   key.NewBinding(key.WithKeys("y", "right"), key.WithHelp("y", loc.Translate(i18n.KeyHintRecognized))),
		No:    key.NewBinding(key.WithKeys("n", "left"), key.WithHelp("n", loc.Translate(i18n.KeyHintNotYet))),
		Next:  key.NewBinding(key.WithKeys("enter", "space"), key.WithHelp("enter", loc.Translate(i18n.KeyHintNext))),
		Hook:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", loc.Translate(i18n.KeyHintHook))),
		Back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", loc.Translate(i18n.KeyHintBack))),
	}
	if !hooks {
		k.Hook.SetEnabled(false)
	}
	return k
}

// Screen is the preview and the flash card of one session.
type Screen struct {
	ctx     context.Context
	trainer Trainer
	hooks   Hooks
	loc     memory.Localizer
	lang    string
	keys    keyMap

	category memory.CategoryView
	flags    []roster.Country

	card     *memory.StudyCard
	progress string

	hook        string
	hookLoading bool
	spinner     spinner.Model
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the screen in preview mode. hooks may be nil; lang is
// passed to hook generation.
func New(ctx context.Context, trainer Trainer, hooks Hooks, loc memory.Localizer, lang string, preview screen.PreviewMsg) *Screen {
	return &Screen{
		ctx:      ctx,
		trainer:  trainer,
		hooks:    hooks,
		loc:      loc,
		lang:     lang,
		keys:     newKeyMap(loc, hooks != nil),
		category: preview.Category,
		flags:    preview.Flags,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Badge)),
	}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string {
	return s.loc.Translate(i18n.KeyTitleStudy) + " · " + s.category.Title
}

func (s *Screen) KeyHints() []key.Binding {
	switch {
	case s.card == nil:
		return []key.Binding{s.keys.Start, s.keys.Back}
	case !s.card.Revealed:
		return []key.Binding{s.keys.Yes, s.keys.No, s.keys.Back}
	default:
		return []key.Binding{s.keys.Next, s.keys.Hook, s.keys.Back}
	}
}

// Card returns the flag on display, if the session has begun.
func (s *Screen) Card() (memory.StudyCard, bool) {
	if s.card == nil {
		return memory.StudyCard{}, false
	}
	return *s.card, true
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.StudyCardMsg:
		if s.card == nil || s.card.Code != msg.Card.Code {
			s.hook = ""
			s.hookLoading = false
		}
		card := msg.Card
		s.card = &card
		s.progress = msg.Progress
		if card.Revealed && s.hooks != nil {
			if h, ok := s.hooks.Cached(card.Code); ok {
				s.hook = h.Text
			}
		}
		return s, nil

	case hookPollMsg:
		if !s.hookLoading {
			return s, nil
		}
		h, done := s.hooks.ConsumeHook()
		if !done {
			return s, pollHook()
		}
		s.hookLoading = false
		if h != nil && s.card != nil && h.Code == s.card.Code {
			s.hook = h.Text
		}
		return s, nil

	case spinner.TickMsg:
		if !s.hookLoading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch {
	case s.card == nil:
		if key.Matches(msg, s.keys.Start) {
			_ = s.trainer.BeginSession()
		}
	case !s.card.Revealed:
		switch {
		case key.Matches(msg, s.keys.Yes):
			_ = s.trainer.MarkRecognized(true)
		case key.Matches(msg, s.keys.No):
			_ = s.trainer.MarkRecognized(false)
		}
	default:
		switch {
		case key.Matches(msg, s.keys.Next):
			_ = s.trainer.Advance()
		case key.Matches(msg, s.keys.Hook):
			return s, s.requestHook()
		}
	}
	return s, nil
}

func (s *Screen) requestHook() tea.Cmd {
	if s.hooks == nil || s.card == nil || s.hookLoading || s.hook != "" {
		return nil
	}
	s.hookLoading = true
	s.hooks.RequestHook(s.ctx, mnemonic.Input{
		Code:      s.card.Code,
		Country:   s.card.Country.NamePrimary,
		Continent: s.loc.ContinentName(s.card.Country.Continent),
		Language:  s.lang,
	})
	return tea.Batch(s.spinner.Tick, pollHook())
}

func pollHook() tea.Cmd {
	return tea.Tick(hookPollInterval, func(time.Time) tea.Msg { return hookPollMsg{} })
}

func (s *Screen) View(width, height int) string {
	var body string
	if s.card == nil {
		body = s.previewView(width)
	} else {
		body = s.cardView()
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(body)
}

func (s *Screen) previewView(width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(s.category.Title))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(s.loc.Translate(i18n.KeyPreviewIntro, len(s.flags))))
	b.WriteString("\n\n")

	cols := 2
	if width >= 100 {
		cols = 3
	}
	cells := make([]string, 0, len(s.flags))
	for _, c := range s.flags {
		cells = append(cells, fmt.Sprintf("%s  %-22s", FlagGlyph(c.Code), s.loc.CountryName(c)))
	}
	for i := 0; i < len(cells); i += cols {
		end := min(i+cols, len(cells))
		b.WriteString(theme.Body.Render(strings.Join(cells[i:end], "  ")))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Screen) cardView() string {
	c := s.card
	var lines []string
	lines = append(lines, theme.Hint.Render(s.progress), "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(FlagGlyph(c.Code)), "")

	if !c.Revealed {
		lines = append(lines, theme.Body.Render(s.loc.Translate(i18n.KeyRecognizePrompt)))
		return theme.Card.Render(strings.Join(lines, "\n"))
	}

	lines = append(lines, theme.Title.Render(c.Name))
	if c.Learned {
		lines = append(lines, theme.Learned.Render("✓ "+s.loc.Translate(i18n.KeyLearned)))
	} else {
		lines = append(lines, theme.NotYet.Render("✗ "+s.loc.Translate(i18n.KeyHintNotYet)))
	}
	switch {
	case s.hookLoading:
		lines = append(lines, "", s.spinner.View()+" "+theme.Hint.Render(s.loc.Translate(i18n.KeyHookLoading)))
	case s.hook != "":
		lines = append(lines, "", theme.Hint.Width(48).Render(s.hook))
	}
	return theme.Card.Render(strings.Join(lines, "\n"))
}

// FlagGlyph renders a two-letter country code as its regional-indicator
// flag. Other codes are shown upper-cased.
func FlagGlyph(code string) string {
	if len(code) != 2 {
		return strings.ToUpper(code)
	}
	var b strings.Builder
	for _, r := range strings.ToLower(code) {
		if r < 'a' || r > 'z' {
			return strings.ToUpper(code)
		}
		b.WriteRune(0x1F1E6 + (r - 'a'))
	}
	return b.String()
}
