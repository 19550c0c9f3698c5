// Package app is the root Bubble Tea model of the terminal trainer.
package app

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/i18n"
	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/progress"
	"github.com/abhisek/flagz/internal/router"
	"github.com/abhisek/flagz/internal/screen"
	"github.com/abhisek/flagz/internal/screens/categories"
	"github.com/abhisek/flagz/internal/screens/history"
	"github.com/abhisek/flagz/internal/screens/study"
	"github.com/abhisek/flagz/internal/screens/summary"
	"github.com/abhisek/flagz/internal/ui/layout"
)

const toastTTL = 4 * time.Second

// Trainer is everything the UI asks of memory.Trainer.
type Trainer interface {
	categories.Trainer
	study.Trainer
	summary.Trainer
	history.Source
	ShowCategories() error
	CategoryViews() []memory.CategoryView
	NotifyPersistError(err *progress.PersistError)
}

// Options wires the model.
type Options struct {
	Trainer   Trainer
	Gateway   *Gateway
	Localizer *i18n.Localizer

	// Hooks is optional.
	Hooks study.Hooks

	// Ready blocks until the roster is loaded.
	Ready func(ctx context.Context) error

	// PersistErrors delivers background save failures. May be nil.
	PersistErrors <-chan *progress.PersistError

	Logger *zap.Logger
}

type readyMsg struct{ err error }

type persistErrMsg struct{ err *progress.PersistError }

type toastExpiredMsg struct{ seq int }

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	opts   Options
	router *router.Router

	width  int
	height int

	toast    string
	toastSeq int

	learned int
	total   int

	quit key.Binding
	back key.Binding
}

// New creates the model with the category list as its root screen.
func New(ctx context.Context, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return Model{
		ctx:    ctx,
		opts:   opts,
		router: router.New(categories.New(ctx, opts.Trainer, opts.Localizer)),
		quit:   key.NewBinding(key.WithKeys("ctrl+c")),
		back:   key.NewBinding(key.WithKeys("esc")),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitReady(), m.listenPersist())
}

func (m Model) waitReady() tea.Cmd {
	if m.opts.Ready == nil {
		return func() tea.Msg { return readyMsg{} }
	}
	return func() tea.Msg { return readyMsg{err: m.opts.Ready(m.ctx)} }
}

func (m Model) listenPersist() tea.Cmd {
	if m.opts.PersistErrors == nil {
		return nil
	}
	ch := m.opts.PersistErrors
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return persistErrMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	drained := m.drain()
	return m, tea.Batch(cmd, drained)
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return nil

	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, m.quit):
			return tea.Quit
		case key.Matches(msg, m.back) && m.router.Depth() > 1:
			_ = m.opts.Trainer.ReturnToList()
			return nil
		}

	case readyMsg:
		if msg.err != nil {
			m.opts.Logger.Error("roster unavailable", zap.Error(msg.err))
			return m.showToast(fmt.Sprintf("%s (%v)", m.opts.Localizer.Translate(i18n.KeyRosterLoading), msg.err))
		}
		_ = m.opts.Trainer.ShowCategories()
		return nil

	case persistErrMsg:
		m.opts.Trainer.NotifyPersistError(msg.err)
		return m.listenPersist()

	case screen.OpenHistoryMsg:
		return m.router.Push(history.New(m.opts.Trainer, m.opts.Localizer))

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return nil

	case screen.CategoryListMsg, screen.PreviewMsg, screen.StudyCardMsg,
		screen.SessionCompleteMsg, screen.ToastMsg:
		return m.present(msg)
	}

	return m.router.Update(msg)
}

// drain applies everything the trainer rendered during the last update.
func (m *Model) drain() tea.Cmd {
	var cmds []tea.Cmd
	for msgs := m.opts.Gateway.Drain(); len(msgs) > 0; msgs = m.opts.Gateway.Drain() {
		for _, msg := range msgs {
			cmds = append(cmds, m.present(msg))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) present(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case screen.CategoryListMsg:
		m.router.PopToRoot()
		m.refreshCounts(msg.Categories)
		return m.router.Update(msg)

	case screen.PreviewMsg:
		s := study.New(m.ctx, m.opts.Trainer, m.opts.Hooks, m.opts.Localizer, m.opts.Localizer.Lang().String(), msg)
		if m.router.Depth() > 1 {
			return m.router.Replace(s)
		}
		return m.router.Push(s)

	case screen.StudyCardMsg:
		return m.router.Update(msg)

	case screen.SessionCompleteMsg:
		m.refreshCounts(m.opts.Trainer.CategoryViews())
		return m.router.Replace(summary.New(m.opts.Trainer, m.opts.Localizer, msg.Summary))

	case screen.ToastMsg:
		return m.showToast(msg.Text)
	}
	return nil
}

func (m *Model) showToast(text string) tea.Cmd {
	m.toastSeq++
	m.toast = text
	seq := m.toastSeq
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

func (m *Model) refreshCounts(views []memory.CategoryView) {
	m.learned, m.total = 0, 0
	for _, v := range views {
		m.learned += v.Progress.LearnedCount
		m.total += v.Category.Size()
	}
}

// Toast returns the status line currently shown.
func (m Model) Toast() string { return m.toast }

// Active returns the screen on top of the stack.
func (m Model) Active() screen.Screen { return m.router.Active() }

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	var hints []key.Binding
	if active != nil {
		title = active.Title()
		if p, ok := active.(screen.KeyHintProvider); ok {
			hints = p.KeyHints()
		}
	}

	header := layout.RenderHeader(title, m.learned, m.total, m.width)
	footer := layout.RenderFooter(hints, m.toast, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the terminal UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
