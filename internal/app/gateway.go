package app

import (
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/roster"
	"github.com/abhisek/flagz/internal/screen"
	"github.com/abhisek/flagz/internal/session"
)

// Gateway is the trainer's Presenter for the terminal UI. Render calls
// are queued as screen messages and drained by the app after each update.
type Gateway struct {
	mu      sync.Mutex
	pending []tea.Msg
}

var _ memory.Presenter = (*Gateway)(nil)

// NewGateway creates an empty gateway.
func NewGateway() *Gateway { return &Gateway{} }

func (g *Gateway) push(msg tea.Msg) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = append(g.pending, msg)
}

// Drain returns and clears the queued messages, oldest first.
func (g *Gateway) Drain() []tea.Msg {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.pending
	g.pending = nil
	return out
}

func (g *Gateway) RenderCategoryList(categories []memory.CategoryView) {
	g.push(screen.CategoryListMsg{Categories: categories})
}

func (g *Gateway) RenderPreview(category memory.CategoryView, flags []roster.Country) {
	g.push(screen.PreviewMsg{Category: category, Flags: flags})
}

func (g *Gateway) RenderStudyCard(card memory.StudyCard, progressText string) {
	g.push(screen.StudyCardMsg{Card: card, Progress: progressText})
}

func (g *Gateway) RenderSessionComplete(summary session.Summary) {
	g.push(screen.SessionCompleteMsg{Summary: summary})
}

func (g *Gateway) ShowTransientMessage(text string) {
	g.push(screen.ToastMsg{Text: text})
}
