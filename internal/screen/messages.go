package screen

import (
	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/roster"
	"github.com/abhisek/flagz/internal/session"
)

// Messages emitted by the trainer's presenter. The app turns them into
// navigation; the active screen receives them too.

// CategoryListMsg carries a fresh category list.
type CategoryListMsg struct {
	Categories []memory.CategoryView
}

// PreviewMsg opens a category preview.
type PreviewMsg struct {
	Category memory.CategoryView
	Flags    []roster.Country
}

// StudyCardMsg shows the current flag of an active session.
type StudyCardMsg struct {
	Card     memory.StudyCard
	Progress string
}

// SessionCompleteMsg shows the end-of-session summary.
type SessionCompleteMsg struct {
	Summary session.Summary
}

// ToastMsg is a short-lived status line.
type ToastMsg struct {
	Text string
}

// OpenHistoryMsg asks the app to show the smart-learning history.
type OpenHistoryMsg struct{}
