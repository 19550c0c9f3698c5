package memory

import (
	"github.com/abhisek/flagz/internal/catalog"
	"github.com/abhisek/flagz/internal/progress"
	"github.com/abhisek/flagz/internal/roster"
	"github.com/abhisek/flagz/internal/session"
)

// Presenter is the display side of the trainer. Methods are called while
// the trainer holds its lock and must not call back into the Trainer.
type Presenter interface {
	RenderCategoryList(categories []CategoryView)
	RenderPreview(category CategoryView, flags []roster.Country)
	RenderStudyCard(card StudyCard, progressText string)
	RenderSessionComplete(summary session.Summary)
	ShowTransientMessage(text string)
}

// Localizer supplies display strings.
type Localizer interface {
	Translate(key string, params ...any) string
	ContinentName(c roster.Continent) string
	CountryName(c roster.Country) string
}

// CategoryView pairs a category with its progress and display title.
type CategoryView struct {
	Category    catalog.Category
	Progress    progress.CategoryProgress
	Title       string
	Recommended bool
}

// StudyCard is a flag ready for display.
type StudyCard struct {
	session.Card
	Country  roster.Country
	Name     string
	Category string
}

// NopPresenter discards everything. Used by headless callers.
type NopPresenter struct{}

func (NopPresenter) RenderCategoryList([]CategoryView) {}
func (NopPresenter) RenderPreview(CategoryView, []roster.Country) {}
func (NopPresenter) RenderStudyCard(StudyCard, string) {}
func (NopPresenter) RenderSessionComplete(session.Summary) {}
func (NopPresenter) ShowTransientMessage(string) {}
