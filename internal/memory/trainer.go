// Package memory wires the category catalog, progress tracker,
// recommender and session machine into the flag memory trainer.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/catalog"
	"github.com/abhisek/flagz/internal/i18n"
	"github.com/abhisek/flagz/internal/progress"
	"github.com/abhisek/flagz/internal/recommend"
	"github.com/abhisek/flagz/internal/roster"
	"github.com/abhisek/flagz/internal/session"
)

// ErrNoPendingReset is returned by ConfirmReset without a prior RequestReset.
var ErrNoPendingReset = errors.New("no reset pending")

// ErrUnknownFlag is returned for codes missing from the roster.
var ErrUnknownFlag = errors.New("unknown flag")

// Categories is the catalog as seen by the trainer.
type Categories interface {
	Get(key string) (catalog.Category, bool)
	All() []catalog.Category
	CategoryOf(code string) (string, bool)
	Ready() bool
}

// Deps holds the trainer's collaborators.
type Deps struct {
	Catalog   Categories
	Tracker   *progress.Tracker
	Roster    roster.Provider
	Localizer Localizer
	Presenter Presenter
	Logger    *zap.Logger
	Clock     func() time.Time
	Rand      *rand.Rand
}

// Trainer handles the user's study events and drives the Presenter.
// All methods are safe for concurrent use.
type Trainer struct {
	cats    Categories
	tracker *progress.Tracker
	roster  roster.Provider
	loc     Localizer
	pres    Presenter
	log     *zap.Logger
	now     func() time.Time

	mu           sync.Mutex
	machine      *session.Machine
	pendingReset bool
}

// New creates a trainer. Tracker must already be loaded.
func New(d Deps) *Trainer {
	t := &Trainer{
		cats:    d.Catalog,
		tracker: d.Tracker,
		roster:  d.Roster,
		loc:     d.Localizer,
		pres:    d.Presenter,
		log:     d.Logger,
		now:     d.Clock,
	}
	if t.pres == nil {
		t.pres = NopPresenter{}
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.loc == nil {
		t.loc = i18n.New("en")
	}
	opts := []session.Option{session.WithClock(t.now)}
	if d.Rand != nil {
		opts = append(opts, session.WithRand(d.Rand))
	}
	t.machine = session.New(t.tracker, opts...)
	return t
}

// Phase returns the session phase.
func (t *Trainer) Phase() session.Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.machine.Phase()
}

// ShowCategories renders the category list.
func (t *Trainer) ShowCategories() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.renderListLocked()
}

func (t *Trainer) renderListLocked() error {
	if !t.cats.Ready() {
		t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeyRosterLoading))
		return catalog.ErrRosterNotReady
	}
	t.pres.RenderCategoryList(t.categoryViewsLocked())
	return nil
}

// CategoryViews returns every category with its progress, in catalog order.
func (t *Trainer) CategoryViews() []CategoryView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.categoryViewsLocked()
}

func (t *Trainer) categoryViewsLocked() []CategoryView {
	all := t.cats.All()
	snap := t.tracker.Snapshot()
	pick := recommend.Explain(all, t.tracker, t.now(), "")

	views := make([]CategoryView, 0, len(all))
	for _, cat := range all {
		views = append(views, CategoryView{
			Category:    cat,
			Progress:    snap[cat.Key],
			Title:       t.Title(cat),
			Recommended: cat.Key == pick.Key,
		})
	}
	return views
}

// Title is the display name of a category.
func (t *Trainer) Title(cat catalog.Category) string {
	name := t.loc.ContinentName(cat.ContinentKey)
	if cat.GroupNumber == nil {
		return name
	}
	return t.loc.Translate(i18n.KeyCategoryGroup, name, *cat.GroupNumber, cat.TotalGroups)
}

// Recommendation explains what SmartLearn would pick.
func (t *Trainer) Recommendation(excluding string) recommend.Pick {
	return recommend.Explain(t.cats.All(), t.tracker, t.now(), excluding)
}

// SelectCategory previews key for study.
func (t *Trainer) SelectCategory(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cat, err := t.lookupLocked(key)
	if err != nil {
		return err
	}
	if err := t.machine.StartCategoryStudy(cat, session.TypeCategoryStudy); err != nil {
		return err
	}
	t.tracker.SetCurrentCategory(key)
	t.log.Info("category selected", zap.String("category", key), zap.String("session_id", t.machine.SessionID()))
	t.renderPreviewLocked(cat)
	return nil
}

func (t *Trainer) lookupLocked(key string) (catalog.Category, error) {
	if !t.cats.Ready() {
		t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeyRosterLoading))
		return catalog.Category{}, catalog.ErrRosterNotReady
	}
	cat, ok := t.cats.Get(key)
	if !ok {
		t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeyUnknownCategory))
		return catalog.Category{}, fmt.Errorf("%w: %s", progress.ErrUnknownCategory, key)
	}
	return cat, nil
}

func (t *Trainer) renderPreviewLocked(cat catalog.Category) {
	index := roster.Index(t.roster.Countries())
	queue := t.machine.Queue()
	flags := make([]roster.Country, 0, len(queue))
	for _, code := range queue {
		if c, ok := index[code]; ok {
			flags = append(flags, c)
		}
	}
	cp, _ := t.tracker.CategoryProgress(cat.Key)
	t.pres.RenderPreview(CategoryView{Category: cat, Progress: cp, Title: t.Title(cat)}, flags)
}

// SmartLearn previews the recommended category and records the pick in
// the session history. A pick with Found() false means everything is
// caught up.
func (t *Trainer) SmartLearn() (recommend.Pick, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cats.Ready() {
		t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeyRosterLoading))
		return recommend.Pick{}, catalog.ErrRosterNotReady
	}

	now := t.now()
	pick := recommend.Explain(t.cats.All(), t.tracker, now, "")
	if !pick.Found() {
		t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeyCaughtUp))
		return pick, nil
	}

	cat, err := t.lookupLocked(pick.Key)
	if err != nil {
		return pick, err
	}
	if err := t.machine.StartCategoryStudy(cat, session.TypeSmartLearning); err != nil {
		return pick, err
	}
	t.tracker.AppendHistory(progress.HistoryEntry{
		Category:    pick.Key,
		StartTime:   now,
		SessionType: session.TypeSmartLearning,
		SessionID:   t.machine.SessionID(),
	})
	t.log.Info("smart learning pick",
		zap.String("category", pick.Key),
		zap.String("reason", string(pick.Reason)),
		zap.Float64("ratio", pick.Ratio),
		zap.String("session_id", t.machine.SessionID()))

	t.pres.ShowTransientMessage(t.ReasonText(pick))
	t.renderPreviewLocked(cat)
	return pick, nil
}

// ReasonText is the localized explanation of a pick.
func (t *Trainer) ReasonText(p recommend.Pick) string {
	switch p.Reason {
	case recommend.ReasonIncomplete:
		return t.loc.Translate(i18n.KeyReasonIncomplete, p.Ratio*100)
	case recommend.ReasonReviewDue:
		return t.loc.Translate(i18n.KeyReasonReviewDue, p.DaysSince)
	default:
		return t.loc.Translate(i18n.KeyCaughtUp)
	}
}

// BeginSession starts the previewed session.
func (t *Trainer) BeginSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settleLocked(t.machine.Begin())
}

// MarkRecognized reveals the current flag, recording it as learned when
// recognized is true.
func (t *Trainer) MarkRecognized(recognized bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.machine.Reveal(recognized); err != nil {
		return err
	}
	t.renderSessionLocked()
	return nil
}

// Advance moves to the next flag or completes the session.
func (t *Trainer) Advance() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settleLocked(t.machine.Next())
}

// settleLocked finishes a Begin or Next. Completion records the study
// even if the category refresh reported an error.
func (t *Trainer) settleLocked(err error) error {
	if errors.Is(err, session.ErrInvalidTransition) || errors.Is(err, session.ErrNoActiveCategory) {
		return err
	}
	if err != nil {
		t.log.Warn("category refresh failed", zap.Error(err))
	}
	if t.machine.Phase() == session.PhaseComplete {
		cat, _ := t.machine.Category()
		if err := t.tracker.RecordStudy(cat.Key); err != nil {
			t.log.Warn("record study", zap.String("category", cat.Key), zap.Error(err))
		}
	}
	t.renderSessionLocked()
	return nil
}

func (t *Trainer) renderSessionLocked() {
	switch t.machine.Phase() {
	case session.PhaseComplete:
		sum, _ := t.machine.Summary()
		t.log.Info("session complete",
			zap.String("session_id", sum.SessionID),
			zap.String("category", sum.Category),
			zap.Int("total", sum.Total),
			zap.Int("new_learned", sum.NewLearned),
			zap.Duration("elapsed", sum.Elapsed))
		t.pres.RenderSessionComplete(sum)
	case session.PhaseActive:
		card, err := t.machine.Current()
		if err != nil {
			return
		}
		t.pres.RenderStudyCard(t.studyCardLocked(card), t.loc.Translate(i18n.KeyStudyProgress, card.Position, card.Total))
	}
}

// CurrentCard returns the flag under the cursor of an active session.
func (t *Trainer) CurrentCard() (StudyCard, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	card, err := t.machine.Current()
	if err != nil {
		return StudyCard{}, err
	}
	return t.studyCardLocked(card), nil
}

func (t *Trainer) studyCardLocked(card session.Card) StudyCard {
	sc := StudyCard{Card: card, Name: card.Code}
	if c, ok := roster.Index(t.roster.Countries())[card.Code]; ok {
		sc.Country = c
		sc.Name = t.loc.CountryName(c)
	}
	if cat, ok := t.machine.Category(); ok {
		sc.Category = cat.Key
	}
	return sc
}

// Summary returns the last completed session's summary.
func (t *Trainer) Summary() (session.Summary, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.machine.Summary()
}

// ReturnToList abandons any session and shows the category list.
func (t *Trainer) ReturnToList() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.machine.ReturnHome()
	return t.renderListLocked()
}

// ContinueToNext chains a completed session into the next recommended
// category. With nothing left it returns to the list.
func (t *Trainer) ContinueToNext() (recommend.Pick, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.machine.Phase() != session.PhaseComplete {
		return recommend.Pick{}, session.ErrInvalidTransition
	}
	done, _ := t.machine.Category()

	pick := recommend.Explain(t.cats.All(), t.tracker, t.now(), done.Key)
	if !pick.Found() {
		t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeyCaughtUp))
		t.machine.ReturnHome()
		return pick, t.renderListLocked()
	}

	next, err := t.lookupLocked(pick.Key)
	if err != nil {
		return pick, err
	}
	if err := t.machine.ContinueToNextCategory(next, session.TypeSmartLearning); err != nil {
		return pick, err
	}
	t.tracker.SetCurrentCategory(next.Key)
	t.renderPreviewLocked(next)
	return pick, nil
}

// RequestReset asks the user to confirm a full reset.
func (t *Trainer) RequestReset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pendingReset = true
	t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeyResetConfirm))
}

// ResetPending reports whether a reset awaits confirmation.
func (t *Trainer) ResetPending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingReset
}

// ConfirmReset answers a pending RequestReset. On confirmation all
// progress is erased; the returned error is the store failure, if any,
// and memory is cleared either way.
func (t *Trainer) ConfirmReset(ctx context.Context, confirmed bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.pendingReset {
		return ErrNoPendingReset
	}
	t.pendingReset = false

	if !confirmed {
		t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeyResetCancelled))
		return nil
	}
	return t.resetLocked(ctx)
}

// ResetNow erases all progress without the confirmation round-trip, for
// callers that confirmed out of band. Any pending request is dropped.
func (t *Trainer) ResetNow(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pendingReset = false
	return t.resetLocked(ctx)
}

func (t *Trainer) resetLocked(ctx context.Context) error {
	t.machine.ReturnHome()
	err := t.tracker.ResetAll(ctx)
	if err != nil {
		t.log.Error("reset failed", zap.Error(err))
		t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeyResetFailed))
	} else {
		t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeyResetDone))
	}
	_ = t.renderListLocked()
	return err
}

// NotifyPersistError surfaces a background write failure. It is meant to
// be registered as the tracker's error handler and doesn't take the lock.
func (t *Trainer) NotifyPersistError(_ *progress.PersistError) {
	t.pres.ShowTransientMessage(t.loc.Translate(i18n.KeySaveFailed))
}

// History returns the smart-learning picks, oldest first.
func (t *Trainer) History() []progress.HistoryEntry {
	return t.tracker.History()
}

// Category returns one category with its progress.
func (t *Trainer) Category(key string) (CategoryView, error) {
	if !t.cats.Ready() {
		return CategoryView{}, catalog.ErrRosterNotReady
	}
	cat, ok := t.cats.Get(key)
	if !ok {
		return CategoryView{}, fmt.Errorf("%w: %s", progress.ErrUnknownCategory, key)
	}
	cp, err := t.tracker.CategoryProgress(key)
	if err != nil {
		return CategoryView{}, err
	}
	pick := t.Recommendation("")
	return CategoryView{Category: cat, Progress: cp, Title: t.Title(cat), Recommended: pick.Key == key}, nil
}

// Flag returns a roster entry with its progress.
func (t *Trainer) Flag(code string) (roster.Country, progress.ItemProgress, error) {
	c, ok := roster.Index(t.roster.Countries())[code]
	if !ok {
		return roster.Country{}, progress.ItemProgress{}, fmt.Errorf("%w: %s", ErrUnknownFlag, code)
	}
	ip, _ := t.tracker.Item(code)
	return c, ip, nil
}

// MarkFlagLearned records a flag as learned outside a session and
// refreshes its category. It reports whether this was a first-time learn.
func (t *Trainer) MarkFlagLearned(code string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := roster.Index(t.roster.Countries())[code]; !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownFlag, code)
	}
	first := t.tracker.MarkLearned(code)
	if key, ok := t.cats.CategoryOf(code); ok {
		if err := t.tracker.RefreshCategoryProgress(key); err != nil {
			return first, err
		}
	}
	return first, nil
}
