package progress

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/catalog"
	"github.com/abhisek/flagz/internal/store"
)

var errWriterClosed = errors.New("progress writer closed")

// Categories resolves category membership.
type Categories interface {
	Get(key string) (catalog.Category, bool)
	CategoryOf(code string) (string, bool)
	All() []catalog.Category
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger. The default discards.
func WithLogger(log *zap.Logger) Option {
	return func(t *Tracker) { t.log = log }
}

// WithErrorHandler registers a callback for background write failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(t *Tracker) { t.onError = h }
}

// Tracker is the single owner of the three progress documents. Reads are
// served from memory; every mutation enqueues a write of the whole
// affected document.
type Tracker struct {
	cats    Categories
	now     func() time.Time
	log     *zap.Logger
	onError ErrorHandler
	w       *writer

	mu         sync.Mutex
	items      map[string]*ItemProgress
	categories map[string]*CategoryProgress
	stale      map[string]bool
	state      LearningState
}

// New creates a tracker writing to kv and starts its writer goroutine.
// Call Load before use and Close when done.
func New(kv store.KV, cats Categories, opts ...Option) *Tracker {
	t := &Tracker{
		cats:       cats,
		now:        time.Now,
		log:        zap.NewNop(),
		items:      make(map[string]*ItemProgress),
		categories: make(map[string]*CategoryProgress),
		stale:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.w = newWriter(kv, t.log, t.onError)
	return t
}

// Load reads the persisted documents. Missing or unreadable documents fall
// back to empty ones; Load only fails if ctx is done.
func (t *Tracker) Load(ctx context.Context) error {
	kv := t.w.kv
	items := make(map[string]*ItemProgress)
	cats := make(map[string]*CategoryProgress)
	var state LearningState

	t.readDoc(ctx, kv, KeyItems, &items)
	t.readDoc(ctx, kv, KeyCategories, &cats)
	t.readDoc(ctx, kv, KeyLearningState, &state)
	if err := ctx.Err(); err != nil {
		return err
	}

	// Drop null entries a hand-edited document might carry.
	for k, v := range items {
		if v == nil {
			delete(items, k)
		}
	}
	for k, v := range cats {
		if v == nil {
			delete(cats, k)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = items
	t.categories = cats
	t.state = state
	t.stale = make(map[string]bool)
	// Counts may predate a roster change.
	for key := range cats {
		t.stale[key] = true
	}
	t.log.Info("progress loaded",
		zap.Int("items", len(items)),
		zap.Int("categories", len(cats)),
		zap.Int("history", len(state.SessionHistory)))
	return nil
}

func (t *Tracker) readDoc(ctx context.Context, kv store.KV, key string, into any) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		t.log.Warn("progress read failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := json.Unmarshal(raw, into); err != nil {
		t.log.Warn("progress document corrupt, starting empty", zap.String("key", key), zap.Error(err))
	}
}

// IsLearned reports whether code has been marked learned.
func (t *Tracker) IsLearned(code string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ip := t.items[code]
	return ip != nil && ip.Learned
}

// Item returns the progress record for code.
func (t *Tracker) Item(code string) (ItemProgress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ip := t.items[code]
	if ip == nil {
		return ItemProgress{}, false
	}
	return *ip, true
}

// MarkLearned records that code was recognised. It reports whether the
// flag was not learned before this call.
func (t *Tracker) MarkLearned(code string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	firstTime := false
	ip := t.items[code]
	if ip == nil {
		ip = &ItemProgress{FirstLearnedAt: now}
		t.items[code] = ip
		firstTime = true
	} else if !ip.Learned {
		firstTime = true
	}
	ip.Learned = true
	ip.LastLearnedAt = now
	ip.LearnCount++
	if ip.FirstLearnedAt.IsZero() || ip.FirstLearnedAt.After(now) {
		ip.FirstLearnedAt = now
	}

	if key, ok := t.cats.CategoryOf(code); ok {
		t.stale[key] = true
	}

	t.persistLocked(KeyItems, t.items)
	return firstTime
}

// CategoryProgress returns the progress of a category, recomputing it from
// item progress if any member changed since it was last computed.
func (t *Tracker) CategoryProgress(key string) (CategoryProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp, err := t.categoryLocked(key)
	if err != nil {
		return CategoryProgress{}, err
	}
	return copyProgress(cp), nil
}

func (t *Tracker) categoryLocked(key string) (*CategoryProgress, error) {
	cat, ok := t.cats.Get(key)
	if !ok {
		return nil, ErrUnknownCategory
	}
	cp := t.categories[key]
	if cp != nil && !t.stale[key] && cp.TotalCount == cat.Size() {
		return cp, nil
	}
	if cp == nil {
		cp = &CategoryProgress{}
		t.categories[key] = cp
	}
	t.recomputeLocked(cp, cat)
	delete(t.stale, key)
	return cp, nil
}

func (t *Tracker) recomputeLocked(cp *CategoryProgress, cat catalog.Category) {
	learned := 0
	for _, code := range cat.MemberCodes {
		if ip := t.items[code]; ip != nil && ip.Learned {
			learned++
		}
	}
	cp.LearnedCount = learned
	cp.TotalCount = cat.Size()
	if learned == cp.TotalCount {
		cp.Status = StatusCompleted
	} else {
		cp.Status = StatusInProgress
	}
}

// RefreshCategoryProgress recomputes a category from item progress and
// persists the category map.
func (t *Tracker) RefreshCategoryProgress(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cat, ok := t.cats.Get(key)
	if !ok {
		return ErrUnknownCategory
	}
	cp := t.categories[key]
	if cp == nil {
		cp = &CategoryProgress{}
		t.categories[key] = cp
	}
	t.recomputeLocked(cp, cat)
	delete(t.stale, key)
	t.persistLocked(KeyCategories, t.categories)
	return nil
}

// RecordStudy notes that key was studied now.
func (t *Tracker) RecordStudy(key string) error {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	cp, err := t.categoryLocked(key)
	if err != nil {
		return err
	}
	cp.StudyCount++
	cp.LastStudied = &now
	t.persistLocked(KeyCategories, t.categories)
	return nil
}

// AppendHistory adds a history entry, trims to HistoryLimit and records
// the entry's category as current.
func (t *Tracker) AppendHistory(entry HistoryEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.SessionHistory = append(t.state.SessionHistory, entry)
	if n := len(t.state.SessionHistory); n > HistoryLimit {
		trimmed := make([]HistoryEntry, HistoryLimit)
		copy(trimmed, t.state.SessionHistory[n-HistoryLimit:])
		t.state.SessionHistory = trimmed
	}
	if t.state.CurrentCategory != "" {
		t.state.LastStudiedCategory = t.state.CurrentCategory
	}
	t.state.CurrentCategory = entry.Category
	t.persistLocked(KeyLearningState, t.state)
}

// SetCurrentCategory records the category being studied.
func (t *Tracker) SetCurrentCategory(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.CurrentCategory == key {
		return
	}
	if t.state.CurrentCategory != "" {
		t.state.LastStudiedCategory = t.state.CurrentCategory
	}
	t.state.CurrentCategory = key
	t.persistLocked(KeyLearningState, t.state)
}

// History returns the session history, oldest first.
func (t *Tracker) History() []HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]HistoryEntry, len(t.state.SessionHistory))
	copy(out, t.state.SessionHistory)
	return out
}

// State returns the learning state document.
func (t *Tracker) State() LearningState {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.state
	s.SessionHistory = make([]HistoryEntry, len(t.state.SessionHistory))
	copy(s.SessionHistory, t.state.SessionHistory)
	return s
}

// Snapshot returns up-to-date progress for every category in the catalog.
func (t *Tracker) Snapshot() map[string]CategoryProgress {
	all := t.cats.All()
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]CategoryProgress, len(all))
	for _, cat := range all {
		cp, err := t.categoryLocked(cat.Key)
		if err != nil {
			continue
		}
		out[cat.Key] = copyProgress(cp)
	}
	return out
}

// Items returns a copy of all item progress.
func (t *Tracker) Items() map[string]ItemProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]ItemProgress, len(t.items))
	for code, ip := range t.items {
		out[code] = *ip
	}
	return out
}

// LearnedCodes returns the learned flag codes in sorted order.
func (t *Tracker) LearnedCodes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var codes []string
	for code, ip := range t.items {
		if ip.Learned {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// Stats summarises progress across the catalog.
func (t *Tracker) Stats() Stats {
	snap := t.Snapshot()

	t.mu.Lock()
	defer t.mu.Unlock()
	var s Stats
	for _, cp := range snap {
		s.Categories++
		s.TotalFlags += cp.TotalCount
		s.LearnedFlags += cp.LearnedCount
		if cp.Completed() {
			s.CompletedCategories++
		}
	}
	for _, ip := range t.items {
		s.TotalReviews += ip.LearnCount
	}
	s.Sessions = len(t.state.SessionHistory)
	return s
}

// ResetAll clears all progress in memory, then deletes the persisted
// documents. The in-memory clear happens even if the delete fails; the
// returned error is the store failure.
func (t *Tracker) ResetAll(ctx context.Context) error {
	t.mu.Lock()
	t.items = make(map[string]*ItemProgress)
	t.categories = make(map[string]*CategoryProgress)
	t.stale = make(map[string]bool)
	t.state = LearningState{}
	done := make(chan error, 1)
	t.w.enqueue(writeOp{
		kind: opDelete,
		keys: []string{KeyItems, KeyCategories, KeyLearningState},
		done: done,
	})
	t.mu.Unlock()

	t.log.Info("progress reset")

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush blocks until all queued writes have been applied.
func (t *Tracker) Flush(ctx context.Context) error {
	return t.w.flush(ctx)
}

// Close drains pending writes and stops the writer.
func (t *Tracker) Close() {
	t.w.close()
}

// persistLocked snapshots doc and queues it. Caller holds t.mu, which keeps
// the queue in call order.
func (t *Tracker) persistLocked(key string, doc any) {
	raw, err := json.Marshal(doc)
	if err != nil {
		t.log.Error("progress encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !t.w.enqueue(writeOp{kind: opSet, key: key, value: raw}) {
		t.log.Warn("progress write dropped after close", zap.String("key", key))
	}
}

func copyProgress(cp *CategoryProgress) CategoryProgress {
	out := *cp
	if cp.LastStudied != nil {
		ls := *cp.LastStudied
		out.LastStudied = &ls
	}
	return out
}
