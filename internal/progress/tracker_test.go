package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/flagz/internal/catalog"
	"github.com/abhisek/flagz/internal/roster"
	"github.com/abhisek/flagz/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func asiaCatalog(t *testing.T, n int) *catalog.Catalog {
	t.Helper()
	countries := make([]roster.Country, n)
	for i := range countries {
		countries[i] = roster.Country{Code: fmt.Sprintf("a%d", i+1), Continent: roster.Asia}
	}
	c := catalog.New(nil)
	require.NoError(t, c.Rebuild(countries))
	return c
}

func newTestTracker(t *testing.T, kv store.KV, cats Categories, opts ...Option) (*Tracker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	tr := New(kv, cats, opts...)
	require.NoError(t, tr.Load(context.Background()))
	t.Cleanup(tr.Close)
	return tr, clock
}

func TestMarkLearned_IdempotentAndMonotone(t *testing.T) {
	tr, clock := newTestTracker(t, store.NewMemory(), asiaCatalog(t, 5))

	assert.False(t, tr.IsLearned("a1"))
	assert.True(t, tr.MarkLearned("a1"))

	first, ok := tr.Item("a1")
	require.True(t, ok)
	assert.True(t, first.Learned)
	assert.Equal(t, 1, first.LearnCount)
	assert.Equal(t, first.FirstLearnedAt, first.LastLearnedAt)

	clock.Advance(time.Hour)
	assert.False(t, tr.MarkLearned("a1"), "second mark is not a first-time learn")

	second, _ := tr.Item("a1")
	assert.True(t, second.Learned)
	assert.Equal(t, 2, second.LearnCount)
	assert.Equal(t, first.FirstLearnedAt, second.FirstLearnedAt)
	assert.True(t, second.LastLearnedAt.After(first.LastLearnedAt))
}

func TestCategoryProgress_InvalidatedByMarkLearned(t *testing.T) {
	tr, _ := newTestTracker(t, store.NewMemory(), asiaCatalog(t, 3))

	cp, err := tr.CategoryProgress("asia")
	require.NoError(t, err)
	assert.Equal(t, 0, cp.LearnedCount)
	assert.Equal(t, 3, cp.TotalCount)
	assert.Equal(t, StatusInProgress, cp.Status)

	tr.MarkLearned("a1")
	cp, err = tr.CategoryProgress("asia")
	require.NoError(t, err)
	assert.Equal(t, 1, cp.LearnedCount, "read after mark must not be stale")
}

func TestCategoryProgress_UnknownKey(t *testing.T) {
	tr, _ := newTestTracker(t, store.NewMemory(), asiaCatalog(t, 3))

	_, err := tr.CategoryProgress("europe")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.ErrorIs(t, tr.RefreshCategoryProgress("europe"), ErrUnknownCategory)
	assert.ErrorIs(t, tr.RecordStudy("europe"), ErrUnknownCategory)
}

func TestRefreshCategoryProgress_CompletionInvariant(t *testing.T) {
	kv := store.NewMemory()
	tr, _ := newTestTracker(t, kv, asiaCatalog(t, 4))

	for i, code := range []string{"a1", "a2", "a3", "a4"} {
		tr.MarkLearned(code)
		require.NoError(t, tr.RefreshCategoryProgress("asia"))
		cp, err := tr.CategoryProgress("asia")
		require.NoError(t, err)
		assert.Equal(t, i+1, cp.LearnedCount)
		assert.Equal(t, cp.LearnedCount == cp.TotalCount, cp.Completed())
	}

	require.NoError(t, tr.Flush(context.Background()))
	raw, err := kv.Get(context.Background(), KeyCategories)
	require.NoError(t, err)

	var doc map[string]CategoryProgress
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, StatusCompleted, doc["asia"].Status)
	assert.Equal(t, 4, doc["asia"].LearnedCount)
}

func TestRecordStudy(t *testing.T) {
	tr, clock := newTestTracker(t, store.NewMemory(), asiaCatalog(t, 2))

	require.NoError(t, tr.RecordStudy("asia"))
	clock.Advance(24 * time.Hour)
	require.NoError(t, tr.RecordStudy("asia"))

	cp, err := tr.CategoryProgress("asia")
	require.NoError(t, err)
	assert.Equal(t, 2, cp.StudyCount)
	require.NotNil(t, cp.LastStudied)
	assert.Equal(t, clock.Now(), *cp.LastStudied)
}

func TestAppendHistory_CapsAtLimit(t *testing.T) {
	tr, clock := newTestTracker(t, store.NewMemory(), asiaCatalog(t, 2))

	for i := 0; i < HistoryLimit+7; i++ {
		tr.AppendHistory(HistoryEntry{
			Category:    fmt.Sprintf("c%d", i),
			StartTime:   clock.Now(),
			SessionType: "smart_learning",
		})
	}

	h := tr.History()
	require.Len(t, h, HistoryLimit)
	assert.Equal(t, "c7", h[0].Category, "oldest entries evicted")
	assert.Equal(t, fmt.Sprintf("c%d", HistoryLimit+6), h[len(h)-1].Category)

	state := tr.State()
	assert.Equal(t, fmt.Sprintf("c%d", HistoryLimit+6), state.CurrentCategory)
	assert.Equal(t, fmt.Sprintf("c%d", HistoryLimit+5), state.LastStudiedCategory)
}

func TestLoad_RoundTripsThroughStore(t *testing.T) {
	kv := store.NewMemory()
	cats := asiaCatalog(t, 3)

	tr1, _ := newTestTracker(t, kv, cats)
	tr1.MarkLearned("a2")
	require.NoError(t, tr1.RecordStudy("asia"))
	tr1.AppendHistory(HistoryEntry{Category: "asia", SessionType: "smart_learning"})
	require.NoError(t, tr1.Flush(context.Background()))

	tr2, _ := newTestTracker(t, kv, cats)
	assert.True(t, tr2.IsLearned("a2"))
	assert.False(t, tr2.IsLearned("a1"))
	assert.Len(t, tr2.History(), 1)

	cp, err := tr2.CategoryProgress("asia")
	require.NoError(t, err)
	assert.Equal(t, 1, cp.LearnedCount)
	assert.Equal(t, 1, cp.StudyCount)
}

func TestLoad_CorruptDocumentsFallBackToEmpty(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, KeyItems, []byte("{not json")))
	require.NoError(t, kv.Set(ctx, KeyLearningState, []byte(`[]`)))

	tr, _ := newTestTracker(t, kv, asiaCatalog(t, 3))
	assert.Empty(t, tr.Items())
	assert.Empty(t, tr.History())
}

type failingKV struct {
	*store.Memory
	fail error
}

func (f *failingKV) Set(context.Context, string, []byte) error { return f.fail }
func (f *failingKV) Delete(context.Context, ...string) error   { return f.fail }

func TestWriteFailure_KeepsMemoryAndReports(t *testing.T) {
	quota := errors.New("quota exceeded")
	kv := &failingKV{Memory: store.NewMemory(), fail: quota}

	var mu sync.Mutex
	var reported []*PersistError
	tr, _ := newTestTracker(t, kv, asiaCatalog(t, 3), WithErrorHandler(func(pe *PersistError) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, pe)
	}))

	tr.MarkLearned("a1")
	require.NoError(t, tr.Flush(context.Background()))

	assert.True(t, tr.IsLearned("a1"), "in-memory mutation is not rolled back")
	mu.Lock()
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], quota)
	assert.Equal(t, []string{KeyItems}, reported[0].Keys)
	mu.Unlock()

	err := tr.ResetAll(context.Background())
	assert.ErrorIs(t, err, quota)
	assert.False(t, tr.IsLearned("a1"), "memory cleared even though delete failed")
}

func TestResetAll(t *testing.T) {
	kv := store.NewMemory()
	tr, _ := newTestTracker(t, kv, asiaCatalog(t, 5))

	for _, code := range []string{"a1", "a2", "a3", "a4", "a5"} {
		tr.MarkLearned(code)
	}
	require.NoError(t, tr.RefreshCategoryProgress("asia"))
	tr.AppendHistory(HistoryEntry{Category: "asia"})

	require.NoError(t, tr.ResetAll(context.Background()))

	cp, err := tr.CategoryProgress("asia")
	require.NoError(t, err)
	assert.Equal(t, CategoryProgress{Status: StatusInProgress, LearnedCount: 0, TotalCount: 5}, cp)
	assert.Empty(t, tr.History())
	assert.Empty(t, tr.Items())
	assert.Empty(t, kv.Keys())
}

func TestWrites_PreserveCallOrder(t *testing.T) {
	kv := store.NewMemory()
	tr, _ := newTestTracker(t, kv, asiaCatalog(t, 5))

	for _, code := range []string{"a1", "a2", "a3"} {
		tr.MarkLearned(code)
	}
	require.NoError(t, tr.Flush(context.Background()))

	raw, err := kv.Get(context.Background(), KeyItems)
	require.NoError(t, err)
	var doc map[string]ItemProgress
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc, 3, "last write wins and carries every mark")
}

func TestStats(t *testing.T) {
	tr, _ := newTestTracker(t, store.NewMemory(), asiaCatalog(t, 2))

	tr.MarkLearned("a1")
	tr.MarkLearned("a1")
	tr.MarkLearned("a2")
	tr.AppendHistory(HistoryEntry{Category: "asia"})

	s := tr.Stats()
	assert.Equal(t, Stats{
		TotalFlags:          2,
		LearnedFlags:        2,
		TotalReviews:        3,
		Categories:          1,
		CompletedCategories: 1,
		Sessions:            1,
	}, s)
}

func TestClose_DrainsQueue(t *testing.T) {
	kv := store.NewMemory()
	tr := New(kv, asiaCatalog(t, 2))
	require.NoError(t, tr.Load(context.Background()))

	tr.MarkLearned("a1")
	tr.Close()

	_, err := kv.Get(context.Background(), KeyItems)
	assert.NoError(t, err)
	assert.ErrorIs(t, tr.Flush(context.Background()), errWriterClosed)
}
