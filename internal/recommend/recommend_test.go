package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/flagz/internal/catalog"
	"github.com/abhisek/flagz/internal/progress"
)

type lookupMap map[string]progress.CategoryProgress

func (m lookupMap) CategoryProgress(key string) (progress.CategoryProgress, error) {
	cp, ok := m[key]
	if !ok {
		return progress.CategoryProgress{}, progress.ErrUnknownCategory
	}
	return cp, nil
}

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) *time.Time {
	t := now.AddDate(0, 0, -d)
	return &t
}

func cats(keys ...string) []catalog.Category {
	out := make([]catalog.Category, len(keys))
	for i, k := range keys {
		out[i] = catalog.Category{Key: k}
	}
	return out
}

func inProgress(learned, total int) progress.CategoryProgress {
	return progress.CategoryProgress{Status: progress.StatusInProgress, LearnedCount: learned, TotalCount: total}
}

func completed(total int, last *time.Time) progress.CategoryProgress {
	return progress.CategoryProgress{Status: progress.StatusCompleted, LearnedCount: total, TotalCount: total, LastStudied: last}
}

func TestSelectBestCategory(t *testing.T) {
	tests := []struct {
		name    string
		cats    []catalog.Category
		lookup  lookupMap
		want    string
		wantOK  bool
		wantWhy Reason
	}{
		{
			name:    "least progressed incomplete first",
			cats:    cats("b", "a"),
			lookup:  lookupMap{"a": inProgress(0, 10), "b": inProgress(5, 10)},
			want:    "a",
			wantOK:  true,
			wantWhy: ReasonIncomplete,
		},
		{
			name:    "incomplete beats overdue review",
			cats:    cats("done", "new"),
			lookup:  lookupMap{"done": completed(5, daysAgo(30)), "new": inProgress(9, 10)},
			want:    "new",
			wantOK:  true,
			wantWhy: ReasonIncomplete,
		},
		{
			name:    "most overdue completed category",
			cats:    cats("x", "y"),
			lookup:  lookupMap{"x": completed(5, daysAgo(2)), "y": completed(5, daysAgo(10))},
			want:    "y",
			wantOK:  true,
			wantWhy: ReasonReviewDue,
		},
		{
			name:    "never studied is always due",
			cats:    cats("x", "y"),
			lookup:  lookupMap{"x": completed(5, daysAgo(100)), "y": completed(5, nil)},
			want:    "y",
			wantOK:  true,
			wantWhy: ReasonReviewDue,
		},
		{
			name:    "exactly seven days is not due",
			cats:    cats("x"),
			lookup:  lookupMap{"x": completed(5, daysAgo(7))},
			wantOK:  false,
			wantWhy: ReasonCaughtUp,
		},
		{
			name:    "all caught up",
			cats:    cats("x", "y"),
			lookup:  lookupMap{"x": completed(5, daysAgo(1)), "y": completed(3, daysAgo(3))},
			wantOK:  false,
			wantWhy: ReasonCaughtUp,
		},
		{
			name:    "equal ratios break ties by key",
			cats:    cats("europe.2", "asia", "europe.1"),
			lookup:  lookupMap{"asia": inProgress(6, 12), "europe.1": inProgress(0, 12), "europe.2": inProgress(0, 12)},
			want:    "europe.1",
			wantOK:  true,
			wantWhy: ReasonIncomplete,
		},
		{
			name:    "equal staleness breaks ties by key",
			cats:    cats("oceania", "africa.1"),
			lookup:  lookupMap{"oceania": completed(5, nil), "africa.1": completed(12, nil)},
			want:    "africa.1",
			wantOK:  true,
			wantWhy: ReasonReviewDue,
		},
		{
			name:    "unknown categories are skipped",
			cats:    cats("ghost", "asia"),
			lookup:  lookupMap{"asia": inProgress(1, 5)},
			want:    "asia",
			wantOK:  true,
			wantWhy: ReasonIncomplete,
		},
		{
			name:    "empty catalog",
			lookup:  lookupMap{},
			wantOK:  false,
			wantWhy: ReasonCaughtUp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBestCategory(tt.cats, tt.lookup, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantWhy, Explain(tt.cats, tt.lookup, now, "").Reason)
		})
	}
}

func TestContinueToNextCategory_Excludes(t *testing.T) {
	lookup := lookupMap{"a": inProgress(0, 10), "b": inProgress(5, 10)}

	got, ok := ContinueToNextCategory(cats("a", "b"), lookup, now, "a")
	assert.True(t, ok)
	assert.Equal(t, "b", got)

	_, ok = ContinueToNextCategory(cats("a"), lookup, now, "a")
	assert.False(t, ok)
}

func TestExplain_ReportsStaleness(t *testing.T) {
	p := Explain(cats("x"), lookupMap{"x": completed(4, daysAgo(10))}, now, "")
	assert.Equal(t, "x", p.Key)
	assert.Equal(t, 10, p.DaysSince)
	assert.InDelta(t, 1.0, p.Ratio, 0.001)

	never := Explain(cats("x"), lookupMap{"x": completed(4, nil)}, now, "")
	assert.Equal(t, NeverStudiedDays, never.DaysSince)
}

func TestDaysSince_WholeDays(t *testing.T) {
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}
	tests := []struct {
		name string
		ago  time.Duration
		want int
		due  bool
	}{
		{"seven days", 7 * 24 * time.Hour, 7, false},
		{"seven and a half days", 7*24*time.Hour + 12*time.Hour, 7, false},
		{"just under eight days", 8*24*time.Hour - time.Minute, 7, false},
		{"eight days", 8 * 24 * time.Hour, 8, true},
		{"future timestamp", -time.Hour, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := at(tt.ago)
			assert.Equal(t, tt.want, DaysSince(last, now))

			p := Explain(cats("asia"), lookupMap{"asia": completed(5, last)}, now, "")
			assert.Equal(t, tt.due, p.Found())
			if tt.due {
				assert.Equal(t, ReasonReviewDue, p.Reason)
				assert.Equal(t, tt.want, p.DaysSince)
			}
		})
	}
}
