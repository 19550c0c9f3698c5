// Package recommend picks the next category to study: new content first,
// then spaced review of completed categories.
package recommend

import (
	"sort"
	"time"

	"github.com/abhisek/flagz/internal/catalog"
	"github.com/abhisek/flagz/internal/progress"
)

// ReviewAfterDays is how long a completed category rests before it is
// due for review.
const ReviewAfterDays = 7

// NeverStudiedDays is the staleness assigned to a category with no
// recorded study.
const NeverStudiedDays = 999

// Lookup returns the current progress of a category.
type Lookup interface {
	CategoryProgress(key string) (progress.CategoryProgress, error)
}

// Reason explains why a category was picked.
type Reason string

const (
	ReasonIncomplete Reason = "incomplete"
	ReasonReviewDue  Reason = "review_due"
	ReasonCaughtUp   Reason = "caught_up"
)

// Pick is an explained recommendation.
type Pick struct {
	Key       string  `json:"key"`
	Reason    Reason  `json:"reason"`
	Ratio     float64 `json:"ratio"`
	DaysSince int     `json:"daysSince"`
}

// Found reports whether a category was picked.
func (p Pick) Found() bool {
	return p.Key != ""
}

// SelectBestCategory returns the key of the category to study next, or
// false when everything is complete and recently reviewed.
func SelectBestCategory(categories []catalog.Category, lookup Lookup, now time.Time) (string, bool) {
	p := Explain(categories, lookup, now, "")
	return p.Key, p.Found()
}

// ContinueToNextCategory is SelectBestCategory with one category excluded.
func ContinueToNextCategory(categories []catalog.Category, lookup Lookup, now time.Time, excluding string) (string, bool) {
	p := Explain(categories, lookup, now, excluding)
	return p.Key, p.Found()
}

type candidate struct {
	key   string
	ratio float64
	days  int
}

// Explain runs the selection and reports the reason for the pick.
// Ties on ratio or staleness go to the lexically smaller key.
func Explain(categories []catalog.Category, lookup Lookup, now time.Time, excluding string) Pick {
	var incomplete, due []candidate

	for _, cat := range categories {
		if cat.Key == excluding {
			continue
		}
		cp, err := lookup.CategoryProgress(cat.Key)
		if err != nil {
			continue
		}
		if !cp.Completed() {
			incomplete = append(incomplete, candidate{key: cat.Key, ratio: cp.Ratio()})
			continue
		}
		days := DaysSince(cp.LastStudied, now)
		if days > ReviewAfterDays {
			due = append(due, candidate{key: cat.Key, ratio: cp.Ratio(), days: days})
		}
	}

	if len(incomplete) > 0 {
		sort.Slice(incomplete, func(i, j int) bool {
			if incomplete[i].ratio != incomplete[j].ratio {
				return incomplete[i].ratio < incomplete[j].ratio
			}
			return incomplete[i].key < incomplete[j].key
		})
		c := incomplete[0]
		return Pick{Key: c.key, Reason: ReasonIncomplete, Ratio: c.ratio}
	}

	if len(due) > 0 {
		sort.Slice(due, func(i, j int) bool {
			if due[i].days != due[j].days {
				return due[i].days > due[j].days
			}
			return due[i].key < due[j].key
		})
		c := due[0]
		return Pick{Key: c.key, Reason: ReasonReviewDue, Ratio: c.ratio, DaysSince: c.days}
	}

	return Pick{Reason: ReasonCaughtUp}
}

// DaysSince returns the whole days elapsed between last and now, or
// NeverStudiedDays when last is nil. A category is due only once a full
// eighth day has passed.
func DaysSince(last *time.Time, now time.Time) int {
	if last == nil {
		return NeverStudiedDays
	}
	if !now.After(*last) {
		return 0
	}
	return int(now.Sub(*last) / (24 * time.Hour))
}
