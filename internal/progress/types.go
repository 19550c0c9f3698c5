// Package progress owns the learner's persisted progress: which flags are
// learned, the per-category aggregates and the learning-session history.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Document keys in the KV store.
const (
	KeyItems         = "enhancedMemoryProgress"
	KeyCategories    = "categoryProgress"
	KeyLearningState = "learningState"
)

// HistoryLimit is the number of most recent history entries retained.
const HistoryLimit = 50

// ErrUnknownCategory is returned for category keys the catalog doesn't know.
var ErrUnknownCategory = errors.New("unknown category")

// ItemProgress is the learned state of one flag.
type ItemProgress struct {
	Learned        bool      `json:"learned"`
	FirstLearnedAt time.Time `json:"firstLearnedAt"`
	LastLearnedAt  time.Time `json:"lastLearnedAt"`
	LearnCount     int       `json:"learnCount"`
}

// Status is the completion status of a category.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// CategoryProgress aggregates item progress over a category's members.
type CategoryProgress struct {
	Status       Status     `json:"status"`
	LearnedCount int        `json:"learnedCount"`
	TotalCount   int        `json:"totalCount"`
	LastStudied  *time.Time `json:"lastStudied"`
	StudyCount   int        `json:"studyCount"`
}

// Completed reports whether every member is learned.
func (p CategoryProgress) Completed() bool {
	return p.Status == StatusCompleted
}

// Ratio returns learned/total, or 0 for an empty category.
func (p CategoryProgress) Ratio() float64 {
	if p.TotalCount == 0 {
		return 0
	}
	return float64(p.LearnedCount) / float64(p.TotalCount)
}

// HistoryEntry records one smart-learning pick.
type HistoryEntry struct {
	Category    string    `json:"category"`
	StartTime   time.Time `json:"startTime"`
	SessionType string    `json:"sessionType"`
	SessionID   string    `json:"sessionId,omitempty"`
}

// LearningState is the persisted shape of the learningState document.
type LearningState struct {
	CurrentCategory     string         `json:"currentCategory"`
	LastStudiedCategory string         `json:"lastStudiedCategory"`
	SessionHistory      []HistoryEntry `json:"sessionHistory"`
}

// Stats summarises overall progress.
type Stats struct {
	TotalFlags          int `json:"totalFlags"`
	LearnedFlags        int `json:"learnedFlags"`
	TotalReviews        int `json:"totalReviews"`
	Categories          int `json:"categories"`
	CompletedCategories int `json:"completedCategories"`
	Sessions            int `json:"sessions"`
}

// PersistError describes a failed background write.
type PersistError struct {
	Op   string
	Keys []string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s %v: %v", e.Op, e.Keys, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives background write failures. It runs on the writer
// goroutine and must not call back into the tracker's write methods.
type ErrorHandler func(*PersistError)
