// Package session drives a single study pass through one category:
// preview, per-flag reveal and advance, and completion.
package session

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/flagz/internal/catalog"
)

var (
	// ErrInvalidTransition is returned when an operation isn't allowed in
	// the current phase.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrNoActiveCategory is returned when an operation needs a category
	// and none is selected.
	ErrNoActiveCategory = errors.New("no active category")
)

// Phase is the state of the machine.
type Phase int

const (
	PhaseIdle       Phase = iota // No category selected
	PhasePreviewing              // Queue built, clock not started
	PhaseActive                  // Walking the queue
	PhaseComplete                // Summary available
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreviewing:
		return "previewing"
	case PhaseActive:
		return "active"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Session type labels.
const (
	TypeCategoryStudy = "category_study"
	TypeSmartLearning = "smart_learning"
)

// Tracker is the slice of the progress tracker the machine mutates.
type Tracker interface {
	IsLearned(code string) bool
	MarkLearned(code string) bool
	RefreshCategoryProgress(key string) error
}

// Card is the flag currently shown.
type Card struct {
	Code       string
	Position   int // 1-based
	Total      int
	Revealed   bool
	Recognized bool
	Learned    bool
}

// Summary is finalised when the machine enters PhaseComplete.
type Summary struct {
	SessionID   string
	Category    string
	SessionType string
	Total       int
	NewLearned  int
	Elapsed     time.Duration
}

// Option configures a Machine.
type Option func(*Machine)

// WithRand sets the shuffle source.
func WithRand(r *rand.Rand) Option {
	return func(m *Machine) { m.rng = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// Machine is the study-session state machine. It is not safe for
// concurrent use.
type Machine struct {
	tracker Tracker
	rng     *rand.Rand
	now     func() time.Time

	phase       Phase
	category    *catalog.Category
	sessionType string
	sessionID   string
	queue       []string
	cursor      int
	startTime   time.Time
	studied     int
	revealed    bool
	recognized  bool
	summary     *Summary
}

// New creates an idle machine.
func New(tracker Tracker, opts ...Option) *Machine {
	m := &Machine{
		tracker: tracker,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		seed := uint64(time.Now().UnixNano())
		m.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return m
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Category returns the selected category.
func (m *Machine) Category() (catalog.Category, bool) {
	if m.category == nil {
		return catalog.Category{}, false
	}
	return *m.category, true
}

// SessionType returns the label passed to StartCategoryStudy.
func (m *Machine) SessionType() string { return m.sessionType }

// SessionID identifies the current session.
func (m *Machine) SessionID() string { return m.sessionID }

// StartTime is zero until Begin.
func (m *Machine) StartTime() time.Time { return m.startTime }

// FlagsStudied is the count of flags newly learned this session.
func (m *Machine) FlagsStudied() int { return m.studied }

// Queue returns a copy of the study order.
func (m *Machine) Queue() []string {
	out := make([]string, len(m.queue))
	copy(out, m.queue)
	return out
}

// StartCategoryStudy builds the queue for cat and enters PhasePreviewing:
// unlearned members first, then learned ones, each group shuffled.
func (m *Machine) StartCategoryStudy(cat catalog.Category, sessionType string) error {
	if m.phase == PhaseActive {
		return ErrInvalidTransition
	}

	var unlearned, learned []string
	for _, code := range cat.MemberCodes {
		if m.tracker.IsLearned(code) {
			learned = append(learned, code)
		} else {
			unlearned = append(unlearned, code)
		}
	}
	m.shuffle(unlearned)
	m.shuffle(learned)

	c := cat
	m.category = &c
	m.sessionType = sessionType
	m.sessionID = uuid.NewString()
	m.queue = append(unlearned, learned...)
	m.cursor = 0
	m.startTime = time.Time{}
	m.studied = 0
	m.revealed = false
	m.recognized = false
	m.summary = nil
	m.phase = PhasePreviewing
	return nil
}

func (m *Machine) shuffle(codes []string) {
	m.rng.Shuffle(len(codes), func(i, j int) {
		codes[i], codes[j] = codes[j], codes[i]
	})
}

// Begin starts the clock and shows the first card. An empty queue
// completes immediately.
func (m *Machine) Begin() error {
	if m.category == nil {
		return ErrNoActiveCategory
	}
	if m.phase != PhasePreviewing {
		return ErrInvalidTransition
	}

	m.startTime = m.now()
	m.studied = 0
	m.cursor = 0
	m.revealed = false
	m.recognized = false
	m.phase = PhaseActive

	if len(m.queue) == 0 {
		return m.complete()
	}
	return nil
}

// Current returns the card under the cursor.
func (m *Machine) Current() (Card, error) {
	if err := m.requireActive(); err != nil {
		return Card{}, err
	}
	return m.card(), nil
}

func (m *Machine) card() Card {
	code := m.queue[m.cursor]
	return Card{
		Code:       code,
		Position:   m.cursor + 1,
		Total:      len(m.queue),
		Revealed:   m.revealed,
		Recognized: m.recognized,
		Learned:    m.tracker.IsLearned(code),
	}
}

// Reveal shows the current card's names. A recognised flag is marked
// learned; the cursor does not move.
func (m *Machine) Reveal(recognized bool) (Card, error) {
	if err := m.requireActive(); err != nil {
		return Card{}, err
	}

	m.revealed = true
	if recognized {
		m.recognized = true
		if m.tracker.MarkLearned(m.queue[m.cursor]) {
			m.studied++
		}
	}
	return m.card(), nil
}

// Next advances the cursor. Passing the last card completes the session.
func (m *Machine) Next() error {
	if err := m.requireActive(); err != nil {
		return err
	}

	if m.cursor+1 >= len(m.queue) {
		return m.complete()
	}
	m.cursor++
	m.revealed = false
	m.recognized = false
	return nil
}

// complete force-marks the last card, refreshes the category and
// finalises the summary.
func (m *Machine) complete() error {
	if n := len(m.queue); n > 0 {
		if m.tracker.MarkLearned(m.queue[n-1]) {
			m.studied++
		}
	}

	m.phase = PhaseComplete
	m.summary = &Summary{
		SessionID:   m.sessionID,
		Category:    m.category.Key,
		SessionType: m.sessionType,
		Total:       len(m.queue),
		NewLearned:  m.studied,
		Elapsed:     m.now().Sub(m.startTime),
	}

	if err := m.tracker.RefreshCategoryProgress(m.category.Key); err != nil {
		return fmt.Errorf("refresh %s: %w", m.category.Key, err)
	}
	return nil
}

// Summary returns the finished session's summary.
func (m *Machine) Summary() (Summary, bool) {
	if m.summary == nil {
		return Summary{}, false
	}
	return *m.summary, true
}

// ReturnHome discards any session and goes back to PhaseIdle.
func (m *Machine) ReturnHome() {
	*m = Machine{tracker: m.tracker, rng: m.rng, now: m.now}
}

// ContinueToNextCategory chains a finished session into the preview of
// next.
func (m *Machine) ContinueToNextCategory(next catalog.Category, sessionType string) error {
	if m.category == nil {
		return ErrNoActiveCategory
	}
	if m.phase != PhaseComplete {
		return ErrInvalidTransition
	}
	return m.StartCategoryStudy(next, sessionType)
}

func (m *Machine) requireActive() error {
	if m.category == nil {
		return ErrNoActiveCategory
	}
	if m.phase != PhaseActive {
		return ErrInvalidTransition
	}
	return nil
}
