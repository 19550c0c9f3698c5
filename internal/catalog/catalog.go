// Package catalog partitions the country roster into fixed-size study
// categories, one or more per continent.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/roster"
)

// GroupSize is the maximum number of countries in one category.
const GroupSize = 12

// ErrRosterNotReady is returned when the roster has not loaded yet.
var ErrRosterNotReady = errors.New("roster not ready")

// Category is a study group of at most GroupSize countries from one continent.
type Category struct {
	Key          string           `json:"key"`
	ContinentKey roster.Continent `json:"continentKey"`
	// GroupNumber is nil when the whole continent fits in one category.
	GroupNumber *int     `json:"groupNumber"`
	TotalGroups int      `json:"totalGroups"`
	MemberCodes []string `json:"memberCodes"`
}

// Size returns the number of member countries.
func (c Category) Size() int { return len(c.MemberCodes) }

// Contains reports whether code is a member of the category.
func (c Category) Contains(code string) bool {
	for _, m := range c.MemberCodes {
		if m == code {
			return true
		}
	}
	return false
}

// Key builds the category key for a continent group. group is 1-based and
// ignored when total is 1.
func Key(continent roster.Continent, group, total int) string {
	if total <= 1 {
		return string(continent)
	}
	return fmt.Sprintf("%s.%d", continent, group)
}

// Build partitions countries into categories. Countries are grouped by
// continent in roster order and sliced positionally into chunks of
// GroupSize. Antarctica is skipped.
func Build(countries []roster.Country) map[string]Category {
	byContinent := make(map[roster.Continent][]string)
	for _, c := range countries {
		if !c.Continent.Studied() {
			continue
		}
		byContinent[c.Continent] = append(byContinent[c.Continent], c.Code)
	}

	categories := make(map[string]Category)
	for continent, codes := range byContinent {
		n := len(codes)
		groups := (n + GroupSize - 1) / GroupSize
		for i := 0; i < groups; i++ {
			start := i * GroupSize
			end := min(start+GroupSize, n)

			members := make([]string, end-start)
			copy(members, codes[start:end])

			cat := Category{
				Key:          Key(continent, i+1, groups),
				ContinentKey: continent,
				TotalGroups:  groups,
				MemberCodes:  members,
			}
			if groups > 1 {
				g := i + 1
				cat.GroupNumber = &g
			}
			categories[cat.Key] = cat
		}
	}
	return categories
}

// Catalog holds the current category map. It is rebuilt whenever the roster
// becomes available and is read-only afterwards.
type Catalog struct {
	mu         sync.RWMutex
	categories map[string]Category
	codeIndex  map[string]string
	log        *zap.Logger
}

// New creates an empty, not-yet-ready catalog.
func New(log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{log: log}
}

// Rebuild replaces the category map with one built from countries.
// An empty roster leaves the catalog untouched and returns ErrRosterNotReady.
func (c *Catalog) Rebuild(countries []roster.Country) error {
	if len(countries) == 0 {
		return ErrRosterNotReady
	}

	categories := Build(countries)
	index := make(map[string]string)
	for key, cat := range categories {
		for _, code := range cat.MemberCodes {
			index[code] = key
		}
	}

	c.mu.Lock()
	c.categories = categories
	c.codeIndex = index
	c.mu.Unlock()

	c.log.Debug("categories built", zap.Int("categories", len(categories)), zap.Int("countries", len(index)))
	return nil
}

// Await rebuilds from provider, retrying every delay while the roster is
// still empty. It returns ctx.Err() if ctx ends first.
func (c *Catalog) Await(ctx context.Context, provider roster.Provider, delay time.Duration) error {
	for {
		err := c.Rebuild(provider.Countries())
		if err == nil {
			return nil
		}
		c.log.Debug("roster not ready, retrying", zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Ready reports whether categories have been built.
func (c *Catalog) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categories != nil
}

// Get returns the category with the given key.
func (c *Catalog) Get(key string) (Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.categories[key]
	return cat, ok
}

// CategoryOf returns the key of the category containing code.
func (c *Catalog) CategoryOf(code string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.codeIndex[code]
	return key, ok
}

// All returns every category ordered by continent display order, then group.
func (c *Catalog) All() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Category, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := continentRank(out[i].ContinentKey), continentRank(out[j].ContinentKey)
		if ci != cj {
			return ci < cj
		}
		return groupOf(out[i]) < groupOf(out[j])
	})
	return out
}

func continentRank(c roster.Continent) int {
	for i, sc := range roster.StudyContinents {
		if sc == c {
			return i
		}
	}
	return len(roster.StudyContinents)
}

func groupOf(c Category) int {
	if c.GroupNumber == nil {
		return 0
	}
	return *c.GroupNumber
}
