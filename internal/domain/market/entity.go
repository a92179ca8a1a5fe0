// Package market models the geographic launch hierarchy
// (mega-region → region → country → city) and resolves ancestor and
// descendant relationships over an in-memory forest.
package market

import (
	"time"

	"github.com/turtacn/launch-radar/pkg/errors"
)

// Level is the granularity of a market.
type Level string

const (
	LevelMegaRegion Level = "mega_region"
	LevelRegion     Level = "region"
	LevelCountry    Level = "country"
	LevelCity       Level = "city"
)

// Levels lists every level from coarsest to finest.
var Levels = []Level{LevelMegaRegion, LevelRegion, LevelCountry, LevelCity}

// ParseLevel accepts the canonical names only.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", errors.New(errors.ErrCodeMarketLevelInvalid, "unknown market level").WithDetail(s)
	}
	return l, nil
}

func (l Level) Valid() bool {
	return l.Rank() >= 0
}

// Rank is 0 for mega_region through 3 for city, -1 when invalid.
func (l Level) Rank() int {
	for i, lv := range Levels {
		if lv == l {
			return i
		}
	}
	return -1
}

func (l Level) IsRoot() bool { return l == LevelMegaRegion }

// Parent returns the next-coarser level.
func (l Level) Parent() (Level, bool) {
	r := l.Rank()
	if r <= 0 {
		return "", false
	}
	return Levels[r-1], true
}

// Child returns the next-finer level.
func (l Level) Child() (Level, bool) {
	r := l.Rank()
	if r < 0 || r == len(Levels)-1 {
		return "", false
	}
	return Levels[r+1], true
}

// Market is one node of the hierarchy. ParentID is empty for mega-regions.
type Market struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Level     Level     `json:"type"`
	ParentID  string    `json:"parent_id,omitempty"`
	Code      string    `json:"code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsRoot reports whether m has no parent.
func (m *Market) IsRoot() bool { return m.ParentID == "" }

func (m *Market) IsCity() bool { return m.Level == LevelCity }

// Validate checks the fields of a single market. Cross-market rules are
// checked by Hierarchy.Violations.
func (m *Market) Validate() error {
	if m.ID == "" {
		return errors.New(errors.ErrCodeMarketHierarchy, "market id is required")
	}
	if m.Name == "" {
		return errors.New(errors.ErrCodeMarketHierarchy, "market name is required").WithDetail(m.ID)
	}
	if !m.Level.Valid() {
		return errors.New(errors.ErrCodeMarketLevelInvalid, "unknown market level").WithDetail(string(m.Level))
	}
	if m.Level.IsRoot() && m.ParentID != "" {
		return errors.New(errors.ErrCodeMarketHierarchy, "mega_region markets cannot have a parent").WithDetail(m.ID)
	}
	if !m.Level.IsRoot() && m.ParentID == "" {
		return errors.New(errors.ErrCodeMarketHierarchy, "market requires a parent").WithDetail(m.ID)
	}
	if m.ParentID == m.ID && m.ID != "" {
		return errors.New(errors.ErrCodeMarketHierarchy, "market cannot be its own parent").WithDetail(m.ID)
	}
	return nil
}
