// Package overlay joins blockers and escalations onto (product, market)
// cells. Both record sets are maintained independently and matched by key.
package overlay

import (
	"sort"
	"strings"

	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/domain/escalation"
	"github.com/turtacn/launch-radar/internal/domain/market"
)

type pair struct {
	product string
	market  string
}

// Overlay is built once per dashboard state and only read afterwards.
type Overlay struct {
	activeByPair    map[pair][]*blocker.Blocker
	activeByProduct map[string][]*blocker.Blocker
	escByProduct    map[string][]*escalation.Escalation
}

// New indexes the unresolved blockers and every escalation.
func New(blockers []*blocker.Blocker, escalations []*escalation.Escalation) *Overlay {
	o := &Overlay{
		activeByPair:    make(map[pair][]*blocker.Blocker),
		activeByProduct: make(map[string][]*blocker.Blocker),
		escByProduct:    make(map[string][]*escalation.Escalation),
	}
	for _, b := range blockers {
		if b == nil || b.Resolved {
			continue
		}
		k := pair{b.ProductID, b.MarketID}
		o.activeByPair[k] = append(o.activeByPair[k], b)
		o.activeByProduct[b.ProductID] = append(o.activeByProduct[b.ProductID], b)
	}
	for _, list := range o.activeByProduct {
		sortBlockers(list)
	}
	for _, e := range escalations {
		if e == nil {
			continue
		}
		o.escByProduct[e.ProductID] = append(o.escByProduct[e.ProductID], e)
	}
	for _, list := range o.escByProduct {
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	}
	return o
}

func sortBlockers(list []*blocker.Blocker) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

// HasActiveBlocker reports whether any unresolved blocker matches the pair.
func (o *Overlay) HasActiveBlocker(productID, marketID string) bool {
	return len(o.activeByPair[pair{productID, marketID}]) > 0
}

// ActiveBlockers returns the unresolved blockers of the pair.
func (o *Overlay) ActiveBlockers(productID, marketID string) []*blocker.Blocker {
	return o.activeByPair[pair{productID, marketID}]
}

// ActiveForProduct returns every unresolved blocker of a product, oldest first.
func (o *Overlay) ActiveForProduct(productID string) []*blocker.Blocker {
	return o.activeByProduct[productID]
}

// CountBlockedIn counts the markets in ms that carry an active blocker.
func (o *Overlay) CountBlockedIn(productID string, ms []*market.Market) int {
	n := 0
	for _, m := range ms {
		if m != nil && o.HasActiveBlocker(productID, m.ID) {
			n++
		}
	}
	return n
}

// GetProductBlockerSummary renders one "[category] note (ETA: date)" line
// per unresolved blocker of the product, oldest first.
func (o *Overlay) GetProductBlockerSummary(productID string) string {
	list := o.activeByProduct[productID]
	lines := make([]string, len(list))
	for i, b := range list {
		lines[i] = b.SummaryLine()
	}
	return strings.Join(lines, "\n")
}

// EscalationFor returns the most recent escalation whose scope targets m.
func (o *Overlay) EscalationFor(productID string, m *market.Market) *escalation.Escalation {
	if m == nil {
		return nil
	}
	for _, e := range o.escByProduct[productID] {
		if targets(e, m) {
			return e
		}
	}
	return nil
}

// HasEscalation reports whether an escalation was raised for the cell.
func (o *Overlay) HasEscalation(productID string, m *market.Market) bool {
	return o.EscalationFor(productID, m) != nil
}

func targets(e *escalation.Escalation, m *market.Market) bool {
	switch e.ScopeLevel {
	case escalation.ScopeCity:
		return m.Level == market.LevelCity && e.CityID == m.ID
	case escalation.ScopeCountry:
		return m.Level == market.LevelCountry &&
			(e.CountryCode == m.ID || (m.Code != "" && strings.EqualFold(e.CountryCode, m.Code)))
	case escalation.ScopeRegion:
		return m.Level == market.LevelRegion && e.Region == m.ID
	}
	return false
}

// Flags is the overlay state of one heatmap cell.
type Flags struct {
	Blocked          bool              `json:"blocked"`
	BlockerCount     int               `json:"blocker_count"`
	Escalated        bool              `json:"escalated"`
	EscalationStatus escalation.Status `json:"escalation_status,omitempty"`
}

// CellFlags combines blocker and escalation state for a cell. The blocker
// count covers m itself and every market in below, normally the descendants
// of m at any level.
func (o *Overlay) CellFlags(productID string, m *market.Market, below []*market.Market) Flags {
	var f Flags
	if m == nil {
		return f
	}
	f.BlockerCount = len(o.ActiveBlockers(productID, m.ID))
	for _, d := range below {
		if d != nil && d.ID != m.ID {
			f.BlockerCount += len(o.ActiveBlockers(productID, d.ID))
		}
	}
	f.Blocked = f.BlockerCount > 0
	if e := o.EscalationFor(productID, m); e != nil {
		f.Escalated = true
		f.EscalationStatus = e.Status
	}
	return f
}
