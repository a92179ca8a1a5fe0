package market

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Hierarchy indexes a set of markets for ancestor and descendant lookups.
// It is immutable after construction and safe for concurrent reads.
type Hierarchy struct {
	markets  []*Market
	byID     map[string]*Market
	children map[string][]*Market
}

// NewHierarchy indexes markets in the given order. Nil entries are skipped
// and the first occurrence of a duplicate id wins.
func NewHierarchy(markets []*Market) *Hierarchy {
	h := &Hierarchy{
		markets:  make([]*Market, 0, len(markets)),
		byID:     make(map[string]*Market, len(markets)),
		children: make(map[string][]*Market),
	}
	for _, m := range markets {
		if m == nil {
			continue
		}
		if _, dup := h.byID[m.ID]; dup {
			continue
		}
		h.markets = append(h.markets, m)
		h.byID[m.ID] = m
		if m.ParentID != "" {
			h.children[m.ParentID] = append(h.children[m.ParentID], m)
		}
	}
	return h
}

func (h *Hierarchy) Len() int { return len(h.markets) }

// Markets returns every market in insertion order.
func (h *Hierarchy) Markets() []*Market {
	out := make([]*Market, len(h.markets))
	copy(out, h.markets)
	return out
}

func (h *Hierarchy) Get(id string) (*Market, bool) {
	m, ok := h.byID[id]
	return m, ok
}

// Children returns the direct children of id in insertion order.
func (h *Hierarchy) Children(id string) []*Market {
	return h.children[id]
}

// GetAncestorChain returns the market followed by its parents up to the
// root. A broken parent reference or a cycle ends the chain early; an
// unknown id yields an empty chain.
func (h *Hierarchy) GetAncestorChain(id string) []*Market {
	m, ok := h.byID[id]
	if !ok {
		return nil
	}
	chain := []*Market{m}
	seen := map[string]bool{m.ID: true}
	for m.ParentID != "" {
		parent, ok := h.byID[m.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		m = parent
	}
	return chain
}

// Breadcrumb renders the ancestor chain root first, e.g. "EMEA / UK / London".
func (h *Hierarchy) Breadcrumb(id string) string {
	chain := h.GetAncestorChain(id)
	names := make([]string, len(chain))
	for i, m := range chain {
		names[len(chain)-1-i] = m.Name
	}
	return strings.Join(names, " / ")
}

// GetDescendantCities returns every city under id. A city returns itself;
// an unknown id returns nil.
func (h *Hierarchy) GetDescendantCities(id string) []*Market {
	root, ok := h.byID[id]
	if !ok {
		return nil
	}
	if root.IsCity() {
		return []*Market{root}
	}

	var cities []*Market
	seen := map[string]bool{root.ID: true}
	var walk func(m *Market)
	walk = func(m *Market) {
		for _, k := range h.children[m.ID] {
			if seen[k.ID] {
				continue
			}
			seen[k.ID] = true
			if k.IsCity() {
				cities = append(cities, k)
				continue
			}
			walk(k)
		}
	}
	walk(root)
	return cities
}

// GetDescendants returns every market below id at any level, parents before
// their children. Cities and unknown ids return nil.
func (h *Hierarchy) GetDescendants(id string) []*Market {
	if _, ok := h.byID[id]; !ok {
		return nil
	}
	var out []*Market
	seen := map[string]bool{id: true}
	var walk func(parent string)
	walk = func(parent string) {
		for _, k := range h.children[parent] {
			if seen[k.ID] {
				continue
			}
			seen[k.ID] = true
			out = append(out, k)
			walk(k.ID)
		}
	}
	walk(id)
	return out
}

// CitiesUnder unions the descendant cities of every market in ms.
func (h *Hierarchy) CitiesUnder(ms []*Market) []*Market {
	var out []*Market
	seen := make(map[string]bool)
	for _, m := range ms {
		if m == nil {
			continue
		}
		for _, c := range h.GetDescendantCities(m.ID) {
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// GetVisibleMarkets returns the markets at level whose parent is parentID.
// An empty parentID with the root level returns every mega-region. Results
// are ordered by collated name, then id.
func (h *Hierarchy) GetVisibleMarkets(level Level, parentID string) []*Market {
	var out []*Market
	for _, m := range h.markets {
		if m.Level == level && m.ParentID == parentID {
			out = append(out, m)
		}
	}
	SortByName(out)
	return out
}

// SortByName orders markets by locale-aware name comparison, breaking ties
// by id so the order is deterministic.
func SortByName(ms []*Market) {
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(ms, func(i, j int) bool {
		if c := col.CompareString(ms[i].Name, ms[j].Name); c != 0 {
			return c < 0
		}
		return ms[i].ID < ms[j].ID
	})
}

// Violation describes a market that breaks the forest rules.
type Violation struct {
	MarketID string `json:"market_id"`
	Reason   string `json:"reason"`
}

func (v Violation) String() string { return fmt.Sprintf("%s: %s", v.MarketID, v.Reason) }

// Violations checks the forest rules: valid levels, roots without parents,
// each parent present and exactly one level coarser, no cycles.
func (h *Hierarchy) Violations() []Violation {
	var out []Violation
	for _, m := range h.markets {
		if err := m.Validate(); err != nil {
			out = append(out, Violation{MarketID: m.ID, Reason: err.Error()})
			continue
		}
		if m.IsRoot() {
			continue
		}
		parent, ok := h.byID[m.ParentID]
		if !ok {
			out = append(out, Violation{MarketID: m.ID, Reason: "parent " + m.ParentID + " does not exist"})
			continue
		}
		if want, _ := m.Level.Parent(); parent.Level != want {
			out = append(out, Violation{
				MarketID: m.ID,
				Reason:   fmt.Sprintf("parent %s is %s, want %s", parent.ID, parent.Level, want),
			})
			continue
		}
		if chain := h.GetAncestorChain(m.ID); !chain[len(chain)-1].IsRoot() {
			out = append(out, Violation{MarketID: m.ID, Reason: "ancestor chain does not reach a mega_region"})
		}
	}
	return out
}
