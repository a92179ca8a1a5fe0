// Package dashboard owns the read model shared by the heatmap, analytics and
// personal views: one immutable State built from every record set, a Loader
// that fetches those sets, and a Store that keeps the last good State.
package dashboard

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/escalation"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/overlay"
	"github.com/turtacn/launch-radar/internal/domain/product"
)

// UnknownLabel is shown for ids that resolve to no record.
const UnknownLabel = "Unknown"

// Snapshot is the raw input of a State.
type Snapshot struct {
	Markets     []*market.Market
	Products    []*product.Product
	Cells       []*coverage.Cell
	Blockers    []*blocker.Blocker
	Escalations []*escalation.Escalation
}

// State is the explicit application state passed to every read path. It is
// immutable once built and safe for concurrent use.
type State struct {
	hierarchy   *market.Hierarchy
	products    []*product.Product
	productByID map[string]*product.Product
	cells       *coverage.Index
	overlay     *overlay.Overlay
	blockers    []*blocker.Blocker
	escalations []*escalation.Escalation
	loadedAt    time.Time
}

// NewState indexes s. Products are ordered by collated name, then id.
func NewState(s Snapshot, loadedAt time.Time) *State {
	products := make([]*product.Product, 0, len(s.Products))
	byID := make(map[string]*product.Product, len(s.Products))
	for _, p := range s.Products {
		if p == nil {
			continue
		}
		if _, dup := byID[p.ID]; dup {
			continue
		}
		byID[p.ID] = p
		products = append(products, p)
	}
	sortProducts(products)

	return &State{
		hierarchy:   market.NewHierarchy(s.Markets),
		products:    products,
		productByID: byID,
		cells:       coverage.NewIndex(s.Cells),
		overlay:     overlay.New(s.Blockers, s.Escalations),
		blockers:    s.Blockers,
		escalations: s.Escalations,
		loadedAt:    loadedAt,
	}
}

func sortProducts(ps []*product.Product) {
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(ps, func(i, j int) bool {
		if c := col.CompareString(ps[i].Name, ps[j].Name); c != 0 {
			return c < 0
		}
		return ps[i].ID < ps[j].ID
	})
}

func (s *State) Hierarchy() *market.Hierarchy { return s.hierarchy }
func (s *State) Overlay() *overlay.Overlay     { return s.overlay }
func (s *State) LoadedAt() time.Time           { return s.loadedAt }

// Products returns every product in display order.
func (s *State) Products() []*product.Product {
	out := make([]*product.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *State) Blockers() []*blocker.Blocker          { return s.blockers }
func (s *State) Escalations() []*escalation.Escalation { return s.escalations }

// Coverage returns an aggregator over the loaded cells for metric.
func (s *State) Coverage(metric coverage.Metric) *coverage.Aggregator {
	return coverage.NewAggregator(s.cells, metric)
}

func (s *State) GetProductByID(id string) (*product.Product, bool) {
	p, ok := s.productByID[id]
	return p, ok
}

func (s *State) GetMarketByID(id string) (*market.Market, bool) {
	return s.hierarchy.Get(id)
}

// ProductName returns the product's name or UnknownLabel.
func (s *State) ProductName(id string) string {
	if p, ok := s.productByID[id]; ok {
		return p.Name
	}
	return UnknownLabel
}

// MarketName returns the market's name or UnknownLabel.
func (s *State) MarketName(id string) string {
	if m, ok := s.hierarchy.Get(id); ok {
		return m.Name
	}
	return UnknownLabel
}

// Counts reports record set sizes for metrics and the status endpoint.
func (s *State) Counts() map[string]int {
	return map[string]int{
		"markets":     s.hierarchy.Len(),
		"products":    len(s.products),
		"cells":       s.cells.Len(),
		"blockers":    len(s.blockers),
		"escalations": len(s.escalations),
	}
}
