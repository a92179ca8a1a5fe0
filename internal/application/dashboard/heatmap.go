package dashboard

import (
	"time"

	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/overlay"
	"github.com/turtacn/launch-radar/internal/domain/product"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// HeatmapQuery selects the drill-down position. An empty ParentID shows the
// root level, or every market of Level when Level is below the root.
type HeatmapQuery struct {
	Level      market.Level    `json:"level,omitempty"`
	ParentID   string          `json:"parent,omitempty"`
	ProductIDs []string        `json:"products,omitempty"`
	Metric     coverage.Metric `json:"metric"`
}

// Column is one visible market.
type Column struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Level       market.Level `json:"type"`
	Code        string       `json:"code,omitempty"`
	HasChildren bool         `json:"has_children"`
	CityCount   int          `json:"city_count"`
}

// Source tells where a cell value came from.
type Source string

const (
	SourceNone   Source = ""
	SourceCell   Source = "cell"
	SourceCities Source = "cities"
)

// HeatmapCell is one (product, market) square. Value is nil when no data
// exists, which is distinct from 0%.
type HeatmapCell struct {
	MarketID string         `json:"market_id"`
	Value    *float64       `json:"value"`
	Color    coverage.Color `json:"color,omitempty"`
	Source   Source         `json:"source,omitempty"`
	Flags    overlay.Flags  `json:"flags"`
}

// Row is one product across the visible markets.
type Row struct {
	ProductID      string         `json:"product_id"`
	ProductName    string         `json:"product_name"`
	Status         product.Status `json:"status,omitempty"`
	Cells          []HeatmapCell  `json:"cells"`
	Total          *float64       `json:"total"`
	TotalColor     coverage.Color `json:"total_color,omitempty"`
	Stats          coverage.Stats `json:"stats"`
	BlockerSummary string         `json:"blocker_summary,omitempty"`
}

// Crumb is one step of the drill-down path.
type Crumb struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Level market.Level `json:"type"`
}

// Heatmap is the rendered grid for one drill-down position.
type Heatmap struct {
	Level         market.Level    `json:"level"`
	ParentID      string          `json:"parent,omitempty"`
	Breadcrumb    string          `json:"breadcrumb,omitempty"`
	Path          []Crumb         `json:"path"`
	Metric        coverage.Metric `json:"metric"`
	Columns       []Column        `json:"columns"`
	Rows          []Row           `json:"rows"`
	GeneratedAt   time.Time       `json:"generated_at"`
	StateLoadedAt time.Time       `json:"state_loaded_at"`
}

// BuildHeatmap renders q against st. Row totals are always recomputed from
// the currently visible markets; nothing is carried over from a previous
// drill level.
func BuildHeatmap(st *State, q HeatmapQuery, now time.Time) (*Heatmap, error) {
	if !q.Metric.Valid() {
		return nil, errors.New(errors.ErrCodeCoverageMetricInvalid, "unknown coverage metric").WithDetail(string(q.Metric))
	}
	h := st.Hierarchy()
	level, err := ResolveLevel(h, q.Level, q.ParentID)
	if err != nil {
		return nil, err
	}

	visible := VisibleMarkets(h, level, q.ParentID)
	citiesOf := make(map[string][]*market.Market, len(visible))
	descendantsOf := make(map[string][]*market.Market, len(visible))
	columns := make([]Column, len(visible))
	for i, m := range visible {
		cities := h.GetDescendantCities(m.ID)
		citiesOf[m.ID] = cities
		descendantsOf[m.ID] = h.GetDescendants(m.ID)
		columns[i] = Column{
			ID:          m.ID,
			Name:        m.Name,
			Level:       m.Level,
			Code:        m.Code,
			HasChildren: len(h.Children(m.ID)) > 0,
			CityCount:   len(cities),
		}
	}

	agg := st.Coverage(q.Metric)
	ov := st.Overlay()
	products := selectProducts(st, q.ProductIDs)

	rows := make([]Row, 0, len(products))
	for _, p := range products {
		row := Row{ProductID: p.ID, ProductName: p.Name, Status: p.Status, Cells: make([]HeatmapCell, len(visible))}
		var rowValues []float64
		for i, m := range visible {
			c := buildCell(agg, p.ID, m, citiesOf[m.ID])
			c.Flags = ov.CellFlags(p.ID, m, descendantsOf[m.ID])
			if c.Value != nil {
				rowValues = append(rowValues, *c.Value)
			}
			row.Cells[i] = c
		}
		row.Total = rowTotal(agg, p.ID, visible, citiesOf)
		if row.Total != nil {
			row.TotalColor = coverage.GetCellColor(*row.Total)
		}
		row.Stats = coverage.Summarize(rowValues)
		row.BlockerSummary = ov.GetProductBlockerSummary(p.ID)
		rows = append(rows, row)
	}

	hm := &Heatmap{
		Level:         level,
		ParentID:      q.ParentID,
		Path:          []Crumb{},
		Metric:        q.Metric,
		Columns:       columns,
		Rows:          rows,
		GeneratedAt:   now.UTC(),
		StateLoadedAt: st.LoadedAt(),
	}
	if q.ParentID != "" {
		hm.Breadcrumb = h.Breadcrumb(q.ParentID)
		chain := h.GetAncestorChain(q.ParentID)
		for i := len(chain) - 1; i >= 0; i-- {
			hm.Path = append(hm.Path, Crumb{ID: chain[i].ID, Name: chain[i].Name, Level: chain[i].Level})
		}
	}
	return hm, nil
}

// ResolveLevel picks the level shown under parentID. Without a parent the
// requested level is used, defaulting to mega-regions; with one, the level
// must be the parent's child level.
func ResolveLevel(h *market.Hierarchy, level market.Level, parentID string) (market.Level, error) {
	if level != "" && !level.Valid() {
		return "", errors.New(errors.ErrCodeMarketLevelInvalid, "unknown market level").WithDetail(string(level))
	}
	if parentID == "" {
		if level == "" {
			return market.LevelMegaRegion, nil
		}
		return level, nil
	}

	parent, ok := h.Get(parentID)
	if !ok {
		return "", errors.New(errors.ErrCodeMarketNotFound, "parent market not found").WithDetail(parentID)
	}
	child, ok := parent.Level.Child()
	if !ok {
		return "", errors.New(errors.ErrCodeMarketLevelInvalid, "cities have no child markets").WithDetail(parentID)
	}
	if level != "" && level != child {
		return "", errors.Newf(errors.ErrCodeMarketLevelInvalid, "children of a %s are %s, not %s", parent.Level, child, level)
	}
	return child, nil
}

// VisibleMarkets returns the markets at level under parentID. A non-root
// level without a parent is the flat list of every market at that level.
func VisibleMarkets(h *market.Hierarchy, level market.Level, parentID string) []*market.Market {
	if parentID != "" || level.IsRoot() {
		return h.GetVisibleMarkets(level, parentID)
	}
	var out []*market.Market
	for _, m := range h.Markets() {
		if m.Level == level {
			out = append(out, m)
		}
	}
	market.SortByName(out)
	return out
}

func selectProducts(st *State, ids []string) []*product.Product {
	if len(ids) == 0 {
		return st.Products()
	}
	out := make([]*product.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := st.GetProductByID(id); ok {
			out = append(out, p)
			continue
		}
		out = append(out, &product.Product{ID: id, Name: UnknownLabel})
	}
	return out
}

// buildCell prefers a cell stored for the market itself and falls back to
// the mean over its cities.
// rowTotal averages the cities under the visible markets. A visible market
// whose cities carry no data contributes its own cell instead. The result is
// nil when no value is defined at all.
func rowTotal(agg *coverage.Aggregator, productID string, visible []*market.Market, citiesOf map[string][]*market.Market) *float64 {
	var values []float64
	for _, m := range visible {
		if fromCities := agg.Values(productID, citiesOf[m.ID]); len(fromCities) > 0 {
			values = append(values, fromCities...)
			continue
		}
		if c := agg.GetCoverageCell(productID, m.ID); c != nil {
			values = append(values, c.Value)
		}
	}
	if len(values) == 0 {
		return nil
	}
	v := coverage.Mean(values)
	return &v
}

func buildCell(agg *coverage.Aggregator, productID string, m *market.Market, cities []*market.Market) HeatmapCell {
	c := HeatmapCell{MarketID: m.ID}
	if direct := agg.GetCoverageCell(productID, m.ID); direct != nil {
		v := direct.Value
		c.Value, c.Source = &v, SourceCell
	} else if !m.IsCity() {
		if values := agg.Values(productID, cities); len(values) > 0 {
			v := agg.CalculateTotalCoverage(productID, cities)
			c.Value, c.Source = &v, SourceCities
		}
	}
	if c.Value != nil {
		c.Color = coverage.GetCellColor(*c.Value)
	}
	return c
}
