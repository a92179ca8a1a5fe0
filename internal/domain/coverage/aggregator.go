package coverage

import (
	"math"
	"sort"

	"github.com/turtacn/launch-radar/internal/domain/market"
)

type cellKey struct {
	product string
	market  string
	metric  Metric
}

// Index is an immutable lookup of cells by (product, market, metric).
type Index struct {
	cells    map[cellKey]*Cell
	rejected int
}

// NewIndex keeps at most one cell per key; a later cell replaces an earlier
// one. Cells that fail validation are dropped and counted in Rejected.
func NewIndex(cells []*Cell) *Index {
	idx := &Index{cells: make(map[cellKey]*Cell, len(cells))}
	for _, c := range cells {
		if c == nil {
			continue
		}
		if err := c.Validate(); err != nil {
			idx.rejected++
			continue
		}
		idx.cells[cellKey{c.ProductID, c.MarketID, c.Metric}] = c
	}
	return idx
}

func (idx *Index) Len() int      { return len(idx.cells) }
func (idx *Index) Rejected() int { return idx.rejected }

// Get returns nil when no cell exists for the exact key.
func (idx *Index) Get(productID, marketID string, metric Metric) *Cell {
	return idx.cells[cellKey{productID, marketID, metric}]
}

// Aggregator answers coverage questions for one metric.
type Aggregator struct {
	index  *Index
	metric Metric
}

func NewAggregator(index *Index, metric Metric) *Aggregator {
	if index == nil {
		index = NewIndex(nil)
	}
	return &Aggregator{index: index, metric: metric}
}

func (a *Aggregator) Metric() Metric { return a.metric }

// GetCoverageCell returns nil when the (product, market) pair has no cell.
func (a *Aggregator) GetCoverageCell(productID, marketID string) *Cell {
	return a.index.Get(productID, marketID, a.metric)
}

// Values returns the values of the defined cells among markets, in market order.
func (a *Aggregator) Values(productID string, markets []*market.Market) []float64 {
	var out []float64
	for _, m := range markets {
		if m == nil {
			continue
		}
		if c := a.GetCoverageCell(productID, m.ID); c != nil {
			out = append(out, c.Value)
		}
	}
	return out
}

// CalculateTotalCoverage is the mean over markets that have a cell. Markets
// without a cell count in neither numerator nor denominator; with no cells
// at all the result is 0.
func (a *Aggregator) CalculateTotalCoverage(productID string, visible []*market.Market) float64 {
	return Mean(a.Values(productID, visible))
}

// Mean is the average of values clamped to [0,100]. Empty input yields 0.
func Mean(values []float64) float64 {
	return clamp(mean(values))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. Empty input yields 0.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Stats summarises a set of coverage values for display.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func Summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	s := Stats{Count: len(values), Mean: mean(values), Median: Median(values), Min: values[0], Max: values[0]}
	for _, v := range values[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	return s
}
