package coverage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/internal/domain/market"
)

func city(id string) *market.Market {
	return &market.Market{ID: id, Name: id, Level: market.LevelCity, ParentID: "c-1"}
}

func cell(product, marketID string, v float64) *Cell {
	return &Cell{ProductID: product, MarketID: marketID, Metric: MetricCityPct, Value: v}
}

func TestCalculateTotalCoverage_MeanOfTwoCities(t *testing.T) {
	agg := NewAggregator(NewIndex([]*Cell{
		cell("p-1", "city-5", 100),
		cell("p-1", "city-6", 0),
	}), MetricCityPct)

	assert.Equal(t, 50.0, agg.CalculateTotalCoverage("p-1", []*market.Market{city("city-5"), city("city-6")}))
}

func TestCalculateTotalCoverage_MissingCellIsExcluded(t *testing.T) {
	agg := NewAggregator(NewIndex([]*Cell{
		cell("p-1", "city-5", 80),
	}), MetricCityPct)

	got := agg.CalculateTotalCoverage("p-1", []*market.Market{city("city-5"), city("city-6")})
	assert.Equal(t, 80.0, got, "a missing cell must not halve the aggregate")
}

func TestCalculateTotalCoverage_NoCellsIsZero(t *testing.T) {
	agg := NewAggregator(NewIndex([]*Cell{
		cell("p-2", "city-5", 70),
	}), MetricCityPct)

	assert.Equal(t, 0.0, agg.CalculateTotalCoverage("p-1", []*market.Market{city("city-5")}))
	assert.Equal(t, 0.0, agg.CalculateTotalCoverage("p-1", nil))
}

func TestCalculateTotalCoverage_OtherMetricIgnored(t *testing.T) {
	idx := NewIndex([]*Cell{
		cell("p-1", "city-5", 40),
		{ProductID: "p-1", MarketID: "city-5", Metric: MetricTAM, Value: 90},
	})

	assert.Equal(t, 40.0, NewAggregator(idx, MetricCityPct).CalculateTotalCoverage("p-1", []*market.Market{city("city-5")}))
	assert.Equal(t, 90.0, NewAggregator(idx, MetricTAM).CalculateTotalCoverage("p-1", []*market.Market{city("city-5")}))
}

func TestCalculateTotalCoverage_AlwaysInRange(t *testing.T) {
	values := []float64{0, 0.5, 33.3, 64.999, 65, 89.999, 90, 99.9, 100}
	markets := make([]*market.Market, 0, len(values)+2)
	for n := 0; n <= len(values); n++ {
		cells := make([]*Cell, 0, n)
		markets = markets[:0]
		for i := 0; i < n; i++ {
			id := "city-" + string(rune('a'+i))
			cells = append(cells, cell("p-1", id, values[i]))
			markets = append(markets, city(id))
		}
		markets = append(markets, city("no-data"))
		got := NewAggregator(NewIndex(cells), MetricCityPct).CalculateTotalCoverage("p-1", markets)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
}

func TestGetCoverageCell(t *testing.T) {
	agg := NewAggregator(NewIndex([]*Cell{cell("p-1", "city-5", 0)}), MetricCityPct)

	c := agg.GetCoverageCell("p-1", "city-5")
	require.NotNil(t, c)
	assert.Equal(t, 0.0, c.Value, "a zero cell is data, not absence")
	assert.Nil(t, agg.GetCoverageCell("p-1", "city-6"))
}

func TestNewIndex_LastWriteWinsAndRejectsInvalid(t *testing.T) {
	idx := NewIndex([]*Cell{
		cell("p-1", "city-5", 10),
		cell("p-1", "city-5", 20),
		cell("p-1", "city-6", 120),
		cell("p-1", "city-7", math.NaN()),
		nil,
	})

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 2, idx.Rejected())
	assert.Equal(t, 20.0, idx.Get("p-1", "city-5", MetricCityPct).Value)
}

func TestGetCellColor_Boundaries(t *testing.T) {
	tests := []struct {
		v    float64
		want Color
	}{
		{100, ColorGreen},
		{90, ColorGreen},
		{89.999, ColorYellow},
		{65, ColorYellow},
		{64.999, ColorRed},
		{0, ColorRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetCellColor(tt.v), "GetCellColor(%v)", tt.v)
	}
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 7.0, Median([]float64{7}))
	assert.Equal(t, 50.0, Median([]float64{100, 0, 50}))
	assert.Equal(t, 45.0, Median([]float64{100, 0, 40, 50}))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in, "input must not be reordered")
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 90.0, Mean([]float64{80, 100}))
	assert.Equal(t, 100.0, Mean([]float64{150}))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))
	assert.Equal(t, Stats{Count: 3, Mean: 50, Median: 60, Min: 10, Max: 80}, Summarize([]float64{80, 10, 60}))
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("", MetricTAM)
	require.NoError(t, err)
	assert.Equal(t, MetricTAM, m)

	m, err = ParseMetric("gb_weighted_pct", MetricCityPct)
	require.NoError(t, err)
	assert.Equal(t, MetricGBWeighted, m)

	_, err = ParseMetric("revenue", MetricCityPct)
	assert.Error(t, err)
}

func TestCell_Validate(t *testing.T) {
	assert.NoError(t, cell("p", "m", 0).Validate())
	assert.NoError(t, cell("p", "m", 100).Validate())
	assert.Error(t, cell("p", "m", -0.1).Validate())
	assert.Error(t, cell("", "m", 1).Validate())
	assert.Error(t, (&Cell{ProductID: "p", MarketID: "m", Metric: "x"}).Validate())
}
