// Package coverage holds coverage cells and the aggregation rules used by
// the heatmap, analytics and the personal radar.
package coverage

import (
	"math"
	"time"

	"github.com/turtacn/launch-radar/pkg/errors"
)

// Metric selects which percentage a cell carries.
type Metric string

const (
	MetricCityPct    Metric = "city_pct"
	MetricGBWeighted Metric = "gb_weighted_pct"
	MetricTAM        Metric = "tam_pct"
)

// Metrics lists the supported metrics.
var Metrics = []Metric{MetricCityPct, MetricGBWeighted, MetricTAM}

func (m Metric) Valid() bool {
	switch m {
	case MetricCityPct, MetricGBWeighted, MetricTAM:
		return true
	}
	return false
}

// ParseMetric returns def for an empty string.
func ParseMetric(s string, def Metric) (Metric, error) {
	if s == "" {
		return def, nil
	}
	m := Metric(s)
	if !m.Valid() {
		return "", errors.New(errors.ErrCodeCoverageMetricInvalid, "unknown coverage metric").WithDetail(s)
	}
	return m, nil
}

// Cell is the coverage of one product in one market under one metric.
// A missing cell means "no data", which is distinct from 0%.
type Cell struct {
	ProductID string    `json:"product_id"`
	MarketID  string    `json:"market_id"`
	Metric    Metric    `json:"metric"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cell) Validate() error {
	if c.ProductID == "" || c.MarketID == "" {
		return errors.New(errors.ErrCodeValidation, "coverage cell requires product_id and market_id")
	}
	if !c.Metric.Valid() {
		return errors.New(errors.ErrCodeCoverageMetricInvalid, "unknown coverage metric").WithDetail(string(c.Metric))
	}
	if math.IsNaN(c.Value) || c.Value < 0 || c.Value > 100 {
		return errors.Newf(errors.ErrCodeCoverageOutOfRange, "coverage %v is outside [0,100]", c.Value)
	}
	return nil
}

// Color is the heatmap bucket of a coverage value.
type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
)

const (
	GreenThreshold  = 90.0
	YellowThreshold = 65.0
)

// GetCellColor buckets v: ≥90 green, ≥65 yellow, otherwise red.
func GetCellColor(v float64) Color {
	switch {
	case v >= GreenThreshold:
		return ColorGreen
	case v >= YellowThreshold:
		return ColorYellow
	default:
		return ColorRed
	}
}
