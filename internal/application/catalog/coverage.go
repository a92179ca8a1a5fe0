package catalog

import (
	"context"

	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

// CellInput sets one coverage value. An empty metric means city_pct.
type CellInput struct {
	ProductID string          `json:"product_id"`
	MarketID  string          `json:"market_id"`
	Metric    coverage.Metric `json:"metric"`
	Value     float64         `json:"value"`
}

// UpsertCell writes the single cell for (product, market, metric). Both the
// product and the market must exist.
func (s *Service) UpsertCell(ctx context.Context, in CellInput) (*coverage.Cell, error) {
	u, err := s.authz.Authorize(ctx, user.PermCoverageWrite)
	if err != nil {
		return nil, err
	}
	metric, err := coverage.ParseMetric(string(in.Metric), coverage.MetricCityPct)
	if err != nil {
		return nil, err
	}
	c := &coverage.Cell{
		ProductID: in.ProductID,
		MarketID:  in.MarketID,
		Metric:    metric,
		Value:     in.Value,
		UpdatedAt: s.now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.products.GetByID(ctx, c.ProductID); err != nil {
		return nil, err
	}
	if _, err := s.markets.GetByID(ctx, c.MarketID); err != nil {
		return nil, err
	}
	if err := s.coverage.Upsert(ctx, c); err != nil {
		s.logger.Error("failed to save coverage",
			logging.String("product_id", c.ProductID),
			logging.String("market_id", c.MarketID),
			logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, c.ProductID, "Could not save coverage", err)
		return nil, err
	}
	s.invalidateState()
	s.events.Emit(ctx, common.EventCoverageChanged, c.ProductID+"/"+c.MarketID, u.ID, c)
	return c, nil
}

func (s *Service) GetCell(ctx context.Context, productID, marketID string, metric coverage.Metric) (*coverage.Cell, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	if productID == "" || marketID == "" {
		return nil, errors.InvalidParam("product and market are required")
	}
	m, err := coverage.ParseMetric(string(metric), coverage.MetricCityPct)
	if err != nil {
		return nil, err
	}
	return s.coverage.Get(ctx, productID, marketID, m)
}

func (s *Service) ListCells(ctx context.Context, f coverage.Filter) ([]*coverage.Cell, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	if f.Metric != "" && !f.Metric.Valid() {
		return nil, errors.New(errors.ErrCodeCoverageMetricInvalid, "unknown coverage metric").WithDetail(string(f.Metric))
	}
	return s.coverage.List(ctx, f)
}
