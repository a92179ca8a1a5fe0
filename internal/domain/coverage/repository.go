package coverage

import "context"

// Filter narrows a cell listing. Empty fields match everything.
type Filter struct {
	ProductIDs []string
	MarketIDs  []string
	Metric     Metric
}

// Repository persists coverage cells. Upsert enforces one cell per
// (product, market, metric).
type Repository interface {
	List(ctx context.Context, f Filter) ([]*Cell, error)
	Get(ctx context.Context, productID, marketID string, metric Metric) (*Cell, error)
	Upsert(ctx context.Context, c *Cell) error
}
