package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

const cellColumns = `product_id, market_id, metric, value, updated_at`

type postgresCoverageRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

func NewPostgresCoverageRepo(conn *postgres.Connection, log logging.Logger) coverage.Repository {
	return &postgresCoverageRepo{conn: conn, log: log}
}

func (r *postgresCoverageRepo) List(ctx context.Context, f coverage.Filter) ([]*coverage.Cell, error) {
	var w whereBuilder
	if len(f.ProductIDs) > 0 {
		w.add("product_id = ANY($%d)", pq.Array(f.ProductIDs))
	}
	if len(f.MarketIDs) > 0 {
		w.add("market_id = ANY($%d)", pq.Array(f.MarketIDs))
	}
	if f.Metric != "" {
		w.add("metric = $%d", string(f.Metric))
	}

	rows, err := r.conn.DB().QueryContext(ctx, `SELECT `+cellColumns+` FROM coverage_cells`+w.String()+` ORDER BY product_id, market_id, metric`, w.args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list coverage cells")
	}
	defer rows.Close()

	var out []*coverage.Cell
	for rows.Next() {
		c, err := scanCell(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list coverage cells")
	}
	return out, nil
}

func (r *postgresCoverageRepo) Get(ctx context.Context, productID, marketID string, metric coverage.Metric) (*coverage.Cell, error) {
	row := r.conn.DB().QueryRowContext(ctx,
		`SELECT `+cellColumns+` FROM coverage_cells WHERE product_id = $1 AND market_id = $2 AND metric = $3`,
		productID, marketID, string(metric))
	return scanCell(row)
}

// Upsert keeps at most one cell per (product, market, metric).
func (r *postgresCoverageRepo) Upsert(ctx context.Context, c *coverage.Cell) error {
	query := `
		INSERT INTO coverage_cells (product_id, market_id, metric, value, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id, market_id, metric)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.conn.DB().ExecContext(ctx, query, c.ProductID, c.MarketID, string(c.Metric), c.Value, c.UpdatedAt); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert coverage cell")
	}
	return nil
}

func scanCell(row scanner) (*coverage.Cell, error) {
	c := &coverage.Cell{}
	var metric string
	if err := row.Scan(&c.ProductID, &c.MarketID, &metric, &c.Value, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrCodeCoverageCellNotFound, "coverage cell not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan coverage cell")
	}
	c.Metric = coverage.Metric(metric)
	return c, nil
}
