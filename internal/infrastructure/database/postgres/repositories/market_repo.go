package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

const marketColumns = `id, name, level, parent_id, code, created_at`

type postgresMarketRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

func NewPostgresMarketRepo(conn *postgres.Connection, log logging.Logger) market.Repository {
	return &postgresMarketRepo{conn: conn, log: log}
}

func (r *postgresMarketRepo) List(ctx context.Context) ([]*market.Market, error) {
	rows, err := r.conn.DB().QueryContext(ctx, `SELECT `+marketColumns+` FROM markets ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list markets")
	}
	defer rows.Close()

	var out []*market.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list markets")
	}
	return out, nil
}

func (r *postgresMarketRepo) GetByID(ctx context.Context, id string) (*market.Market, error) {
	row := r.conn.DB().QueryRowContext(ctx, `SELECT `+marketColumns+` FROM markets WHERE id = $1`, id)
	return scanMarket(row)
}

// BulkCreate inserts every market in one transaction; parents must precede
// their children in the slice.
func (r *postgresMarketRepo) BulkCreate(ctx context.Context, markets []*market.Market) (int, error) {
	if len(markets) == 0 {
		return 0, nil
	}
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin market import")
	}

	query := `INSERT INTO markets (id, name, level, parent_id, code, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	for _, m := range markets {
		if _, err := tx.ExecContext(ctx, query, m.ID, m.Name, string(m.Level), nullString(m.ParentID), m.Code, m.CreatedAt); err != nil {
			_ = tx.Rollback()
			if isUniqueViolation(err) {
				return 0, errors.New(errors.ErrCodeMarketAlreadyExists, "market already exists").WithDetail(m.ID)
			}
			return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert market "+m.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit market import")
	}
	r.log.Info("Markets imported", logging.Int("count", len(markets)))
	return len(markets), nil
}

// BulkDelete removes the markets and, through the parent foreign key, their
// descendants. The count covers the listed ids only.
func (r *postgresMarketRepo) BulkDelete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.conn.DB().ExecContext(ctx, `DELETE FROM markets WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete markets")
	}
	n := affected(res)
	r.log.Warn("Markets deleted", logging.Int("count", n), logging.Strings("ids", ids))
	return n, nil
}

func scanMarket(row scanner) (*market.Market, error) {
	m := &market.Market{}
	var level string
	var parent sql.NullString
	if err := row.Scan(&m.ID, &m.Name, &level, &parent, &m.Code, &m.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrCodeMarketNotFound, "market not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan market")
	}
	m.Level = market.Level(level)
	m.ParentID = parent.String
	return m, nil
}
