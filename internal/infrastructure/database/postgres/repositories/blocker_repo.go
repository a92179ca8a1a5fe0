package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

const blockerColumns = `id, product_id, market_id, category, owner, eta, note, jira_url, escalated, resolved, stale, created_at, updated_at`

type postgresBlockerRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

func NewPostgresBlockerRepo(conn *postgres.Connection, log logging.Logger) blocker.Repository {
	return &postgresBlockerRepo{conn: conn, log: log}
}

func (r *postgresBlockerRepo) Create(ctx context.Context, b *blocker.Blocker) error {
	query := `
		INSERT INTO blockers (` + blockerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.conn.DB().ExecContext(ctx, query,
		b.ID, b.ProductID, b.MarketID, b.Category, b.Owner, nullTime(b.ETA), b.Note, b.JiraURL,
		b.Escalated, b.Resolved, b.Stale, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return writeError(err, errors.ErrCodeConflict, "create blocker")
	}
	return nil
}

func (r *postgresBlockerRepo) GetByID(ctx context.Context, id string) (*blocker.Blocker, error) {
	row := r.conn.DB().QueryRowContext(ctx, `SELECT `+blockerColumns+` FROM blockers WHERE id = $1`, id)
	return scanBlocker(row)
}

func (r *postgresBlockerRepo) GetByIDs(ctx context.Context, ids []string) ([]*blocker.Blocker, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+blockerColumns+` FROM blockers WHERE id = ANY($1) ORDER BY created_at, id`, pq.Array(ids))
}

func (r *postgresBlockerRepo) List(ctx context.Context, f blocker.Filter) ([]*blocker.Blocker, error) {
	var w whereBuilder
	if len(f.ProductIDs) > 0 {
		w.add("product_id = ANY($%d)", pq.Array(f.ProductIDs))
	}
	if len(f.MarketIDs) > 0 {
		w.add("market_id = ANY($%d)", pq.Array(f.MarketIDs))
	}
	if f.UnresolvedOnly {
		w.raw("NOT resolved")
	}
	return r.query(ctx, `SELECT `+blockerColumns+` FROM blockers`+w.String()+` ORDER BY created_at, id`, w.args...)
}

// Update writes every mutable field; last write wins.
func (r *postgresBlockerRepo) Update(ctx context.Context, b *blocker.Blocker) error {
	query := `
		UPDATE blockers
		SET category = $1, owner = $2, eta = $3, note = $4, jira_url = $5,
		    escalated = $6, resolved = $7, stale = $8, updated_at = $9
		WHERE id = $10
	`
	res, err := r.conn.DB().ExecContext(ctx, query,
		b.Category, b.Owner, nullTime(b.ETA), b.Note, b.JiraURL,
		b.Escalated, b.Resolved, b.Stale, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update blocker")
	}
	if affected(res) == 0 {
		return errors.New(errors.ErrCodeBlockerNotFound, "blocker not found").WithDetail(b.ID)
	}
	return nil
}

func (r *postgresBlockerRepo) ListStale(ctx context.Context, before time.Time) ([]*blocker.Blocker, error) {
	return r.query(ctx,
		`SELECT `+blockerColumns+` FROM blockers WHERE NOT resolved AND NOT stale AND updated_at < $1 ORDER BY created_at, id`,
		before)
}

// MarkStale flags blockers without touching updated_at.
func (r *postgresBlockerRepo) MarkStale(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.conn.DB().ExecContext(ctx,
		`UPDATE blockers SET stale = TRUE WHERE id = ANY($1) AND NOT resolved`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to mark blockers stale")
	}
	return affected(res), nil
}

func (r *postgresBlockerRepo) query(ctx context.Context, query string, args ...interface{}) ([]*blocker.Blocker, error) {
	rows, err := r.conn.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list blockers")
	}
	defer rows.Close()

	var out []*blocker.Blocker
	for rows.Next() {
		b, err := scanBlocker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list blockers")
	}
	return out, nil
}

func scanBlocker(row scanner) (*blocker.Blocker, error) {
	b := &blocker.Blocker{}
	var eta sql.NullTime
	err := row.Scan(
		&b.ID, &b.ProductID, &b.MarketID, &b.Category, &b.Owner, &eta, &b.Note, &b.JiraURL,
		&b.Escalated, &b.Resolved, &b.Stale, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrCodeBlockerNotFound, "blocker not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan blocker")
	}
	b.ETA = timePtr(eta)
	return b, nil
}
