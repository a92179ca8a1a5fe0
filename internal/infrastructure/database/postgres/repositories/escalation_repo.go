package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/turtacn/launch-radar/internal/domain/escalation"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

const escalationColumns = `id, product_id, scope_level, city_id, country_code, region, raised_by, poc, reason, ` +
	`reason_type, business_case_url, status, created_at, aligned_at, resolved_at`

type postgresEscalationRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

func NewPostgresEscalationRepo(conn *postgres.Connection, log logging.Logger) escalation.Repository {
	return &postgresEscalationRepo{conn: conn, log: log}
}

func (r *postgresEscalationRepo) Create(ctx context.Context, e *escalation.Escalation) error {
	query := `
		INSERT INTO escalations (` + escalationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.conn.DB().ExecContext(ctx, query,
		e.ID, e.ProductID, string(e.ScopeLevel), e.CityID, e.CountryCode, e.Region, e.RaisedBy, e.POC, e.Reason,
		e.ReasonType, e.BusinessCaseURL, string(e.Status), e.CreatedAt, nullTime(e.AlignedAt), nullTime(e.ResolvedAt),
	)
	if err != nil {
		return writeError(err, errors.ErrCodeConflict, "create escalation")
	}
	return nil
}

func (r *postgresEscalationRepo) GetByID(ctx context.Context, id string) (*escalation.Escalation, error) {
	row := r.conn.DB().QueryRowContext(ctx, `SELECT `+escalationColumns+` FROM escalations WHERE id = $1`, id)
	return scanEscalation(row)
}

func (r *postgresEscalationRepo) List(ctx context.Context, f escalation.Filter) ([]*escalation.Escalation, error) {
	var w whereBuilder
	if len(f.ProductIDs) > 0 {
		w.add("product_id = ANY($%d)", pq.Array(f.ProductIDs))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		w.add("status = ANY($%d)", pq.Array(statuses))
	}
	if f.OpenOnly {
		w.raw("status NOT LIKE 'RESOLVED_%'")
	}

	rows, err := r.conn.DB().QueryContext(ctx, `SELECT `+escalationColumns+` FROM escalations`+w.String()+` ORDER BY created_at DESC, id`, w.args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list escalations")
	}
	defer rows.Close()

	var out []*escalation.Escalation
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list escalations")
	}
	return out, nil
}

func (r *postgresEscalationRepo) UpdateStatus(ctx context.Context, e *escalation.Escalation) error {
	res, err := r.conn.DB().ExecContext(ctx,
		`UPDATE escalations SET status = $1, aligned_at = $2, resolved_at = $3 WHERE id = $4`,
		string(e.Status), nullTime(e.AlignedAt), nullTime(e.ResolvedAt), e.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update escalation status")
	}
	if affected(res) == 0 {
		return errors.New(errors.ErrCodeEscalationNotFound, "escalation not found").WithDetail(e.ID)
	}
	return nil
}

func scanEscalation(row scanner) (*escalation.Escalation, error) {
	e := &escalation.Escalation{}
	var scope, status string
	var aligned, resolved sql.NullTime
	err := row.Scan(
		&e.ID, &e.ProductID, &scope, &e.CityID, &e.CountryCode, &e.Region, &e.RaisedBy, &e.POC, &e.Reason,
		&e.ReasonType, &e.BusinessCaseURL, &status, &e.CreatedAt, &aligned, &resolved,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrCodeEscalationNotFound, "escalation not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan escalation")
	}
	e.ScopeLevel = escalation.ScopeLevel(scope)
	e.Status = escalation.Status(status)
	e.AlignedAt = timePtr(aligned)
	e.ResolvedAt = timePtr(resolved)
	return e, nil
}

type postgresHistoryRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

func NewPostgresEscalationHistoryRepo(conn *postgres.Connection, log logging.Logger) escalation.HistoryRepository {
	return &postgresHistoryRepo{conn: conn, log: log}
}

func (r *postgresHistoryRepo) Append(ctx context.Context, h *escalation.HistoryEntry) error {
	_, err := r.conn.DB().ExecContext(ctx,
		`INSERT INTO escalation_history (id, escalation_id, old_status, new_status, actor, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.ID, h.EscalationID, string(h.OldStatus), string(h.NewStatus), h.Actor, h.Notes, h.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to append escalation history")
	}
	return nil
}

func (r *postgresHistoryRepo) ListByEscalation(ctx context.Context, escalationID string) ([]*escalation.HistoryEntry, error) {
	rows, err := r.conn.DB().QueryContext(ctx,
		`SELECT id, escalation_id, old_status, new_status, actor, notes, created_at FROM escalation_history WHERE escalation_id = $1 ORDER BY created_at, id`,
		escalationID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list escalation history")
	}
	defer rows.Close()

	var out []*escalation.HistoryEntry
	for rows.Next() {
		h := &escalation.HistoryEntry{}
		var oldStatus, newStatus string
		if err := rows.Scan(&h.ID, &h.EscalationID, &oldStatus, &newStatus, &h.Actor, &h.Notes, &h.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan escalation history")
		}
		h.OldStatus = escalation.Status(oldStatus)
		h.NewStatus = escalation.Status(newStatus)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list escalation history")
	}
	return out, nil
}
