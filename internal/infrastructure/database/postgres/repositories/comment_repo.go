package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/turtacn/launch-radar/internal/domain/comment"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

const commentColumns = `id, product_id, city_id, author_id, question, answer, answered_by, status, created_at, answered_at`

type postgresCommentRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

func NewPostgresCommentRepo(conn *postgres.Connection, log logging.Logger) comment.Repository {
	return &postgresCommentRepo{conn: conn, log: log}
}

func (r *postgresCommentRepo) Create(ctx context.Context, c *comment.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.conn.DB().ExecContext(ctx, query,
		c.ID, c.ProductID, c.CityID, c.AuthorID, c.Question, c.AnswerText, c.AnsweredBy,
		string(c.Status), c.CreatedAt, nullTime(c.AnsweredAt),
	)
	if err != nil {
		return writeError(err, errors.ErrCodeConflict, "create comment")
	}
	return nil
}

func (r *postgresCommentRepo) GetByID(ctx context.Context, id string) (*comment.Comment, error) {
	row := r.conn.DB().QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	return scanComment(row)
}

func (r *postgresCommentRepo) List(ctx context.Context, f comment.Filter) ([]*comment.Comment, error) {
	var w whereBuilder
	if len(f.ProductIDs) > 0 {
		w.add("product_id = ANY($%d)", pq.Array(f.ProductIDs))
	}
	if len(f.CityIDs) > 0 {
		w.add("city_id = ANY($%d)", pq.Array(f.CityIDs))
	}
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}

	rows, err := r.conn.DB().QueryContext(ctx, `SELECT `+commentColumns+` FROM comments`+w.String()+` ORDER BY created_at, id`, w.args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list comments")
	}
	defer rows.Close()

	var out []*comment.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list comments")
	}
	return out, nil
}

func (r *postgresCommentRepo) Update(ctx context.Context, c *comment.Comment) error {
	res, err := r.conn.DB().ExecContext(ctx,
		`UPDATE comments SET answer = $1, answered_by = $2, status = $3, answered_at = $4 WHERE id = $5`,
		c.AnswerText, c.AnsweredBy, string(c.Status), nullTime(c.AnsweredAt), c.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update comment")
	}
	if affected(res) == 0 {
		return errors.New(errors.ErrCodeCommentNotFound, "comment not found").WithDetail(c.ID)
	}
	return nil
}

func scanComment(row scanner) (*comment.Comment, error) {
	c := &comment.Comment{}
	var status string
	var answeredAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.ProductID, &c.CityID, &c.AuthorID, &c.Question, &c.AnswerText, &c.AnsweredBy,
		&status, &c.CreatedAt, &answeredAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrCodeCommentNotFound, "comment not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan comment")
	}
	c.Status = comment.Status(status)
	c.AnsweredAt = timePtr(answeredAt)
	return c, nil
}
