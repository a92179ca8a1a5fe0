package repositories

import (
	"context"
	"database/sql"

	"github.com/turtacn/launch-radar/internal/domain/product"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

const productColumns = `id, name, line_of_business, sub_team, status, launch_date, notes, created_at, updated_at`

type postgresProductRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

func NewPostgresProductRepo(conn *postgres.Connection, log logging.Logger) product.Repository {
	return &postgresProductRepo{conn: conn, log: log}
}

func (r *postgresProductRepo) List(ctx context.Context) ([]*product.Product, error) {
	rows, err := r.conn.DB().QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list products")
	}
	defer rows.Close()

	var out []*product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list products")
	}
	return out, nil
}

func (r *postgresProductRepo) GetByID(ctx context.Context, id string) (*product.Product, error) {
	row := r.conn.DB().QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (r *postgresProductRepo) Create(ctx context.Context, p *product.Product) error {
	query := `
		INSERT INTO products (id, name, line_of_business, sub_team, status, launch_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.conn.DB().ExecContext(ctx, query,
		p.ID, p.Name, p.LineOfBusiness, p.SubTeam, string(p.Status), nullTime(p.LaunchDate), p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return writeError(err, errors.ErrCodeProductAlreadyExists, "create product")
	}
	return nil
}

func (r *postgresProductRepo) Update(ctx context.Context, p *product.Product) error {
	query := `
		UPDATE products
		SET name = $1, line_of_business = $2, sub_team = $3, status = $4, launch_date = $5, notes = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := r.conn.DB().ExecContext(ctx, query,
		p.Name, p.LineOfBusiness, p.SubTeam, string(p.Status), nullTime(p.LaunchDate), p.Notes, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return writeError(err, errors.ErrCodeProductAlreadyExists, "update product")
	}
	if affected(res) == 0 {
		return errors.New(errors.ErrCodeProductNotFound, "product not found").WithDetail(p.ID)
	}
	return nil
}

func scanProduct(row scanner) (*product.Product, error) {
	p := &product.Product{}
	var status string
	var launch sql.NullTime
	err := row.Scan(&p.ID, &p.Name, &p.LineOfBusiness, &p.SubTeam, &status, &launch, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrCodeProductNotFound, "product not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan product")
	}
	p.Status = product.Status(status)
	p.LaunchDate = timePtr(launch)
	return p, nil
}
