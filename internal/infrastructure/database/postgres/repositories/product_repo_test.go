package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/launch-radar/internal/domain/product"
	pkgerrors "github.com/turtacn/launch-radar/pkg/errors"
)

type ProductRepoTestSuite struct {
	repoSuite
	repo product.Repository
}

func (s *ProductRepoTestSuite) SetupTest() {
	s.repoSuite.SetupTest()
	s.repo = NewPostgresProductRepo(s.conn, s.log)
}

var productCols = []string{"id", "name", "line_of_business", "sub_team", "status", "launch_date", "notes", "created_at", "updated_at"}

func (s *ProductRepoTestSuite) TestGetByID() {
	now := time.Now()
	launch := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery("SELECT (.+) FROM products WHERE id = \\$1").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow("p-1", "Rides", "Mobility", "Core", "IN_PROGRESS", launch, "", now, now))

	p, err := s.repo.GetByID(context.Background(), "p-1")
	s.Require().NoError(err)
	s.Equal(product.StatusInProgress, p.Status)
	s.Require().NotNil(p.LaunchDate)
	s.Equal(launch, *p.LaunchDate)
}

func (s *ProductRepoTestSuite) TestGetByID_NoLaunchDate() {
	now := time.Now()
	s.mock.ExpectQuery("SELECT (.+) FROM products").
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow("p-2", "Eats", "Delivery", "", "PLANNED", nil, "", now, now))

	p, err := s.repo.GetByID(context.Background(), "p-2")
	s.Require().NoError(err)
	s.Nil(p.LaunchDate)
}

func (s *ProductRepoTestSuite) TestCreate_Duplicate() {
	p := &product.Product{ID: "p-1", Name: "Rides", Status: product.StatusPlanned}
	s.mock.ExpectExec("INSERT INTO products").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.repo.Create(context.Background(), p)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeProductAlreadyExists))
}

func (s *ProductRepoTestSuite) TestUpdate_NotFound() {
	p := &product.Product{ID: "p-9", Name: "Ghost", Status: product.StatusPaused}
	s.mock.ExpectExec("UPDATE products").
		WithArgs("Ghost", "", "", "PAUSED", nil, "", sqlmock.AnyArg(), "p-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.repo.Update(context.Background(), p)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeProductNotFound))
}

func TestProductRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ProductRepoTestSuite))
}
