package repositories

import (
	"database/sql"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
)

// repoSuite wires a sqlmock-backed Connection for every repository suite.
type repoSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	conn *postgres.Connection
	log  logging.Logger
}

func (s *repoSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)
	s.log = logging.NewNopLogger()
	s.conn = postgres.NewConnectionWithDB(s.db, s.log)
}

func (s *repoSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}
