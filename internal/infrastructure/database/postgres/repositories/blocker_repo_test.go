package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/launch-radar/internal/domain/blocker"
	pkgerrors "github.com/turtacn/launch-radar/pkg/errors"
)

type BlockerRepoTestSuite struct {
	repoSuite
	repo blocker.Repository
}

func (s *BlockerRepoTestSuite) SetupTest() {
	s.repoSuite.SetupTest()
	s.repo = NewPostgresBlockerRepo(s.conn, s.log)
}

var blockerCols = []string{
	"id", "product_id", "market_id", "category", "owner", "eta", "note", "jira_url",
	"escalated", "resolved", "stale", "created_at", "updated_at",
}

func (s *BlockerRepoTestSuite) TestCreateThenFetch_DefaultsUnresolvedAndFresh() {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	b, err := blocker.NewBlocker(blocker.CreateInput{
		ProductID: "p-1", MarketID: "city-5", Category: "regulatory", Owner: "ops", Note: "licence",
	}, now)
	s.Require().NoError(err)

	s.mock.ExpectExec("INSERT INTO blockers").
		WithArgs(b.ID, "p-1", "city-5", "regulatory", "ops", nil, "licence", "", false, false, false, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.Require().NoError(s.repo.Create(context.Background(), b))

	s.mock.ExpectQuery("SELECT (.+) FROM blockers WHERE product_id = ANY\\(\\$1\\) AND market_id = ANY\\(\\$2\\) ORDER BY").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(blockerCols).
			AddRow(b.ID, "p-1", "city-5", "regulatory", "ops", nil, "licence", "", false, false, false, now, now))

	got, err := s.repo.List(context.Background(), blocker.Filter{ProductIDs: []string{"p-1"}, MarketIDs: []string{"city-5"}})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.False(got[0].Resolved)
	s.False(got[0].Stale)
	s.Nil(got[0].ETA)
}

func (s *BlockerRepoTestSuite) TestList_UnresolvedOnly() {
	s.mock.ExpectQuery("SELECT (.+) FROM blockers WHERE NOT resolved ORDER BY created_at, id").
		WillReturnRows(sqlmock.NewRows(blockerCols))

	got, err := s.repo.List(context.Background(), blocker.Filter{UnresolvedOnly: true})
	s.NoError(err)
	s.Empty(got)
}

func (s *BlockerRepoTestSuite) TestGetByID_NotFound() {
	s.mock.ExpectQuery("SELECT (.+) FROM blockers WHERE id = \\$1").
		WithArgs("b-404").
		WillReturnRows(sqlmock.NewRows(blockerCols))

	_, err := s.repo.GetByID(context.Background(), "b-404")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeBlockerNotFound))
}

func (s *BlockerRepoTestSuite) TestGetByIDs_EmptySkipsQuery() {
	got, err := s.repo.GetByIDs(context.Background(), nil)
	s.NoError(err)
	s.Nil(got)
}

func (s *BlockerRepoTestSuite) TestUpdate() {
	eta := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	b := &blocker.Blocker{ID: "b-1", Category: "legal", Owner: "amy", ETA: &eta, Note: "n", Resolved: true, UpdatedAt: now}

	s.mock.ExpectExec("UPDATE blockers").
		WithArgs("legal", "amy", eta, "n", "", false, true, false, now, "b-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.Update(context.Background(), b))
}

func (s *BlockerRepoTestSuite) TestUpdate_Missing() {
	s.mock.ExpectExec("UPDATE blockers").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.repo.Update(context.Background(), &blocker.Blocker{ID: "b-404"})
	s.True(pkgerrors.IsNotFound(err))
}

func (s *BlockerRepoTestSuite) TestListStaleAndMark() {
	before := time.Now().Add(-14 * 24 * time.Hour)
	old := before.Add(-time.Hour)
	s.mock.ExpectQuery("SELECT (.+) FROM blockers WHERE NOT resolved AND NOT stale AND updated_at < \\$1").
		WithArgs(before).
		WillReturnRows(sqlmock.NewRows(blockerCols).
			AddRow("b-1", "p-1", "city-5", "legal", "", nil, "", "", false, false, false, old, old))

	stale, err := s.repo.ListStale(context.Background(), before)
	s.Require().NoError(err)
	s.Require().Len(stale, 1)

	s.mock.ExpectExec("UPDATE blockers SET stale = TRUE WHERE id = ANY\\(\\$1\\) AND NOT resolved").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := s.repo.MarkStale(context.Background(), []string{"b-1"})
	s.NoError(err)
	s.Equal(1, n)
}

func TestBlockerRepoTestSuite(t *testing.T) {
	suite.Run(t, new(BlockerRepoTestSuite))
}
