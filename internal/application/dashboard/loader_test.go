package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/internal/testutil"
	apperrors "github.com/turtacn/launch-radar/pkg/errors"
)

type fixtureRepos struct {
	markets     *testutil.MarketRepo
	products    *testutil.ProductRepo
	coverage    *testutil.CoverageRepo
	blockers    *testutil.BlockerRepo
	escalations *testutil.EscalationRepo
}

func newFixtureRepos() *fixtureRepos {
	snap := fixtureSnapshot()
	r := &fixtureRepos{
		markets:     new(testutil.MarketRepo),
		products:    new(testutil.ProductRepo),
		coverage:    new(testutil.CoverageRepo),
		blockers:    new(testutil.BlockerRepo),
		escalations: new(testutil.EscalationRepo),
	}
	r.markets.On("List", mock.Anything).Return(snap.Markets, nil).Maybe()
	r.products.On("List", mock.Anything).Return(snap.Products, nil).Maybe()
	r.coverage.On("List", mock.Anything, mock.Anything).Return(snap.Cells, nil).Maybe()
	r.blockers.On("List", mock.Anything, mock.Anything).Return(snap.Blockers, nil).Maybe()
	r.escalations.On("List", mock.Anything, mock.Anything).Return(snap.Escalations, nil).Maybe()
	return r
}

func (r *fixtureRepos) repositories() Repositories {
	return Repositories{
		Markets:     r.markets,
		Products:    r.products,
		Coverage:    r.coverage,
		Blockers:    r.blockers,
		Escalations: r.escalations,
	}
}

func TestLoader_Load(t *testing.T) {
	l := NewLoader(newFixtureRepos().repositories(), time.Second)
	l.now = testutil.FixedClock(t0)

	st, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, st.Hierarchy().Len())
	assert.Equal(t, t0, st.LoadedAt())
	assert.True(t, st.Overlay().HasActiveBlocker("p-1", "man"))
}

func TestLoader_FirstErrorWins(t *testing.T) {
	repos := newFixtureRepos()
	repos.blockers = new(testutil.BlockerRepo)
	repos.blockers.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := NewLoader(repos.repositories(), 0).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "load blockers")
}

func TestLoader_KeepsAppErrorCode(t *testing.T) {
	repos := newFixtureRepos()
	repos.markets = new(testutil.MarketRepo)
	repos.markets.On("List", mock.Anything).Return(nil, apperrors.New(apperrors.ErrCodeCacheError, "redis down"))

	_, err := NewLoader(repos.repositories(), 0).Load(context.Background())
	assert.Equal(t, apperrors.ErrCodeCacheError, apperrors.GetCode(err))
}
