package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/launch-radar/pkg/errors"
)

type mockMarketRepo struct {
	mock.Mock
}

func (m *mockMarketRepo) List(ctx context.Context) ([]*market.Market, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*market.Market), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMarketRepo) GetByID(ctx context.Context, id string) (*market.Market, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*market.Market), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMarketRepo) BulkCreate(ctx context.Context, ms []*market.Market) (int, error) {
	args := m.Called(ctx, ms)
	return args.Int(0), args.Error(1)
}

func (m *mockMarketRepo) BulkDelete(ctx context.Context, ids []string) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

type recordedResult struct {
	cache string
	hit   bool
}

type fakeRecorder struct{ results []recordedResult }

func (f *fakeRecorder) RecordCacheResult(cache string, hit bool) {
	f.results = append(f.results, recordedResult{cache, hit})
}

var forest = []*market.Market{
	{ID: "mr-1", Name: "EMEA", Level: market.LevelMegaRegion, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	{ID: "r-3", Name: "Western Europe", Level: market.LevelRegion, ParentID: "mr-1", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
}

func newCachedRepo(t *testing.T) (*CachedMarketRepository, *mockMarketRepo, redismock.ClientMock, *fakeRecorder) {
	t.Helper()
	db, rmock := redismock.NewClientMock()
	cache := NewRedisCache(NewClientWithRDB(db, logging.NewNopLogger()), logging.NewNopLogger(), WithJitter(false))
	next := &mockMarketRepo{}
	rec := &fakeRecorder{}
	return NewCachedMarketRepository(next, cache, time.Hour, rec, logging.NewNopLogger()), next, rmock, rec
}

func TestCachedMarketRepository_MissThenHit(t *testing.T) {
	repo, next, rmock, rec := newCachedRepo(t)
	data, err := json.Marshal(forest)
	require.NoError(t, err)

	rmock.ExpectGet("radar:" + MarketsCacheKey).RedisNil()
	rmock.ExpectSet("radar:"+MarketsCacheKey, data, time.Hour).SetVal("OK")
	next.On("List", mock.Anything).Return(forest, nil).Once()

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	rmock.ExpectGet("radar:" + MarketsCacheKey).SetVal(string(data))
	m, err := repo.GetByID(context.Background(), "r-3")
	require.NoError(t, err)
	assert.Equal(t, "mr-1", m.ParentID)

	assert.Equal(t, []recordedResult{{"markets", false}, {"markets", true}}, rec.results)
	next.AssertExpectations(t)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestCachedMarketRepository_GetByIDMissing(t *testing.T) {
	repo, _, rmock, _ := newCachedRepo(t)
	data, _ := json.Marshal(forest)
	rmock.ExpectGet("radar:" + MarketsCacheKey).SetVal(string(data))

	_, err := repo.GetByID(context.Background(), "city-404")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMarketNotFound))
}

func TestCachedMarketRepository_WritesInvalidate(t *testing.T) {
	repo, next, rmock, _ := newCachedRepo(t)

	next.On("BulkDelete", mock.Anything, []string{"city-7"}).Return(1, nil)
	rmock.ExpectDel("radar:" + MarketsCacheKey).SetVal(1)

	n, err := repo.BulkDelete(context.Background(), []string{"city-7"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, rmock.ExpectationsWereMet())
}
