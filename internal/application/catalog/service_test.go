package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/internal/application/events"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/internal/testutil"
	apperrors "github.com/turtacn/launch-radar/pkg/errors"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

var now = time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)

type cacheSpy struct{ n int }

func (c *cacheSpy) Invalidate(context.Context) { c.n++ }

type harness struct {
	markets  *testutil.MarketRepo
	products *testutil.ProductRepo
	coverage *testutil.CoverageRepo
	cache    *cacheSpy
	inv      *testutil.Invalidations
	pub      *testutil.CapturePublisher
	svc      *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		markets:  new(testutil.MarketRepo),
		products: new(testutil.ProductRepo),
		coverage: new(testutil.CoverageRepo),
		cache:    &cacheSpy{},
		inv:      &testutil.Invalidations{},
		pub:      &testutil.CapturePublisher{},
	}
	svc, err := NewService(Deps{
		Markets:     h.markets,
		Products:    h.products,
		Coverage:    h.coverage,
		MarketCache: h.cache,
		Authz:       testutil.RoleAuthorizer{},
		Events:      events.NewEmitter(h.pub, nil, logging.NewNopLogger()),
		Invalidator: h.inv,
		Logger:      logging.NewNopLogger(),
		Now:         testutil.FixedClock(now),
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func mkt(id, name string, level market.Level, parent string) *market.Market {
	return &market.Market{ID: id, Name: name, Level: level, ParentID: parent}
}

func forest() []*market.Market {
	return []*market.Market{
		mkt("emea", "EMEA", market.LevelMegaRegion, ""),
		mkt("r-3", "Western Europe", market.LevelRegion, "emea"),
		mkt("gb", "United Kingdom", market.LevelCountry, "r-3"),
		mkt("fr", "France", market.LevelCountry, "r-3"),
		mkt("man", "Manchester", market.LevelCity, "gb"),
		mkt("lon", "London", market.LevelCity, "gb"),
		mkt("par", "Paris", market.LevelCity, "fr"),
	}
}

func ids(ms []*market.Market) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestListMarkets(t *testing.T) {
	h := newHarness(t)
	h.markets.On("List", mock.Anything).Return(forest(), nil)
	ctx := testutil.AsUser(user.RoleViewer)

	roots, err := h.svc.ListMarkets(ctx, MarketQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"emea"}, ids(roots))

	countries, err := h.svc.ListMarkets(ctx, MarketQuery{ParentID: "r-3"})
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"fr", "gb"}, ids(countries)); diff != "" {
		t.Errorf("countries mismatch (-want +got):\n%s", diff)
	}

	cities, err := h.svc.ListMarkets(ctx, MarketQuery{Level: market.LevelCity})
	require.NoError(t, err)
	assert.Equal(t, []string{"lon", "man", "par"}, ids(cities))

	_, err = h.svc.ListMarkets(ctx, MarketQuery{ParentID: "lon"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMarketLevelInvalid))

	_, err = h.svc.ListMarkets(ctx, MarketQuery{ParentID: "atlantis"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAncestorsAndCities(t *testing.T) {
	h := newHarness(t)
	h.markets.On("List", mock.Anything).Return(forest(), nil)
	ctx := testutil.AsUser(user.RoleViewer)

	chain, err := h.svc.Ancestors(ctx, "lon")
	require.NoError(t, err)
	assert.Equal(t, []string{"lon", "gb", "r-3", "emea"}, ids(chain))

	cities, err := h.svc.Cities(ctx, "r-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"lon", "man", "par"}, ids(cities))

	_, err = h.svc.Ancestors(ctx, "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestImport(t *testing.T) {
	h := newHarness(t)
	h.markets.On("List", mock.Anything).Return(forest(), nil)
	h.markets.On("BulkCreate", mock.Anything, mock.Anything).Return(2, nil)

	res, err := h.svc.Import(testutil.AsUser(user.RoleAdmin), ImportRequest{Markets: []*market.Market{
		mkt("de", "Germany", market.LevelCountry, "r-3"),
		mkt("ber", "Berlin", market.LevelCity, "de"),
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, h.cache.n)
	assert.Equal(t, 1, h.inv.Count())
	assert.Equal(t, []common.EventType{common.EventMarketsImported}, h.pub.Types())

	created := h.markets.Calls[1].Arguments.Get(1).([]*market.Market)
	assert.Equal(t, now, created[0].CreatedAt)
}

func TestImport_RejectsBrokenForest(t *testing.T) {
	h := newHarness(t)
	h.markets.On("List", mock.Anything).Return(forest(), nil)

	res, err := h.svc.Import(testutil.AsUser(user.RoleAdmin), ImportRequest{Markets: []*market.Market{
		mkt("ber", "Berlin", market.LevelCity, "r-3"),
		mkt("xx", "Nowhere", market.LevelCity, "missing"),
	}})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMarketHierarchy))
	require.NotNil(t, res)
	assert.Equal(t, []string{"ber", "xx"}, []string{res.Violations[0].MarketID, res.Violations[1].MarketID})
	h.markets.AssertNotCalled(t, "BulkCreate", mock.Anything, mock.Anything)
}

func TestImport_DuplicateAndDryRun(t *testing.T) {
	h := newHarness(t)
	h.markets.On("List", mock.Anything).Return(forest(), nil)

	_, err := h.svc.Import(testutil.AsUser(user.RoleAdmin), ImportRequest{Markets: []*market.Market{
		mkt("gb", "UK again", market.LevelCountry, "r-3"),
	}})
	assert.True(t, apperrors.IsConflict(err))

	res, err := h.svc.Import(testutil.AsUser(user.RoleAdmin), ImportRequest{DryRun: true, Markets: []*market.Market{
		mkt("de", "Germany", market.LevelCountry, "r-3"),
	}})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Zero(t, res.Created)
	h.markets.AssertNotCalled(t, "BulkCreate", mock.Anything, mock.Anything)
}

func TestImport_AdminOnly(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Import(testutil.AsUser(user.RoleEditor), ImportRequest{Markets: forest()})
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
	h.markets.AssertNotCalled(t, "List", mock.Anything)
}

func TestBulkDelete(t *testing.T) {
	h := newHarness(t)
	h.markets.On("List", mock.Anything).Return(forest(), nil)
	h.markets.On("BulkDelete", mock.Anything, []string{"fr", "par"}).Return(2, nil)
	ctx := testutil.AsUser(user.RoleAdmin)

	_, err := h.svc.BulkDelete(ctx, []string{"fr"})
	assert.True(t, apperrors.IsConflict(err), "deleting fr alone would orphan paris")

	res, err := h.svc.BulkDelete(ctx, []string{"fr", "par"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, 1, h.cache.n)

	_, err = h.svc.BulkDelete(ctx, []string{"zz"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProducts(t *testing.T) {
	h := newHarness(t)
	h.products.On("Create", mock.Anything, mock.Anything).Return(nil)
	ctx := testutil.AsUser(user.RoleAdmin)

	p, err := h.svc.CreateProduct(ctx, product.Input{Name: " Wallet "})
	require.NoError(t, err)
	assert.Equal(t, "Wallet", p.Name)
	assert.Equal(t, product.StatusPlanned, p.Status)

	_, err = h.svc.CreateProduct(ctx, product.Input{})
	assert.True(t, apperrors.IsValidation(err))

	h.products.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	h.products.On("Update", mock.Anything, p).Return(nil)
	updated, err := h.svc.UpdateProduct(ctx, p.ID, product.Input{Name: "Wallet", Status: product.StatusLaunched})
	require.NoError(t, err)
	assert.Equal(t, product.StatusLaunched, updated.Status)
	assert.Equal(t, 2, h.inv.Count())

	_, err = h.svc.CreateProduct(testutil.AsUser(user.RoleEditor), product.Input{Name: "x"})
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}

func TestUpsertCell(t *testing.T) {
	h := newHarness(t)
	h.products.On("GetByID", mock.Anything, "p-1").Return(&product.Product{ID: "p-1"}, nil)
	h.markets.On("GetByID", mock.Anything, "lon").Return(mkt("lon", "London", market.LevelCity, "gb"), nil)
	h.coverage.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	ctx := testutil.AsUser(user.RoleEditor)

	c, err := h.svc.UpsertCell(ctx, CellInput{ProductID: "p-1", MarketID: "lon", Value: 75})
	require.NoError(t, err)
	assert.Equal(t, coverage.MetricCityPct, c.Metric)
	assert.Equal(t, now, c.UpdatedAt)

	_, err = h.svc.UpsertCell(ctx, CellInput{ProductID: "p-1", MarketID: "lon", Value: 101})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCoverageOutOfRange))

	_, err = h.svc.UpsertCell(ctx, CellInput{ProductID: "p-1", MarketID: "lon", Metric: "revenue", Value: 1})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCoverageMetricInvalid))

	h.coverage.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestGetCell(t *testing.T) {
	h := newHarness(t)
	h.coverage.On("Get", mock.Anything, "p-1", "lon", coverage.MetricTAM).
		Return(nil, apperrors.New(apperrors.ErrCodeCoverageCellNotFound, "coverage cell not found"))

	_, err := h.svc.GetCell(testutil.AsUser(user.RoleViewer), "p-1", "lon", coverage.MetricTAM)
	assert.True(t, apperrors.IsNotFound(err))
}
