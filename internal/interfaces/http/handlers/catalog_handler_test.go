package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/internal/application/catalog"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/launch-radar/pkg/errors"
)

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) ListMarkets(ctx context.Context, q catalog.MarketQuery) ([]*market.Market, error) {
	args := m.Called(ctx, q)
	ms, _ := args.Get(0).([]*market.Market)
	return ms, args.Error(1)
}

func (m *mockCatalog) Ancestors(ctx context.Context, id string) ([]*market.Market, error) {
	args := m.Called(ctx, id)
	ms, _ := args.Get(0).([]*market.Market)
	return ms, args.Error(1)
}

func (m *mockCatalog) Cities(ctx context.Context, id string) ([]*market.Market, error) {
	args := m.Called(ctx, id)
	ms, _ := args.Get(0).([]*market.Market)
	return ms, args.Error(1)
}

func (m *mockCatalog) Import(ctx context.Context, req catalog.ImportRequest) (*catalog.ImportResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*catalog.ImportResult)
	return res, args.Error(1)
}

func (m *mockCatalog) BulkDelete(ctx context.Context, ids []string) (*catalog.DeleteResult, error) {
	args := m.Called(ctx, ids)
	res, _ := args.Get(0).(*catalog.DeleteResult)
	return res, args.Error(1)
}

func (m *mockCatalog) ListProducts(ctx context.Context) ([]*product.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]*product.Product)
	return ps, args.Error(1)
}

func (m *mockCatalog) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *mockCatalog) CreateProduct(ctx context.Context, in product.Input) (*product.Product, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *mockCatalog) UpdateProduct(ctx context.Context, id string, in product.Input) (*product.Product, error) {
	args := m.Called(ctx, id, in)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *mockCatalog) UpsertCell(ctx context.Context, in catalog.CellInput) (*coverage.Cell, error) {
	args := m.Called(ctx, in)
	c, _ := args.Get(0).(*coverage.Cell)
	return c, args.Error(1)
}

func (m *mockCatalog) ListCells(ctx context.Context, f coverage.Filter) ([]*coverage.Cell, error) {
	args := m.Called(ctx, f)
	cs, _ := args.Get(0).([]*coverage.Cell)
	return cs, args.Error(1)
}

func newCatalogHandler() (*CatalogHandler, *mockCatalog) {
	svc := new(mockCatalog)
	return NewCatalogHandler(svc, logging.NewNopLogger()), svc
}

func TestCatalogHandler_ListMarkets(t *testing.T) {
	h, svc := newCatalogHandler()
	svc.On("ListMarkets", mock.Anything, catalog.MarketQuery{Level: market.LevelCountry, ParentID: "r-3"}).
		Return([]*market.Market{{ID: "gb", Name: "United Kingdom", Level: market.LevelCountry}}, nil)

	w := serve(http.MethodGet, "/markets", h.ListMarkets, "/markets?level=country&parent=r-3", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got []market.Market
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "gb", got[0].ID)
}

func TestCatalogHandler_ListMarkets_BadLevel(t *testing.T) {
	h, svc := newCatalogHandler()
	w := serve(http.MethodGet, "/markets", h.ListMarkets, "/markets?level=galaxy", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ListMarkets", mock.Anything, mock.Anything)
}

func TestCatalogHandler_Ancestors(t *testing.T) {
	h, svc := newCatalogHandler()
	svc.On("Ancestors", mock.Anything, "lon").Return([]*market.Market{{ID: "lon"}, {ID: "gb"}}, nil)
	svc.On("Ancestors", mock.Anything, "nope").Return(nil, apperrors.New(apperrors.ErrCodeMarketNotFound, "market not found"))

	w := serve(http.MethodGet, "/markets/{id}/ancestors", h.Ancestors, "/markets/lon/ancestors", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodGet, "/markets/{id}/ancestors", h.Ancestors, "/markets/nope/ancestors", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandler_Import(t *testing.T) {
	h, svc := newCatalogHandler()
	svc.On("Import", mock.Anything, mock.MatchedBy(func(r catalog.ImportRequest) bool {
		return len(r.Markets) == 1 && r.Markets[0].ID == "de" && !r.DryRun
	})).Return(&catalog.ImportResult{Created: 1}, nil)

	body := `{"markets":[{"id":"de","name":"Germany","type":"country","parent_id":"r-3"}]}`
	w := serve(http.MethodPost, "/markets/import", h.ImportMarkets, "/markets/import", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"created":1}`, w.Body.String())
}

func TestCatalogHandler_ImportViolations(t *testing.T) {
	h, svc := newCatalogHandler()
	svc.On("Import", mock.Anything, mock.Anything).Return(
		&catalog.ImportResult{Violations: []market.Violation{{MarketID: "xx", Reason: "unknown parent"}}},
		apperrors.New(apperrors.ErrCodeMarketHierarchy, "market hierarchy violated"))

	body := `{"markets":[{"id":"xx","name":"X","type":"city","parent_id":"missing"}]}`
	w := serve(http.MethodPost, "/markets/import", h.ImportMarkets, "/markets/import", body)
	assert.Equal(t, apperrors.HTTPStatusForCode(apperrors.ErrCodeMarketHierarchy), w.Code)

	var resp importFailure
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.ErrCodeMarketHierarchy), resp.Code)
	assert.Equal(t, "xx", resp.Violations[0].MarketID)
}

func TestCatalogHandler_ImportEmpty(t *testing.T) {
	h, svc := newCatalogHandler()
	w := serve(http.MethodPost, "/markets/import", h.ImportMarkets, "/markets/import", `{"markets":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Import", mock.Anything, mock.Anything)
}

func TestCatalogHandler_BulkDelete(t *testing.T) {
	h, svc := newCatalogHandler()
	svc.On("BulkDelete", mock.Anything, []string{"fr"}).
		Return(nil, apperrors.New(apperrors.ErrCodeConflict, "markets have children outside the delete set"))

	w := serve(http.MethodPost, "/markets/bulk-delete", h.BulkDeleteMarkets, "/markets/bulk-delete", `{"ids":["fr"]}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCatalogHandler_Products(t *testing.T) {
	h, svc := newCatalogHandler()
	svc.On("CreateProduct", mock.Anything, product.Input{Name: "Wallet"}).
		Return(&product.Product{ID: "p-1", Name: "Wallet", Status: product.StatusPlanned}, nil)
	svc.On("UpdateProduct", mock.Anything, "p-1", product.Input{Name: "Wallet", Status: product.StatusLaunched}).
		Return(&product.Product{ID: "p-1", Name: "Wallet", Status: product.StatusLaunched}, nil)
	svc.On("GetProduct", mock.Anything, "p-9").Return(nil, apperrors.New(apperrors.ErrCodeProductNotFound, "product not found"))

	w := serve(http.MethodPost, "/products", h.CreateProduct, "/products", `{"name":"Wallet"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = serve(http.MethodPut, "/products/{id}", h.UpdateProduct, "/products/p-1", `{"name":"Wallet","status":"LAUNCHED"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodGet, "/products/{id}", h.GetProduct, "/products/p-9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertExpectations(t)
}

func TestCatalogHandler_Coverage(t *testing.T) {
	h, svc := newCatalogHandler()
	svc.On("ListCells", mock.Anything, coverage.Filter{ProductIDs: []string{"p-1"}, MarketIDs: []string{"lon", "par"}, Metric: coverage.MetricTAM}).
		Return([]*coverage.Cell{{ProductID: "p-1", MarketID: "lon", Metric: coverage.MetricTAM, Value: 40}}, nil)
	svc.On("UpsertCell", mock.Anything, catalog.CellInput{ProductID: "p-1", MarketID: "lon", Value: 120}).
		Return(nil, apperrors.New(apperrors.ErrCodeCoverageOutOfRange, "coverage value out of range"))

	w := serve(http.MethodGet, "/coverage", h.ListCoverage, "/coverage?product=p-1&market=lon,par&metric=tam_pct", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodPut, "/coverage", h.PutCoverage, "/coverage", `{"product_id":"p-1","market_id":"lon","value":120}`)
	assert.Equal(t, apperrors.HTTPStatusForCode(apperrors.ErrCodeCoverageOutOfRange), w.Code)

	w = serve(http.MethodGet, "/coverage", h.ListCoverage, "/coverage?metric=revenue", "")
	assert.Equal(t, apperrors.HTTPStatusForCode(apperrors.ErrCodeCoverageMetricInvalid), w.Code)
	svc.AssertExpectations(t)
}
