package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/launch-radar/internal/application/catalog"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// CatalogService is the part of catalog.Service the handler calls.
type CatalogService interface {
	ListMarkets(ctx context.Context, q catalog.MarketQuery) ([]*market.Market, error)
	Ancestors(ctx context.Context, id string) ([]*market.Market, error)
	Cities(ctx context.Context, id string) ([]*market.Market, error)
	Import(ctx context.Context, req catalog.ImportRequest) (*catalog.ImportResult, error)
	BulkDelete(ctx context.Context, ids []string) (*catalog.DeleteResult, error)

	ListProducts(ctx context.Context) ([]*product.Product, error)
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	CreateProduct(ctx context.Context, in product.Input) (*product.Product, error)
	UpdateProduct(ctx context.Context, id string, in product.Input) (*product.Product, error)

	UpsertCell(ctx context.Context, in catalog.CellInput) (*coverage.Cell, error)
	ListCells(ctx context.Context, f coverage.Filter) ([]*coverage.Cell, error)
}

// CatalogHandler serves markets, products and coverage cells.
type CatalogHandler struct {
	svc    CatalogService
	logger logging.Logger
}

func NewCatalogHandler(svc CatalogService, logger logging.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// importFailure is returned when an import batch breaks the hierarchy.
type importFailure struct {
	ErrorResponse
	Violations []market.Violation `json:"violations"`
}

func (h *CatalogHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	q := catalog.MarketQuery{ParentID: r.URL.Query().Get("parent")}
	if raw := r.URL.Query().Get("level"); raw != "" {
		lvl, err := market.ParseLevel(raw)
		if err != nil {
			writeAppError(w, h.logger, r, err)
			return
		}
		q.Level = lvl
	}

	ms, err := h.svc.ListMarkets(r.Context(), q)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *CatalogHandler) Ancestors(w http.ResponseWriter, r *http.Request) {
	ms, err := h.svc.Ancestors(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *CatalogHandler) Cities(w http.ResponseWriter, r *http.Request) {
	ms, err := h.svc.Cities(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *CatalogHandler) ImportMarkets(w http.ResponseWriter, r *http.Request) {
	var req catalog.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	if len(req.Markets) == 0 {
		writeAppError(w, h.logger, r, errors.InvalidParam("markets is required"))
		return
	}

	res, err := h.svc.Import(r.Context(), req)
	if err != nil {
		if res != nil && len(res.Violations) > 0 {
			code := errors.GetCode(err)
			writeJSON(w, errors.HTTPStatusForCode(code), importFailure{
				ErrorResponse: ErrorResponse{Code: string(code), Message: "market hierarchy violated"},
				Violations:    res.Violations,
			})
			return
		}
		writeAppError(w, h.logger, r, err)
		return
	}

	status := http.StatusCreated
	if res.DryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *CatalogHandler) BulkDeleteMarkets(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	if len(req.IDs) == 0 {
		writeAppError(w, h.logger, r, errors.InvalidParam("ids is required"))
		return
	}

	res, err := h.svc.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), in)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListCoverage filters by product, market (both comma lists) and metric.
func (h *CatalogHandler) ListCoverage(w http.ResponseWriter, r *http.Request) {
	metric, err := coverage.ParseMetric(r.URL.Query().Get("metric"), "")
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	cells, err := h.svc.ListCells(r.Context(), coverage.Filter{
		ProductIDs: queryList(r, "product"),
		MarketIDs:  queryList(r, "market"),
		Metric:     metric,
	})
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cells)
}

func (h *CatalogHandler) PutCoverage(w http.ResponseWriter, r *http.Request) {
	var in catalog.CellInput
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	c, err := h.svc.UpsertCell(r.Context(), in)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
