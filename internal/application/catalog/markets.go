package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/turtacn/launch-radar/internal/application/dashboard"
	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

// MarketQuery selects one drill level. See dashboard.ResolveLevel.
type MarketQuery struct {
	Level    market.Level
	ParentID string
}

// ImportRequest is a batch of new markets. With DryRun set the batch is only
// validated.
type ImportRequest struct {
	Markets []*market.Market `json:"markets"`
	DryRun  bool             `json:"dry_run,omitempty"`
}

type ImportResult struct {
	Created    int                `json:"created"`
	DryRun     bool               `json:"dry_run,omitempty"`
	Violations []market.Violation `json:"violations,omitempty"`
}

type DeleteResult struct {
	Deleted int `json:"deleted"`
}

func (s *Service) hierarchy(ctx context.Context) (*market.Hierarchy, error) {
	all, err := s.markets.List(ctx)
	if err != nil {
		return nil, err
	}
	return market.NewHierarchy(all), nil
}

func (s *Service) ListMarkets(ctx context.Context, q MarketQuery) ([]*market.Market, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	h, err := s.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	level, err := dashboard.ResolveLevel(h, q.Level, q.ParentID)
	if err != nil {
		return nil, err
	}
	return dashboard.VisibleMarkets(h, level, q.ParentID), nil
}

// Ancestors returns the market followed by its parents up to the root.
func (s *Service) Ancestors(ctx context.Context, id string) ([]*market.Market, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	h, err := s.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	chain := h.GetAncestorChain(id)
	if len(chain) == 0 {
		return nil, errors.New(errors.ErrCodeMarketNotFound, "market not found").WithDetail(id)
	}
	return chain, nil
}

// Cities returns every city under id, ordered by name.
func (s *Service) Cities(ctx context.Context, id string) ([]*market.Market, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	h, err := s.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := h.Get(id); !ok {
		return nil, errors.New(errors.ErrCodeMarketNotFound, "market not found").WithDetail(id)
	}
	cities := h.GetDescendantCities(id)
	market.SortByName(cities)
	return cities, nil
}

// Import validates the batch against the stored forest and creates it.
// Any forest violation rejects the whole batch.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	u, err := s.authz.Authorize(ctx, user.PermCatalogWrite)
	if err != nil {
		return nil, err
	}
	if len(req.Markets) == 0 {
		return nil, errors.InvalidParam("no markets to import")
	}

	existing, err := s.markets.List(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, m := range existing {
		known[m.ID] = true
	}
	batch := make(map[string]bool, len(req.Markets))
	now := s.now().UTC()
	for _, m := range req.Markets {
		if m == nil {
			return nil, errors.InvalidParam("null market in batch")
		}
		m.ID = strings.TrimSpace(m.ID)
		if known[m.ID] || batch[m.ID] {
			return nil, errors.New(errors.ErrCodeMarketAlreadyExists, "market already exists").WithDetail(m.ID)
		}
		batch[m.ID] = true
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
	}

	combined := append(append([]*market.Market{}, existing...), req.Markets...)
	var violations []market.Violation
	for _, v := range market.NewHierarchy(combined).Violations() {
		if batch[v.MarketID] {
			violations = append(violations, v)
		}
	}
	res := &ImportResult{DryRun: req.DryRun, Violations: violations}
	if len(violations) > 0 {
		return res, errors.Newf(errors.ErrCodeMarketHierarchy, "%d market(s) break the hierarchy", len(violations)).
			WithDetail(violationDetail(violations))
	}
	if req.DryRun {
		return res, nil
	}

	n, err := s.markets.BulkCreate(ctx, req.Markets)
	if err != nil {
		s.logger.Error("market import failed", logging.Int("batch", len(req.Markets)), logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, "", "Market import failed", err)
		return nil, err
	}
	res.Created = n

	s.logger.Info("markets imported", logging.Int("created", n), logging.String("actor", u.ID))
	s.invalidateMarkets(ctx)
	s.events.Emit(ctx, common.EventMarketsImported, "markets", u.ID, map[string]int{"created": n})
	notify.Success(ctx, s.sink, u.ID, "", fmt.Sprintf("Imported %d markets", n))
	return res, nil
}

func violationDetail(vs []market.Violation) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// BulkDelete removes markets. Deleting a market whose children are not part
// of the same request is a conflict, so the forest never gets orphans.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (*DeleteResult, error) {
	u, err := s.authz.Authorize(ctx, user.PermCatalogWrite)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.InvalidParam("no market ids given")
	}

	h, err := s.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := h.Get(id); !ok {
			return nil, errors.New(errors.ErrCodeMarketNotFound, "market not found").WithDetail(id)
		}
		doomed[id] = true
	}
	for id := range doomed {
		for _, child := range h.Children(id) {
			if !doomed[child.ID] {
				return nil, errors.Newf(errors.ErrCodeConflict, "market %s still has child %s", id, child.ID).
					WithDetail(child.ID)
			}
		}
	}

	n, err := s.markets.BulkDelete(ctx, ids)
	if err != nil {
		s.logger.Error("market delete failed", logging.Int("requested", len(ids)), logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, "", "Market delete failed", err)
		return nil, err
	}

	s.logger.Warn("markets deleted", logging.Int("deleted", n), logging.Strings("ids", ids), logging.String("actor", u.ID))
	s.invalidateMarkets(ctx)
	s.events.Emit(ctx, common.EventMarketsDeleted, "markets", u.ID, map[string][]string{"ids": ids})
	notify.Success(ctx, s.sink, u.ID, "", fmt.Sprintf("Deleted %d markets", n))
	return &DeleteResult{Deleted: n}, nil
}
