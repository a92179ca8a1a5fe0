// Package catalog administers the reference data behind the radar: the
// market forest, products and coverage cells.
package catalog

import (
	"context"
	"time"

	"github.com/turtacn/launch-radar/internal/application/dashboard"
	"github.com/turtacn/launch-radar/internal/application/events"
	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// MarketCache is the cache in front of the market repository.
type MarketCache interface {
	Invalidate(ctx context.Context)
}

type Deps struct {
	Markets     market.Repository
	Products    product.Repository
	Coverage    coverage.Repository
	MarketCache MarketCache
	Authz       user.Authorizer
	Events      *events.Emitter
	Notify      notify.Sink
	Invalidator dashboard.Invalidator
	Logger      logging.Logger
	Now         func() time.Time
}

// Service holds the catalog use cases. Reads need radar:read; market and
// product writes are admin only; coverage writes need editor.
type Service struct {
	markets     market.Repository
	products    product.Repository
	coverage    coverage.Repository
	marketCache MarketCache
	authz       user.Authorizer
	events      *events.Emitter
	sink        notify.Sink
	invalidator dashboard.Invalidator
	logger      logging.Logger
	now         func() time.Time
}

func NewService(d Deps) (*Service, error) {
	switch {
	case d.Markets == nil:
		return nil, errors.InvalidParam("market repository is required")
	case d.Products == nil:
		return nil, errors.InvalidParam("product repository is required")
	case d.Coverage == nil:
		return nil, errors.InvalidParam("coverage repository is required")
	case d.Authz == nil:
		return nil, errors.InvalidParam("authorizer is required")
	case d.Logger == nil:
		return nil, errors.InvalidParam("logger is required")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		markets:     d.Markets,
		products:    d.Products,
		coverage:    d.Coverage,
		marketCache: d.MarketCache,
		authz:       d.Authz,
		events:      d.Events,
		sink:        notify.OrNop(d.Notify),
		invalidator: d.Invalidator,
		logger:      d.Logger.Named("catalog"),
		now:         d.Now,
	}, nil
}

func (s *Service) invalidateState() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

func (s *Service) invalidateMarkets(ctx context.Context) {
	if s.marketCache != nil {
		s.marketCache.Invalidate(ctx)
	}
	s.invalidateState()
}
