package catalog

import (
	"context"

	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/domain/product"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

func (s *Service) ListProducts(ctx context.Context) ([]*product.Product, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	return s.products.List(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in product.Input) (*product.Product, error) {
	u, err := s.authz.Authorize(ctx, user.PermCatalogWrite)
	if err != nil {
		return nil, err
	}
	p, err := product.NewProduct(in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		s.logger.Error("failed to create product", logging.String("name", p.Name), logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, "", "Could not create product", err)
		return nil, err
	}
	s.invalidateState()
	s.events.Emit(ctx, common.EventProductChanged, p.ID, u.ID, p)
	notify.Success(ctx, s.sink, u.ID, p.ID, "Product created")
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in product.Input) (*product.Product, error) {
	u, err := s.authz.Authorize(ctx, user.PermCatalogWrite)
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(in, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		s.logger.Error("failed to update product", logging.String("product_id", id), logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, id, "Could not update product", err)
		return nil, err
	}
	s.invalidateState()
	s.events.Emit(ctx, common.EventProductChanged, p.ID, u.ID, p)
	notify.Success(ctx, s.sink, u.ID, p.ID, "Product updated")
	return p, nil
}
