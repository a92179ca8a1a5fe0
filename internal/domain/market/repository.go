package market

import "context"

// Repository persists markets. Markets are seeded in bulk and removed only
// through administrative bulk deletes.
type Repository interface {
	List(ctx context.Context) ([]*Market, error)
	GetByID(ctx context.Context, id string) (*Market, error)
	BulkCreate(ctx context.Context, markets []*Market) (int, error)
	BulkDelete(ctx context.Context, ids []string) (int, error)
}
