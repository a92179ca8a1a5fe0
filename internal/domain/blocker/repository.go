package blocker

import (
	"context"
	"time"
)

// Filter narrows a blocker listing. Empty slices match everything.
type Filter struct {
	ProductIDs     []string
	MarketIDs      []string
	UnresolvedOnly bool
}

// Repository persists blockers. There is no delete.
type Repository interface {
	Create(ctx context.Context, b *Blocker) error
	GetByID(ctx context.Context, id string) (*Blocker, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Blocker, error)
	List(ctx context.Context, f Filter) ([]*Blocker, error)
	Update(ctx context.Context, b *Blocker) error
	// ListStale returns unresolved, not yet stale blockers untouched since before.
	ListStale(ctx context.Context, before time.Time) ([]*Blocker, error)
	MarkStale(ctx context.Context, ids []string) (int, error)
}
