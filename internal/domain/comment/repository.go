package comment

import "context"

// Filter narrows a comment listing. Empty fields match everything.
type Filter struct {
	ProductIDs []string
	CityIDs    []string
	Status     Status
}

// Repository persists comments.
type Repository interface {
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, id string) (*Comment, error)
	List(ctx context.Context, f Filter) ([]*Comment, error)
	Update(ctx context.Context, c *Comment) error
}
