package escalation

import "context"

// Filter narrows an escalation listing.
type Filter struct {
	ProductIDs []string
	Statuses   []Status
	OpenOnly   bool
}

// Repository persists escalations. UpdateStatus writes status, aligned_at
// and resolved_at only.
type Repository interface {
	Create(ctx context.Context, e *Escalation) error
	GetByID(ctx context.Context, id string) (*Escalation, error)
	List(ctx context.Context, f Filter) ([]*Escalation, error)
	UpdateStatus(ctx context.Context, e *Escalation) error
}

// HistoryRepository is append-only.
type HistoryRepository interface {
	Append(ctx context.Context, h *HistoryEntry) error
	ListByEscalation(ctx context.Context, escalationID string) ([]*HistoryEntry, error)
}
