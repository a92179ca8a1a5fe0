package escalation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/launch-radar/pkg/errors"
)

// HistoryEntry is an append-only audit row for one status change. OldStatus
// is empty for the row written when the escalation is raised.
type HistoryEntry struct {
	ID           string    `json:"id"`
	EscalationID string    `json:"esc_id"`
	OldStatus    Status    `json:"old_status,omitempty"`
	NewStatus    Status    `json:"new_status"`
	Actor        string    `json:"actor"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func newHistoryEntry(escID string, old, next Status, actor, notes string, now time.Time) *HistoryEntry {
	return &HistoryEntry{
		ID:           uuid.NewString(),
		EscalationID: escID,
		OldStatus:    old,
		NewStatus:    next,
		Actor:        actor,
		Notes:        notes,
		CreatedAt:    now,
	}
}

// RaisedEntry is the history row recorded right after an escalation is created.
func RaisedEntry(e *Escalation) *HistoryEntry {
	return newHistoryEntry(e.ID, "", e.Status, e.RaisedBy, "", e.CreatedAt)
}

// StatusChangePatch is an administrator's request to move an escalation.
type StatusChangePatch struct {
	Status Status `json:"status"`
	Actor  string `json:"-"`
	Notes  string `json:"notes,omitempty"`
}

func (p StatusChangePatch) Validate() error {
	if !p.Status.Valid() {
		return errors.New(errors.ErrCodeEscalationInvalid, "unknown status").WithDetail(string(p.Status))
	}
	if strings.TrimSpace(p.Actor) == "" {
		return errors.New(errors.ErrCodeEscalationInvalid, "actor is required")
	}
	return nil
}
