package blocker

import (
	"strings"
	"time"

	"github.com/turtacn/launch-radar/pkg/errors"
)

// BulkUpdatePatch edits several blockers at once. Nil fields are left
// untouched; ClearETA removes the ETA and cannot be combined with ETA.
type BulkUpdatePatch struct {
	IDs       []string   `json:"ids"`
	Owner     *string    `json:"owner,omitempty"`
	Category  *string    `json:"category,omitempty"`
	Note      *string    `json:"note,omitempty"`
	JiraURL   *string    `json:"jira_url,omitempty"`
	ETA       *time.Time `json:"eta,omitempty"`
	ClearETA  bool       `json:"clear_eta,omitempty"`
	Escalated *bool      `json:"escalated,omitempty"`
	Resolved  *bool      `json:"resolved,omitempty"`
}

func (p BulkUpdatePatch) empty() bool {
	return p.Owner == nil && p.Category == nil && p.Note == nil && p.JiraURL == nil &&
		p.ETA == nil && !p.ClearETA && p.Escalated == nil && p.Resolved == nil
}

func (p BulkUpdatePatch) Validate() error {
	if len(p.IDs) == 0 {
		return errors.New(errors.ErrCodeBlockerPatch, "at least one blocker id is required")
	}
	for _, id := range p.IDs {
		if strings.TrimSpace(id) == "" {
			return errors.New(errors.ErrCodeBlockerPatch, "blocker ids must not be empty")
		}
	}
	if p.empty() {
		return errors.New(errors.ErrCodeBlockerPatch, "patch changes no fields")
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return errors.New(errors.ErrCodeBlockerPatch, "category cannot be cleared")
	}
	if p.ETA != nil && p.ClearETA {
		return errors.New(errors.ErrCodeBlockerPatch, "eta and clear_eta are mutually exclusive")
	}
	if p.JiraURL != nil {
		if err := validateJiraURL(*p.JiraURL); err != nil {
			return errors.Wrap(err, errors.ErrCodeBlockerPatch, "invalid jira_url")
		}
	}
	return nil
}

// Apply writes the patch onto b. Any edit clears the stale flag.
func (p BulkUpdatePatch) Apply(b *Blocker, now time.Time) {
	if p.Owner != nil {
		b.Owner = *p.Owner
	}
	if p.Category != nil {
		b.Category = strings.TrimSpace(*p.Category)
	}
	if p.Note != nil {
		b.Note = *p.Note
	}
	if p.JiraURL != nil {
		b.JiraURL = *p.JiraURL
	}
	if p.ETA != nil {
		eta := *p.ETA
		b.ETA = &eta
	}
	if p.ClearETA {
		b.ETA = nil
	}
	if p.Escalated != nil {
		b.Escalated = *p.Escalated
	}
	if p.Resolved != nil {
		b.Resolved = *p.Resolved
	}
	b.Stale = false
	b.UpdatedAt = now
}
