// Package blocker records why a product cannot launch in a market.
package blocker

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/launch-radar/pkg/errors"
)

// ETALayout is the date format used for ETAs in summaries and the API.
const ETALayout = "2006-01-02"

// Blocker is one open or historical issue for a product-market pair.
// Blockers are never hard-deleted; resolved ones stay as history.
type Blocker struct {
	ID        string     `json:"id"`
	ProductID string     `json:"product_id"`
	MarketID  string     `json:"market_id"`
	Category  string     `json:"category"`
	Owner     string     `json:"owner"`
	ETA       *time.Time `json:"eta,omitempty"`
	Note      string     `json:"note"`
	JiraURL   string     `json:"jira_url,omitempty"`
	Escalated bool       `json:"escalated"`
	Resolved  bool       `json:"resolved"`
	Stale     bool       `json:"stale"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateInput carries the user-supplied fields of a new blocker.
type CreateInput struct {
	ProductID string     `json:"product_id"`
	MarketID  string     `json:"market_id"`
	Category  string     `json:"category"`
	Owner     string     `json:"owner"`
	ETA       *time.Time `json:"eta,omitempty"`
	Note      string     `json:"note"`
	JiraURL   string     `json:"jira_url,omitempty"`
}

// Validate runs before any repository call.
func (in CreateInput) Validate() error {
	switch {
	case strings.TrimSpace(in.ProductID) == "":
		return errors.New(errors.ErrCodeBlockerInvalid, "product_id is required")
	case strings.TrimSpace(in.MarketID) == "":
		return errors.New(errors.ErrCodeBlockerInvalid, "market_id is required")
	case strings.TrimSpace(in.Category) == "":
		return errors.New(errors.ErrCodeBlockerInvalid, "category is required")
	}
	return validateJiraURL(in.JiraURL)
}

func validateJiraURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ErrCodeBlockerInvalid, "jira_url must be an absolute http(s) URL").WithDetail(raw)
	}
	return nil
}

// NewBlocker validates in and returns an unresolved, non-stale blocker.
func NewBlocker(in CreateInput, now time.Time) (*Blocker, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &Blocker{
		ID:        uuid.NewString(),
		ProductID: strings.TrimSpace(in.ProductID),
		MarketID:  strings.TrimSpace(in.MarketID),
		Category:  strings.TrimSpace(in.Category),
		Owner:     in.Owner,
		ETA:       in.ETA,
		Note:      in.Note,
		JiraURL:   in.JiraURL,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Active reports whether the blocker still blocks its pair.
func (b *Blocker) Active() bool { return !b.Resolved }

// SummaryLine renders "[category] note (ETA: date)" with TBD for a missing ETA.
func (b *Blocker) SummaryLine() string {
	eta := "TBD"
	if b.ETA != nil {
		eta = b.ETA.Format(ETALayout)
	}
	return fmt.Sprintf("[%s] %s (ETA: %s)", b.Category, b.Note, eta)
}

// IsStale reports whether an unresolved blocker has not been touched
// within after.
func (b *Blocker) IsStale(now time.Time, after time.Duration) bool {
	return !b.Resolved && now.Sub(b.UpdatedAt) >= after
}

// Resolve marks the blocker resolved.
func (b *Blocker) Resolve(now time.Time) {
	b.Resolved = true
	b.Stale = false
	b.UpdatedAt = now
}
