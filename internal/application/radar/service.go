package radar

import (
	"context"
	"time"

	"github.com/turtacn/launch-radar/internal/application/dashboard"
	"github.com/turtacn/launch-radar/internal/domain/comment"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// StateSource returns the current dashboard state.
type StateSource interface {
	State(ctx context.Context) (*dashboard.State, error)
}

// View is the personal radar response.
type View struct {
	Filter        Filter           `json:"filter"`
	Markets       []*market.Market `json:"markets"`
	Rows          []RollupRow      `json:"rows"`
	FocusComment  *comment.Comment `json:"focus_comment,omitempty"`
	Warnings      []string         `json:"warnings,omitempty"`
	GeneratedAt   time.Time        `json:"generated_at"`
	StateLoadedAt time.Time        `json:"state_loaded_at"`
}

// Service serves the personal radar from the shared dashboard state.
type Service struct {
	states   StateSource
	comments comment.Repository
	authz    user.Authorizer
	logger   logging.Logger
	now      func() time.Time
}

// NewService returns a radar service. comments may be nil, in which case
// focusComment is ignored.
func NewService(states StateSource, comments comment.Repository, authz user.Authorizer, logger logging.Logger) *Service {
	return &Service{
		states:   states,
		comments: comments,
		authz:    authz,
		logger:   logger.Named("radar"),
		now:      time.Now,
	}
}

// Personal builds the radar for f. Unknown product, market or comment ids
// coming from a stale URL do not fail the request; they produce warnings.
func (s *Service) Personal(ctx context.Context, f Filter) (*View, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	st, err := s.states.State(ctx)
	if err != nil {
		return nil, err
	}
	h := st.Hierarchy()

	v := &View{Filter: f, GeneratedAt: s.now().UTC(), StateLoadedAt: st.LoadedAt()}

	scope := h.Markets()
	if f.PersonalView {
		scope = ResolveUserMarkets(f.Regions, f.Countries, scope)
	}
	if f.MarketID != "" {
		if _, ok := h.Get(f.MarketID); ok {
			scope = within(h, scope, f.MarketID)
		} else {
			v.Warnings = append(v.Warnings, "market "+f.MarketID+" not found")
		}
	}
	v.Markets = scope

	products := st.Products()
	if f.ProductID != "" {
		p, ok := st.GetProductByID(f.ProductID)
		if !ok {
			v.Warnings = append(v.Warnings, "product "+f.ProductID+" not found")
			p = &product.Product{ID: f.ProductID, Name: dashboard.UnknownLabel}
		}
		products = []*product.Product{p}
	}
	v.Rows = BuildProductBlockerRollup(scope, st.Blockers(), products)

	if f.FocusComment != "" && s.comments != nil {
		c, err := s.comments.GetByID(ctx, f.FocusComment)
		switch {
		case err == nil:
			v.FocusComment = c
		case errors.IsNotFound(err):
			v.Warnings = append(v.Warnings, "comment "+f.FocusComment+" not found")
		default:
			s.logger.Warn("focus comment lookup failed", logging.String("comment_id", f.FocusComment), logging.Err(err))
			v.Warnings = append(v.Warnings, "comment "+f.FocusComment+" unavailable")
		}
	}
	return v, nil
}

// within keeps the markets of scope that are rootID or sit below it.
func within(h *market.Hierarchy, scope []*market.Market, rootID string) []*market.Market {
	var out []*market.Market
	for _, m := range scope {
		for _, a := range h.GetAncestorChain(m.ID) {
			if a.ID == rootID {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
