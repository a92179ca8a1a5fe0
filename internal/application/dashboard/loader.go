package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/escalation"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// Repositories are the record sets a State is built from.
type Repositories struct {
	Markets     market.Repository
	Products    product.Repository
	Coverage    coverage.Repository
	Blockers    blocker.Repository
	Escalations escalation.Repository
}

// Loader fetches all record sets concurrently.
type Loader struct {
	repos   Repositories
	timeout time.Duration
	now     func() time.Time
}

func NewLoader(repos Repositories, timeout time.Duration) *Loader {
	return &Loader{repos: repos, timeout: timeout, now: time.Now}
}

// Load returns a new State, or the first error among the fetches. The other
// fetches are cancelled once one fails.
func (l *Loader) Load(ctx context.Context) (*State, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Markets, err = l.repos.Markets.List(gctx)
		return wrapLoad(err, "markets")
	})
	g.Go(func() (err error) {
		snap.Products, err = l.repos.Products.List(gctx)
		return wrapLoad(err, "products")
	})
	g.Go(func() (err error) {
		snap.Cells, err = l.repos.Coverage.List(gctx, coverage.Filter{})
		return wrapLoad(err, "coverage")
	})
	g.Go(func() (err error) {
		snap.Blockers, err = l.repos.Blockers.List(gctx, blocker.Filter{})
		return wrapLoad(err, "blockers")
	})
	g.Go(func() (err error) {
		snap.Escalations, err = l.repos.Escalations.List(gctx, escalation.Filter{})
		return wrapLoad(err, "escalations")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewState(snap, l.now().UTC()), nil
}

func wrapLoad(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.GetCode(err) != errors.CodeUnknown {
		return err
	}
	return errors.Wrap(err, errors.ErrCodeDatabaseError, "load "+what)
}
