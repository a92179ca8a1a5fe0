// Package blockers implements the blocker write and read use cases: create,
// bulk edit, resolve, list, the per-product summary and the stale sweep run
// by the worker.
package blockers

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/launch-radar/internal/application/dashboard"
	"github.com/turtacn/launch-radar/internal/application/events"
	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/domain/overlay"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

// DefaultStaleAfter is used when Deps.StaleAfter is zero.
const DefaultStaleAfter = 14 * 24 * time.Hour

// Service is the blocker use-case surface.
type Service interface {
	// Create validates in and stores a new unresolved blocker.
	Create(ctx context.Context, in blocker.CreateInput) (*blocker.Blocker, error)

	// BulkUpdate applies one patch to every listed blocker. All ids must exist.
	BulkUpdate(ctx context.Context, p blocker.BulkUpdatePatch) ([]*blocker.Blocker, error)

	// Resolve marks one blocker resolved.
	Resolve(ctx context.Context, id string) (*blocker.Blocker, error)

	List(ctx context.Context, f blocker.Filter) ([]*blocker.Blocker, error)

	// Summary joins the unresolved blockers of a product into display lines.
	Summary(ctx context.Context, productID string) (*ProductSummary, error)

	// SweepStale flags unresolved blockers untouched for longer than the
	// configured window. It runs without a user.
	SweepStale(ctx context.Context) (int, error)
}

// ProductSummary is the blocker summary of one product across markets.
type ProductSummary struct {
	ProductID string   `json:"product_id"`
	Count     int      `json:"count"`
	Lines     []string `json:"lines"`
	Text      string   `json:"text"`
}

// Recorder counts blocker operations.
type Recorder interface {
	RecordBlockerOp(op string, err error)
	RecordStaleMarked(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordBlockerOp(string, error) {}
func (nopRecorder) RecordStaleMarked(int)         {}

// Deps are the collaborators of the service. Repo, Authz and Logger are required.
type Deps struct {
	Repo        blocker.Repository
	Authz       user.Authorizer
	Events      *events.Emitter
	Notify      notify.Sink
	Metrics     Recorder
	Invalidator dashboard.Invalidator
	Logger      logging.Logger
	Now         func() time.Time
	StaleAfter  time.Duration
}

type serviceImpl struct {
	repo        blocker.Repository
	authz       user.Authorizer
	events      *events.Emitter
	sink        notify.Sink
	metrics     Recorder
	invalidator dashboard.Invalidator
	logger      logging.Logger
	now         func() time.Time
	staleAfter  time.Duration
}

// NewService checks the required dependencies and fills defaults.
func NewService(d Deps) (Service, error) {
	if d.Repo == nil {
		return nil, errors.InvalidParam("blocker repository is required")
	}
	if d.Authz == nil {
		return nil, errors.InvalidParam("authorizer is required")
	}
	if d.Logger == nil {
		return nil, errors.InvalidParam("logger is required")
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.StaleAfter <= 0 {
		d.StaleAfter = DefaultStaleAfter
	}
	return &serviceImpl{
		repo:        d.Repo,
		authz:       d.Authz,
		events:      d.Events,
		sink:        notify.OrNop(d.Notify),
		metrics:     d.Metrics,
		invalidator: d.Invalidator,
		logger:      d.Logger.Named("blockers"),
		now:         d.Now,
		staleAfter:  d.StaleAfter,
	}, nil
}

func (s *serviceImpl) invalidate() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

func (s *serviceImpl) Create(ctx context.Context, in blocker.CreateInput) (*blocker.Blocker, error) {
	u, err := s.authz.Authorize(ctx, user.PermBlockerWrite)
	if err != nil {
		return nil, err
	}
	b, err := blocker.NewBlocker(in, s.now().UTC())
	if err != nil {
		return nil, err
	}

	err = s.repo.Create(ctx, b)
	s.metrics.RecordBlockerOp("create", err)
	if err != nil {
		s.logger.Error("failed to create blocker",
			logging.String("product_id", b.ProductID),
			logging.String("market_id", b.MarketID),
			logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, b.ProductID, "Could not save blocker", err)
		return nil, err
	}

	s.logger.Info("blocker created",
		logging.String("blocker_id", b.ID),
		logging.String("product_id", b.ProductID),
		logging.String("market_id", b.MarketID),
		logging.String("actor", u.ID))
	s.invalidate()
	s.events.Emit(ctx, common.EventBlockerCreated, b.ID, u.ID, b)
	notify.Success(ctx, s.sink, u.ID, b.ID, "Blocker saved")
	return b, nil
}

func (s *serviceImpl) BulkUpdate(ctx context.Context, p blocker.BulkUpdatePatch) ([]*blocker.Blocker, error) {
	u, err := s.authz.Authorize(ctx, user.PermBlockerWrite)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ids := dedupe(p.IDs)

	found, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		s.metrics.RecordBlockerOp("bulk_update", err)
		notify.Failure(ctx, s.sink, u.ID, "", "Could not load blockers", err)
		return nil, err
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		err := errors.Newf(errors.ErrCodeBlockerNotFound, "%d blocker(s) not found", len(missing)).
			WithDetail(strings.Join(missing, ","))
		s.metrics.RecordBlockerOp("bulk_update", err)
		return nil, err
	}

	now := s.now().UTC()
	updated := make([]*blocker.Blocker, 0, len(found))
	for _, b := range found {
		p.Apply(b, now)
		if err := s.repo.Update(ctx, b); err != nil {
			s.metrics.RecordBlockerOp("bulk_update", err)
			s.logger.Error("bulk update stopped",
				logging.String("blocker_id", b.ID),
				logging.Int("applied", len(updated)),
				logging.Int("requested", len(found)),
				logging.Err(err))
			if len(updated) > 0 {
				s.invalidate()
			}
			notify.Failure(ctx, s.sink, u.ID, b.ID, "Bulk edit partially applied", err)
			return updated, err
		}
		updated = append(updated, b)
	}

	s.metrics.RecordBlockerOp("bulk_update", nil)
	s.logger.Info("blockers updated", logging.Int("count", len(updated)), logging.String("actor", u.ID))
	s.invalidate()
	for _, b := range updated {
		s.events.Emit(ctx, common.EventBlockerUpdated, b.ID, u.ID, b)
	}
	notify.Success(ctx, s.sink, u.ID, "", "Blockers updated")
	return updated, nil
}

func (s *serviceImpl) Resolve(ctx context.Context, id string) (*blocker.Blocker, error) {
	u, err := s.authz.Authorize(ctx, user.PermBlockerWrite)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errors.New(errors.ErrCodeBlockerInvalid, "blocker id is required")
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Resolved {
		return b, nil
	}
	b.Resolve(s.now().UTC())

	err = s.repo.Update(ctx, b)
	s.metrics.RecordBlockerOp("resolve", err)
	if err != nil {
		s.logger.Error("failed to resolve blocker", logging.String("blocker_id", id), logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, id, "Could not resolve blocker", err)
		return nil, err
	}

	s.invalidate()
	s.events.Emit(ctx, common.EventBlockerResolved, b.ID, u.ID, b)
	notify.Success(ctx, s.sink, u.ID, b.ID, "Blocker resolved")
	return b, nil
}

func (s *serviceImpl) List(ctx context.Context, f blocker.Filter) ([]*blocker.Blocker, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

func (s *serviceImpl) Summary(ctx context.Context, productID string) (*ProductSummary, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, errors.InvalidParam("product id is required")
	}
	list, err := s.repo.List(ctx, blocker.Filter{ProductIDs: []string{productID}, UnresolvedOnly: true})
	if err != nil {
		return nil, err
	}

	ov := overlay.New(list, nil)
	active := ov.ActiveForProduct(productID)
	lines := make([]string, len(active))
	for i, b := range active {
		lines[i] = b.SummaryLine()
	}
	return &ProductSummary{
		ProductID: productID,
		Count:     len(active),
		Lines:     lines,
		Text:      ov.GetProductBlockerSummary(productID),
	}, nil
}

// stalePayload is the body of a blocker.stale event.
type stalePayload struct {
	IDs    []string  `json:"ids"`
	Before time.Time `json:"before"`
}

func (s *serviceImpl) SweepStale(ctx context.Context) (int, error) {
	before := s.now().UTC().Add(-s.staleAfter)
	candidates, err := s.repo.ListStale(ctx, before)
	if err != nil {
		s.metrics.RecordBlockerOp("sweep", err)
		return 0, err
	}
	if len(candidates) == 0 {
		s.metrics.RecordBlockerOp("sweep", nil)
		return 0, nil
	}

	ids := make([]string, len(candidates))
	for i, b := range candidates {
		ids[i] = b.ID
	}
	n, err := s.repo.MarkStale(ctx, ids)
	s.metrics.RecordBlockerOp("sweep", err)
	if err != nil {
		s.logger.Error("failed to mark blockers stale", logging.Int("candidates", len(ids)), logging.Err(err))
		return 0, err
	}

	s.metrics.RecordStaleMarked(n)
	s.logger.Info("stale blockers flagged", logging.Int("count", n), logging.Time("before", before))
	if n > 0 {
		s.invalidate()
		s.events.Emit(ctx, common.EventBlockerStale, "sweep", "", stalePayload{IDs: ids, Before: before})
	}
	return n, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(want []string, got []*blocker.Blocker) []string {
	have := make(map[string]struct{}, len(got))
	for _, b := range got {
		have[b.ID] = struct{}{}
	}
	var missing []string
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
