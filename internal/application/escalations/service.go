// Package escalations implements raising escalations and the administrator
// status workflow. The escalation write and its history append are two
// separate repository calls; when the append fails the escalation stands
// and the result reports HistoryRecorded=false.
package escalations

import (
	"context"
	"time"

	"github.com/turtacn/launch-radar/internal/application/dashboard"
	"github.com/turtacn/launch-radar/internal/application/events"
	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/domain/escalation"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

// Service is the escalation use-case surface.
type Service interface {
	// Raise creates a SUBMITTED escalation and appends its first history row.
	Raise(ctx context.Context, in escalation.RaiseInput) (*Result, error)

	// ChangeStatus moves an escalation along the transition table and
	// appends exactly one history row. Admin only.
	ChangeStatus(ctx context.Context, id string, p escalation.StatusChangePatch) (*Result, error)

	Get(ctx context.Context, id string) (*Detail, error)
	List(ctx context.Context, f escalation.Filter) ([]*escalation.Escalation, error)
	History(ctx context.Context, id string) ([]*escalation.HistoryEntry, error)
}

// Result is returned by the write operations.
type Result struct {
	Escalation      *escalation.Escalation   `json:"escalation"`
	History         *escalation.HistoryEntry `json:"history,omitempty"`
	HistoryRecorded bool                     `json:"history_recorded"`
}

// Detail is an escalation with the workflow hints the admin screen shows.
type Detail struct {
	Escalation *escalation.Escalation `json:"escalation"`
	Allowed    []escalation.Status    `json:"allowed_transitions"`
	Next       escalation.Status      `json:"next_status,omitempty"`
}

// Recorder counts transitions and history gaps.
type Recorder interface {
	RecordTransition(from, to string)
	RecordHistoryMissing(op string)
}

type nopRecorder struct{}

func (nopRecorder) RecordTransition(string, string) {}
func (nopRecorder) RecordHistoryMissing(string)     {}

// Deps are the collaborators of the service. Repo, History, Authz and Logger
// are required.
type Deps struct {
	Repo        escalation.Repository
	History     escalation.HistoryRepository
	Authz       user.Authorizer
	Events      *events.Emitter
	Notify      notify.Sink
	Metrics     Recorder
	Invalidator dashboard.Invalidator
	Logger      logging.Logger
	Now         func() time.Time
}

type serviceImpl struct {
	repo        escalation.Repository
	history     escalation.HistoryRepository
	authz       user.Authorizer
	events      *events.Emitter
	sink        notify.Sink
	metrics     Recorder
	invalidator dashboard.Invalidator
	logger      logging.Logger
	now         func() time.Time
}

func NewService(d Deps) (Service, error) {
	switch {
	case d.Repo == nil:
		return nil, errors.InvalidParam("escalation repository is required")
	case d.History == nil:
		return nil, errors.InvalidParam("history repository is required")
	case d.Authz == nil:
		return nil, errors.InvalidParam("authorizer is required")
	case d.Logger == nil:
		return nil, errors.InvalidParam("logger is required")
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &serviceImpl{
		repo:        d.Repo,
		history:     d.History,
		authz:       d.Authz,
		events:      d.Events,
		sink:        notify.OrNop(d.Notify),
		metrics:     d.Metrics,
		invalidator: d.Invalidator,
		logger:      d.Logger.Named("escalations"),
		now:         d.Now,
	}, nil
}

func (s *serviceImpl) Raise(ctx context.Context, in escalation.RaiseInput) (*Result, error) {
	u, err := s.authz.Authorize(ctx, user.PermEscalationRaise)
	if err != nil {
		return nil, err
	}
	in.RaisedBy = u.ID
	e, err := escalation.NewEscalation(in, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.Error("failed to raise escalation", logging.String("product_id", e.ProductID), logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, e.ProductID, "Could not raise escalation", err)
		return nil, err
	}
	s.invalidate()
	s.events.Emit(ctx, common.EventEscalationRaised, e.ID, u.ID, e)

	res := &Result{Escalation: e}
	s.appendHistory(ctx, "raise", u.ID, escalation.RaisedEntry(e), res)
	if res.HistoryRecorded {
		notify.Success(ctx, s.sink, u.ID, e.ID, "Escalation raised")
	}
	return res, nil
}

func (s *serviceImpl) ChangeStatus(ctx context.Context, id string, p escalation.StatusChangePatch) (*Result, error) {
	u, err := s.authz.Authorize(ctx, user.PermEscalationStatus)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errors.New(errors.ErrCodeEscalationInvalid, "escalation id is required")
	}
	p.Actor = u.ID
	if err := p.Validate(); err != nil {
		return nil, err
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := e.Status
	entry, err := e.ApplyStatusChange(p, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, e); err != nil {
		s.logger.Error("failed to update escalation status",
			logging.String("esc_id", id),
			logging.String("from", string(old)),
			logging.String("to", string(p.Status)),
			logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, id, "Could not change escalation status", err)
		return nil, err
	}
	s.metrics.RecordTransition(string(old), string(p.Status))
	s.logger.Info("escalation status changed",
		logging.String("esc_id", id),
		logging.String("from", string(old)),
		logging.String("to", string(p.Status)),
		logging.String("actor", u.ID))
	s.invalidate()
	s.events.Emit(ctx, common.EventEscalationStatusChanged, e.ID, u.ID, entry)

	res := &Result{Escalation: e}
	s.appendHistory(ctx, "status_change", u.ID, entry, res)
	if res.HistoryRecorded {
		notify.Success(ctx, s.sink, u.ID, e.ID, "Escalation moved to "+string(p.Status))
	}
	return res, nil
}

// appendHistory writes entry and records the outcome on res. A failure is
// not returned: the escalation write has already happened.
func (s *serviceImpl) appendHistory(ctx context.Context, op, actor string, entry *escalation.HistoryEntry, res *Result) {
	res.History = entry
	if err := s.history.Append(ctx, entry); err != nil {
		res.HistoryRecorded = false
		s.metrics.RecordHistoryMissing(op)
		s.logger.Error("escalation history not recorded",
			logging.String("esc_id", entry.EscalationID),
			logging.String("operation", op),
			logging.String("new_status", string(entry.NewStatus)),
			logging.Err(err))
		notify.Warning(ctx, s.sink, actor, entry.EscalationID, "Escalation saved without history",
			"The change was saved but its audit entry could not be written.")
		s.events.Emit(ctx, common.EventEscalationHistoryMissing, entry.EscalationID, actor, entry)
		return
	}
	res.HistoryRecorded = true
}

func (s *serviceImpl) invalidate() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*Detail, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{Escalation: e, Allowed: escalation.AllowedTransitions(e.Status)}
	if next, ok := escalation.NextStatus(e.Status); ok {
		d.Next = next
	}
	return d, nil
}

func (s *serviceImpl) List(ctx context.Context, f escalation.Filter) ([]*escalation.Escalation, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, errors.New(errors.ErrCodeEscalationInvalid, "unknown status").WithDetail(string(st))
		}
	}
	return s.repo.List(ctx, f)
}

func (s *serviceImpl) History(ctx context.Context, id string) ([]*escalation.HistoryEntry, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.history.ListByEscalation(ctx, id)
}
