// Package comments implements the per-cell question and answer thread.
package comments

import (
	"context"
	"time"

	"github.com/turtacn/launch-radar/internal/application/events"
	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/domain/comment"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

// Service is the comment use-case surface. Any signed-in role may ask;
// answering needs editor or above.
type Service interface {
	Ask(ctx context.Context, in comment.AskInput) (*comment.Comment, error)
	Answer(ctx context.Context, id, text string) (*comment.Comment, error)
	Get(ctx context.Context, id string) (*comment.Comment, error)
	List(ctx context.Context, f comment.Filter) ([]*comment.Comment, error)
}

// Recorder counts questions and answers.
type Recorder interface {
	RecordComment(op string)
}

type nopRecorder struct{}

func (nopRecorder) RecordComment(string) {}

type Deps struct {
	Repo    comment.Repository
	Authz   user.Authorizer
	Events  *events.Emitter
	Notify  notify.Sink
	Metrics Recorder
	Logger  logging.Logger
	Now     func() time.Time
}

type serviceImpl struct {
	repo    comment.Repository
	authz   user.Authorizer
	events  *events.Emitter
	sink    notify.Sink
	metrics Recorder
	logger  logging.Logger
	now     func() time.Time
}

func NewService(d Deps) (Service, error) {
	switch {
	case d.Repo == nil:
		return nil, errors.InvalidParam("comment repository is required")
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
		repo:    d.Repo,
		authz:   d.Authz,
		events:  d.Events,
		sink:    notify.OrNop(d.Notify),
		metrics: d.Metrics,
		logger:  d.Logger.Named("comments"),
		now:     d.Now,
	}, nil
}

func (s *serviceImpl) Ask(ctx context.Context, in comment.AskInput) (*comment.Comment, error) {
	u, err := s.authz.Authorize(ctx, user.PermCommentAsk)
	if err != nil {
		return nil, err
	}
	in.AuthorID = u.ID
	c, err := comment.NewComment(in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("failed to save question", logging.String("product_id", c.ProductID), logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, c.ProductID, "Could not post question", err)
		return nil, err
	}

	s.metrics.RecordComment("ask")
	s.events.Emit(ctx, common.EventCommentAsked, c.ID, u.ID, c)
	notify.Success(ctx, s.sink, u.ID, c.ID, "Question posted")
	return c, nil
}

func (s *serviceImpl) Answer(ctx context.Context, id, text string) (*comment.Comment, error) {
	u, err := s.authz.Authorize(ctx, user.PermCommentAnswer)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Answer(text, u.ID, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("failed to save answer", logging.String("comment_id", id), logging.Err(err))
		notify.Failure(ctx, s.sink, u.ID, id, "Could not post answer", err)
		return nil, err
	}

	s.metrics.RecordComment("answer")
	s.events.Emit(ctx, common.EventCommentAnswered, c.ID, u.ID, c)
	notify.Success(ctx, s.sink, u.ID, c.ID, "Answer posted")
	return c, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*comment.Comment, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *serviceImpl) List(ctx context.Context, f comment.Filter) ([]*comment.Comment, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	if f.Status != "" && f.Status != comment.StatusOpen && f.Status != comment.StatusAnswered {
		return nil, errors.New(errors.ErrCodeCommentInvalid, "status must be OPEN or ANSWERED")
	}
	return s.repo.List(ctx, f)
}
