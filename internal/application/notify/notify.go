// Package notify delivers user-visible success and error messages. Delivery
// is fire-and-forget: callers never consume a result.
package notify

import (
	"context"
	"time"

	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

// Sink receives notifications. Implementations must not block for long and
// must swallow their own errors.
type Sink interface {
	Notify(ctx context.Context, n common.Notification)
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, common.Notification) {}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logger.Named("notify")}
}

func (s *LogSink) Notify(_ context.Context, n common.Notification) {
	fields := []logging.Field{
		logging.String("level", string(n.Level)),
		logging.String("title", n.Title),
		logging.String("actor", n.Actor),
	}
	if n.Subject != "" {
		fields = append(fields, logging.String("subject", n.Subject))
	}
	if n.Message != "" {
		fields = append(fields, logging.String("message", n.Message))
	}

	switch n.Level {
	case common.NotifyError:
		s.logger.Error("notification", fields...)
	case common.NotifyWarning:
		s.logger.Warn("notification", fields...)
	default:
		s.logger.Info("notification", fields...)
	}
}

type multi []Sink

// Multi fans a notification out to every non-nil sink.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Notify(ctx context.Context, n common.Notification) {
	for _, s := range m {
		s.Notify(ctx, n)
	}
}

// Success sends a success notification.
func Success(ctx context.Context, s Sink, actor, subject, title string) {
	OrNop(s).Notify(ctx, common.Notification{
		Level:   common.NotifySuccess,
		Title:   title,
		Actor:   actor,
		Subject: subject,
		At:      time.Now().UTC(),
	})
}

// Failure reports a failed action together with the error text.
func Failure(ctx context.Context, s Sink, actor, subject, title string, err error) {
	n := common.Notification{
		Level:   common.NotifyError,
		Title:   title,
		Actor:   actor,
		Subject: subject,
		At:      time.Now().UTC(),
	}
	if err != nil {
		n.Message = err.Error()
	}
	OrNop(s).Notify(ctx, n)
}

// Warning sends a warning, for partially applied actions.
func Warning(ctx context.Context, s Sink, actor, subject, title, message string) {
	OrNop(s).Notify(ctx, common.Notification{
		Level:   common.NotifyWarning,
		Title:   title,
		Message: message,
		Actor:   actor,
		Subject: subject,
		At:      time.Now().UTC(),
	})
}
