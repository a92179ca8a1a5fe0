// Package events publishes domain events after a successful write. Publishing
// is best effort: a failed publish is logged and counted but never fails the
// write that caused it.
package events

import (
	"context"
	"time"

	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

// Publisher sends one event to the bus.
type Publisher interface {
	Publish(ctx context.Context, e *common.Event) error
}

// Recorder counts publish outcomes.
type Recorder interface {
	RecordEventPublished(eventType string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordEventPublished(string, error) {}

// Emitter builds and publishes events. A nil *Emitter drops everything.
type Emitter struct {
	pub      Publisher
	recorder Recorder
	logger   logging.Logger
	now      func() time.Time
}

func NewEmitter(pub Publisher, recorder Recorder, logger logging.Logger) *Emitter {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Emitter{pub: pub, recorder: recorder, logger: logger, now: time.Now}
}

// Emit publishes an event of type t about subject. Failures are logged.
func (em *Emitter) Emit(ctx context.Context, t common.EventType, subject, actor string, payload interface{}) {
	if em == nil || em.pub == nil {
		return
	}
	e, err := common.NewEvent(t, subject, actor, payload, em.now())
	if err != nil {
		em.logger.Error("failed to build event", logging.String("event_type", string(t)), logging.Err(err))
		em.recorder.RecordEventPublished(string(t), err)
		return
	}

	err = em.pub.Publish(ctx, e)
	em.recorder.RecordEventPublished(string(t), err)
	if err != nil {
		em.logger.Warn("event not published",
			logging.String("event_type", string(t)),
			logging.String("subject", subject),
			logging.Err(err))
	}
}
