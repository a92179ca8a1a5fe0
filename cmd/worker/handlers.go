package main

import (
	"context"

	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/config"
	"github.com/turtacn/launch-radar/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

// MessageHandler processes the records of one topic.
type MessageHandler interface {
	Handle(ctx context.Context, msg *kafka.Message) error
	Topic() string
}

// subscriber is the part of the kafka consumer the worker registers with.
type subscriber interface {
	Subscribe(topic string, handler kafka.MessageHandler)
}

// ConsumedRecorder counts handled events.
type ConsumedRecorder interface {
	RecordEventConsumed(eventType string, err error)
}

// MarketCache is dropped whenever the market forest changes.
type MarketCache interface {
	Invalidate(ctx context.Context)
}

// buildHandlerRegistry returns one handler per configured topic.
func buildHandlerRegistry(cfg config.KafkaConfig, cache MarketCache, sink notify.Sink, rec ConsumedRecorder, logger logging.Logger) []MessageHandler {
	return []MessageHandler{
		&CatalogEventHandler{topic: cfg.CatalogTopic, cache: cache, recorder: rec, logger: logger.Named("catalog")},
		&WorkflowEventHandler{topic: cfg.BlockerTopic, recorder: rec, logger: logger.Named("blocker")},
		&WorkflowEventHandler{topic: cfg.EscalationTopic, recorder: rec, logger: logger.Named("escalation")},
		&WorkflowEventHandler{topic: cfg.CommentTopic, recorder: rec, logger: logger.Named("comment")},
		&NotificationHandler{topic: cfg.NotificationTopic, sink: sink, recorder: rec},
	}
}

func registerHandlers(s subscriber, hs []MessageHandler) {
	for _, h := range hs {
		if h.Topic() != "" {
			s.Subscribe(h.Topic(), h.Handle)
		}
	}
}

// CatalogEventHandler drops the cached market forest after an import or a
// delete, including those made by another API replica.
type CatalogEventHandler struct {
	topic    string
	cache    MarketCache
	recorder ConsumedRecorder
	logger   logging.Logger
}

func (h *CatalogEventHandler) Topic() string { return h.topic }

func (h *CatalogEventHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	e, err := kafka.DecodeEvent(msg)
	if err != nil {
		h.recorder.RecordEventConsumed("undecodable", err)
		// A malformed record never decodes; retrying it only delays the partition.
		h.logger.Warn("dropping malformed catalog event", logging.Int64("offset", msg.Offset), logging.Err(err))
		return nil
	}
	switch e.Type {
	case common.EventMarketsImported, common.EventMarketsDeleted:
		h.cache.Invalidate(ctx)
		h.logger.Info("market cache invalidated",
			logging.String("event", string(e.Type)),
			logging.String("actor", e.Actor))
	}
	h.recorder.RecordEventConsumed(string(e.Type), nil)
	return nil
}

// WorkflowEventHandler logs blocker, escalation and comment events. A
// missing escalation history row is raised to error level so it alerts.
type WorkflowEventHandler struct {
	topic    string
	recorder ConsumedRecorder
	logger   logging.Logger
}

func (h *WorkflowEventHandler) Topic() string { return h.topic }

func (h *WorkflowEventHandler) Handle(_ context.Context, msg *kafka.Message) error {
	e, err := kafka.DecodeEvent(msg)
	if err != nil {
		h.recorder.RecordEventConsumed("undecodable", err)
		h.logger.Warn("dropping malformed event", logging.Int64("offset", msg.Offset), logging.Err(err))
		return nil
	}
	fields := []logging.Field{
		logging.String("event", string(e.Type)),
		logging.String("subject", e.Subject),
		logging.String("actor", e.Actor),
		logging.Time("occurred_at", e.OccurredAt),
	}
	if e.Type == common.EventEscalationHistoryMissing {
		h.logger.Error("escalation change has no history entry", fields...)
	} else {
		h.logger.Info("event", fields...)
	}
	h.recorder.RecordEventConsumed(string(e.Type), nil)
	return nil
}

// NotificationHandler forwards toasts from every API replica to the sink.
type NotificationHandler struct {
	topic    string
	sink     notify.Sink
	recorder ConsumedRecorder
}

func (h *NotificationHandler) Topic() string { return h.topic }

func (h *NotificationHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	n, err := kafka.DecodeNotification(msg)
	if err != nil {
		h.recorder.RecordEventConsumed("notification", err)
		return nil
	}
	h.sink.Notify(ctx, *n)
	h.recorder.RecordEventConsumed("notification."+string(n.Level), nil)
	return nil
}
