package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/launch-radar/internal/config"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
	"github.com/turtacn/launch-radar/pkg/types/common"
)

const (
	HeaderEventType     = "event_type"
	HeaderSchemaVersion = "schema_version"
	HeaderSource        = "source_service"
)

// TopicRouter maps event families to topics.
type TopicRouter struct {
	byFamily     map[string]string
	notification string
}

// NewTopicRouter builds the routing table from configuration.
func NewTopicRouter(cfg config.KafkaConfig) *TopicRouter {
	return &TopicRouter{
		byFamily: map[string]string{
			"blocker":    cfg.BlockerTopic,
			"escalation": cfg.EscalationTopic,
			"comment":    cfg.CommentTopic,
			"catalog":    cfg.CatalogTopic,
		},
		notification: cfg.NotificationTopic,
	}
}

// TopicFor returns the topic for t, or false for an unknown family.
func (r *TopicRouter) TopicFor(t common.EventType) (string, bool) {
	topic, ok := r.byFamily[t.Family()]
	return topic, ok && topic != ""
}

// NotificationTopic returns the toast topic.
func (r *TopicRouter) NotificationTopic() string { return r.notification }

// EventPublisher publishes domain events keyed by subject so that events
// about one aggregate stay ordered within a partition.
type EventPublisher struct {
	producer interface {
		Publish(ctx context.Context, msg *ProducerMessage) error
	}
	router *TopicRouter
	source string
}

// NewEventPublisher wraps p. source names the emitting binary.
func NewEventPublisher(p *Producer, router *TopicRouter, source string) *EventPublisher {
	return &EventPublisher{producer: p, router: router, source: source}
}

// Publish routes e by family and writes it.
func (ep *EventPublisher) Publish(ctx context.Context, e *common.Event) error {
	topic, ok := ep.router.TopicFor(e.Type)
	if !ok {
		return errors.New(errors.ErrCodeValidation, "no topic for event type").WithDetail(string(e.Type))
	}
	val, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal event")
	}
	return ep.producer.Publish(ctx, &ProducerMessage{
		Topic: topic,
		Key:   []byte(e.Subject),
		Value: val,
		Headers: map[string]string{
			HeaderEventType:     string(e.Type),
			HeaderSchemaVersion: e.SchemaVersion,
			HeaderSource:        ep.source,
		},
		Timestamp: e.OccurredAt,
	})
}

// NotificationSink forwards toasts to the notification topic. Failures are
// logged; callers never see them.
type NotificationSink struct {
	producer interface {
		Publish(ctx context.Context, msg *ProducerMessage) error
	}
	topic  string
	logger logging.Logger
}

func NewNotificationSink(p *Producer, router *TopicRouter, logger logging.Logger) *NotificationSink {
	return &NotificationSink{producer: p, topic: router.NotificationTopic(), logger: logger}
}

func (s *NotificationSink) Notify(ctx context.Context, n common.Notification) {
	val, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("marshal notification", logging.Err(err))
		return
	}
	err = s.producer.Publish(ctx, &ProducerMessage{
		Topic:     s.topic,
		Key:       []byte(n.Actor),
		Value:     val,
		Headers:   map[string]string{HeaderEventType: "notification." + string(n.Level)},
		Timestamp: n.At,
	})
	if err != nil {
		s.logger.Warn("notification publish failed",
			logging.String("title", n.Title), logging.Err(err))
	}
}

// DecodeEvent parses a consumed record into an event envelope.
func DecodeEvent(msg *Message) (*common.Event, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var e common.Event
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "unmarshal event").WithDetail(msg.Topic)
	}
	if e.Type == "" {
		if t := msg.Headers[HeaderEventType]; t != "" {
			e.Type = common.EventType(t)
		}
	}
	return &e, nil
}

// DecodeNotification parses a record from the notification topic.
func DecodeNotification(msg *Message) (*common.Notification, error) {
	var n common.Notification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "unmarshal notification")
	}
	return &n, nil
}

// TopicConfig describes a topic to provision.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
}

const day = int64(24 * 3600 * 1000)

// RadarTopics lists the topics the services use, with the dead letter
// topic for the worker group.
func RadarTopics(cfg config.KafkaConfig) []TopicConfig {
	return []TopicConfig{
		{Name: cfg.BlockerTopic, NumPartitions: 6, ReplicationFactor: 1, RetentionMs: 30 * day},
		{Name: cfg.EscalationTopic, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 90 * day},
		{Name: cfg.CommentTopic, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 30 * day},
		{Name: cfg.CatalogTopic, NumPartitions: 1, ReplicationFactor: 1, RetentionMs: 7 * day},
		{Name: cfg.NotificationTopic, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 3 * day},
		{Name: DeadLetterTopic(cfg), NumPartitions: 1, ReplicationFactor: 1, RetentionMs: 30 * day},
	}
}

// DeadLetterTopic is derived from the consumer group name.
func DeadLetterTopic(cfg config.KafkaConfig) string {
	return "dead_letter." + cfg.ConsumerGroup
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager provisions topics through a broker connection.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "dial kafka")
	}
	return &TopicManager{conn: conn, logger: logger}, nil
}

// CreateTopic is idempotent: an existing topic is not an error.
func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 || cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "partitions and replication factor must be > 0").WithDetail(cfg.Name)
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries,
			kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, "create topic").WithDetail(cfg.Name)
	}
	m.logger.Info("topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) TopicExists(_ context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics creates every missing topic and stops at the first failure.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}
