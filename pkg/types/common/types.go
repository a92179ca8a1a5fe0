// Package common holds the wire types shared by the API server, the worker
// and the Go client: error and list envelopes, health reports, domain events
// and user notifications.
package common

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ─────────────────────────────────────────────────────────────────────────────
// API envelopes
// ─────────────────────────────────────────────────────────────────────────────

// ErrorDetail is the body of every non-2xx API response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ListResponse wraps collection results.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewListResponse never renders a null items array.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

// HealthStatus indicates the health of a component or service.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDegraded HealthStatus = "degraded"
)

// ComponentHealth provides health information for a specific component.
type ComponentHealth struct {
	Name    string        `json:"name"`
	Status  HealthStatus  `json:"status"`
	Latency time.Duration `json:"latency"`
	Message string        `json:"message,omitempty"`
}

// HealthReport aggregates component checks. Required components that are
// down make the whole report down; optional ones only degrade it.
type HealthReport struct {
	Status     HealthStatus      `json:"status"`
	Components []ComponentHealth `json:"components"`
}

// Summarize computes Status from the components.
func (r *HealthReport) Summarize(required map[string]bool) {
	r.Status = HealthUp
	for _, c := range r.Components {
		if c.Status == HealthUp {
			continue
		}
		if required[c.Name] {
			r.Status = HealthDown
			return
		}
		r.Status = HealthDegraded
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Events
// ─────────────────────────────────────────────────────────────────────────────

// EventType names a domain event. The prefix before the first dot is the
// event family used for topic routing.
type EventType string

const (
	EventBlockerCreated           EventType = "blocker.created"
	EventBlockerUpdated           EventType = "blocker.updated"
	EventBlockerResolved          EventType = "blocker.resolved"
	EventBlockerStale             EventType = "blocker.stale"
	EventEscalationRaised         EventType = "escalation.raised"
	EventEscalationStatusChanged  EventType = "escalation.status_changed"
	EventEscalationHistoryMissing EventType = "escalation.history_missing"
	EventCommentAsked             EventType = "comment.asked"
	EventCommentAnswered          EventType = "comment.answered"
	EventMarketsImported          EventType = "catalog.markets_imported"
	EventMarketsDeleted           EventType = "catalog.markets_deleted"
	EventProductChanged           EventType = "catalog.product_changed"
	EventCoverageChanged          EventType = "catalog.coverage_changed"
)

// Family returns the part before the first dot.
func (t EventType) Family() string {
	if i := strings.IndexByte(string(t), '.'); i >= 0 {
		return string(t)[:i]
	}
	return string(t)
}

const EventSchemaVersion = "v1"

// Event is the envelope published on the event bus.
type Event struct {
	ID            string          `json:"event_id"`
	Type          EventType       `json:"event_type"`
	Subject       string          `json:"subject"`
	Actor         string          `json:"actor,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals payload into a fresh envelope. Subject is the id of the
// aggregate the event is about.
func NewEvent(t EventType, subject, actor string, payload interface{}, now time.Time) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		raw = data
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          t,
		Subject:       subject,
		Actor:         actor,
		OccurredAt:    now.UTC(),
		SchemaVersion: EventSchemaVersion,
		Payload:       raw,
	}, nil
}

// DecodePayload is a no-op for an empty payload.
func (e *Event) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(e.Payload, target)
}

// ─────────────────────────────────────────────────────────────────────────────
// Notifications
// ─────────────────────────────────────────────────────────────────────────────

// NotificationLevel drives how a toast is rendered.
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyInfo    NotificationLevel = "info"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// Notification is a user-visible, fire-and-forget message.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Actor   string            `json:"actor,omitempty"`
	Subject string            `json:"subject,omitempty"`
	At      time.Time         `json:"at"`
}
