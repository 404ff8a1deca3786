package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"parlayz/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventEnvelope wraps a domain event for transport
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// messagePublisher is the slice of NATSClient the event publisher needs
type messagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte, msgID string) error
}

// publishRecorder counts successful publishes
type publishRecorder interface {
	RecordNATSMessagePublished(ctx context.Context, eventType string)
}

// NATSEventPublisher forwards committed domain events to NATS
type NATSEventPublisher struct {
	client        messagePublisher
	subjectMapper *EventSubjectMapper
	source        string
	metrics       publishRecorder
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(client messagePublisher, subjectMapper *EventSubjectMapper, source string) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: subjectMapper,
		source:        source,
	}
}

// WithMetrics records every successful publish on recorder
func (p *NATSEventPublisher) WithMetrics(recorder publishRecorder) *NATSEventPublisher {
	p.metrics = recorder
	return p
}

// NewEnvelope serializes event into a transport envelope
func NewEnvelope(event events.Event, source string) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: source,
		Payload:       payload,
	}, nil
}

// Publish publishes an event to NATS using the appropriate subject
func (p *NATSEventPublisher) Publish(ctx context.Context, event events.Event) error {
	subject := p.subjectMapper.MapEventToSubject(event)

	envelope, err := NewEnvelope(event, p.source)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := p.client.Publish(ctx, subject, data, envelope.EventID); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RecordNATSMessagePublished(ctx, string(event.Type()))
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")
	return nil
}

// Subscribe forwards every event emitted on bus to NATS. Failures are
// logged and dropped; the ledger is the source of truth.
func (p *NATSEventPublisher) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		if err := p.Publish(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to forward event to NATS")
		}
	})
}
