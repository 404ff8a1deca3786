package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"parlayz/events"
	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    []byte
	msgID   string
}

type recordingClient struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (c *recordingClient) Publish(ctx context.Context, subject string, data []byte, msgID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, publishedMessage{subject: subject, data: data, msgID: msgID})
	return nil
}

func (c *recordingClient) published() []publishedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]publishedMessage(nil), c.messages...)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordNATSMessagePublished(ctx context.Context, eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[eventType]++
}

func TestEventSubjectMapper_MapEventToSubject(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		name     string
		event    events.Event
		expected string
	}{
		{"balance change", events.BalanceChangeEvent{}, "parlayz.users.balance_changed"},
		{"user created", events.UserCreatedEvent{}, "parlayz.users.created"},
		{"event state change", events.EventStateChangeEvent{}, "parlayz.events.state_changed"},
		{"entry created", events.EntryCreatedEvent{}, "parlayz.entries.created"},
		{"offer state change", events.OfferStateChangeEvent{}, "parlayz.offers.state_changed"},
		{"event settled", events.EventSettledEvent{}, "parlayz.events.settled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapper.MapEventToSubject(tt.event))
		})
	}

	assert.Equal(t, []string{"parlayz.>"}, mapper.GetAllSubjects())
}

func TestNATSEventPublisher_Publish(t *testing.T) {
	client := &recordingClient{}
	recorder := &countingRecorder{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), "parlayz-test").WithMetrics(recorder)

	event := events.EventSettledEvent{
		EventID:        uuid.New(),
		WinningOutcome: "yes",
		TotalPaid:      decimal.RequireFromString("300.00"),
		WinnerCount:    2,
	}

	require.NoError(t, publisher.Publish(context.Background(), event))

	msgs := client.published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "parlayz.events.settled", msgs[0].subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(msgs[0].data, &envelope))
	assert.Equal(t, string(events.EventTypeEventSettled), envelope.EventType)
	assert.Equal(t, "parlayz-test", envelope.SourceService)
	assert.Equal(t, envelope.EventID, msgs[0].msgID)
	_, err := uuid.Parse(envelope.EventID)
	assert.NoError(t, err)

	var payload events.EventSettledEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event.EventID, payload.EventID)
	assert.True(t, event.TotalPaid.Equal(payload.TotalPaid))
	assert.Equal(t, 2, payload.WinnerCount)

	assert.Equal(t, 1, recorder.counts[string(events.EventTypeEventSettled)])
}

func TestNATSEventPublisher_PublishError(t *testing.T) {
	client := &recordingClient{err: errors.New("stream unavailable")}
	recorder := &countingRecorder{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), "parlayz-test").WithMetrics(recorder)

	err := publisher.Publish(context.Background(), events.UserCreatedEvent{UserID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream unavailable")
	assert.Empty(t, recorder.counts)
}

func TestNATSEventPublisher_SubscribeForwardsBusEvents(t *testing.T) {
	client := &recordingClient{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), "parlayz-test")

	bus := events.NewBus()
	publisher.Subscribe(bus)

	bus.Emit(context.Background(), events.OfferStateChangeEvent{
		OfferID:  uuid.New(),
		EventID:  uuid.New(),
		OldState: models.OfferStatusOpen,
		NewState: models.OfferStatusMatched,
	})
	bus.Emit(context.Background(), events.BalanceChangeEvent{UserID: uuid.New()})
	bus.Wait()

	subjects := make([]string, 0, 2)
	for _, msg := range client.published() {
		subjects = append(subjects, msg.subject)
	}
	assert.ElementsMatch(t, []string{"parlayz.offers.state_changed", "parlayz.users.balance_changed"}, subjects)
}
