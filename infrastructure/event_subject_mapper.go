package infrastructure

import (
	"fmt"

	"parlayz/events"
)

// SubjectPrefix namespaces every subject this service publishes
const SubjectPrefix = "parlayz"

// DomainEventStream is the JetStream stream holding published domain events
const DomainEventStream = "parlayz_events"

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBalanceChange:
		return SubjectPrefix + ".users.balance_changed"
	case events.EventTypeUserCreated:
		return SubjectPrefix + ".users.created"
	case events.EventTypeEventStateChange:
		return SubjectPrefix + ".events.state_changed"
	case events.EventTypeEntryCreated:
		return SubjectPrefix + ".entries.created"
	case events.EventTypeOfferStateChange:
		return SubjectPrefix + ".offers.state_changed"
	case events.EventTypeEventSettled:
		return SubjectPrefix + ".events.settled"
	default:
		return fmt.Sprintf("%s.unknown.%s", SubjectPrefix, event.Type())
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{SubjectPrefix + ".>"}
}
