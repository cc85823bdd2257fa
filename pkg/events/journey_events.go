package events

import "time"

const (
	TypeJourneyGenerated = "journey.generated"
	TypeJourneyRejected  = "journey.rejected"
	TypeSyncCompleted    = "sync.completed"
	// TypeCatalogUpdated is published by the content admin when a catalog row changes.
	TypeCatalogUpdated = "catalog.updated"
)

func NewJourneyEvent(success bool, data map[string]interface{}) BaseEvent {
	typ := TypeJourneyGenerated
	if !success {
		typ = TypeJourneyRejected
	}
	return BaseEvent{Type: typ, Data: data, OccurredAt: time.Now().UTC()}
}

func NewSyncCompletedEvent(data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: TypeSyncCompleted, Data: data, OccurredAt: time.Now().UTC()}
}
