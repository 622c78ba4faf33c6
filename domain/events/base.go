package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// SourceOutline is the event source reported to external buses
const SourceOutline = "methodable.outline"

const (
	TypeDocumentCreated    = "document.created"
	TypeDocumentChanged    = "document.changed"
	TypeDocumentRolledBack = "document.rolled_back"
	TypeDocumentDeleted    = "document.deleted"
)

// DocumentCreated is raised when a new outline document is seeded
type DocumentCreated struct {
	BaseEvent
	RootContentID string `json:"root_content_id"`
	UserID        string `json:"user_id"`
}

// NewDocumentCreated creates a DocumentCreated event
func NewDocumentCreated(documentID, rootContentID, userID string, timestamp time.Time) DocumentCreated {
	return DocumentCreated{
		BaseEvent: BaseEvent{
			AggregateID: documentID,
			EventType:   TypeDocumentCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		RootContentID: rootContentID,
		UserID:        userID,
	}
}

// DocumentChanged is raised after an edit is committed
type DocumentChanged struct {
	BaseEvent
	Operation     string `json:"operation"`
	Checksum      string `json:"checksum"`
	BlockCount    int    `json:"block_count"`
	LocationCount int    `json:"location_count"`
}

// NewDocumentChanged creates a DocumentChanged event
func NewDocumentChanged(documentID, operation, checksum string, version, blocks, locations int, timestamp time.Time) DocumentChanged {
	return DocumentChanged{
		BaseEvent: BaseEvent{
			AggregateID: documentID,
			EventType:   TypeDocumentChanged,
			Timestamp:   timestamp,
			Version:     version,
		},
		Operation:     operation,
		Checksum:      checksum,
		BlockCount:    blocks,
		LocationCount: locations,
	}
}

// DocumentRolledBack is raised when an edit failed the consistency check and
// the previous graph was kept
type DocumentRolledBack struct {
	BaseEvent
	Operation string   `json:"operation"`
	Problems  []string `json:"problems"`
}

// NewDocumentRolledBack creates a DocumentRolledBack event
func NewDocumentRolledBack(documentID, operation string, version int, problems []string, timestamp time.Time) DocumentRolledBack {
	return DocumentRolledBack{
		BaseEvent: BaseEvent{
			AggregateID: documentID,
			EventType:   TypeDocumentRolledBack,
			Timestamp:   timestamp,
			Version:     version,
		},
		Operation: operation,
		Problems:  problems,
	}
}

// DocumentDeleted is raised when a document is removed from storage
type DocumentDeleted struct {
	BaseEvent
}

// NewDocumentDeleted creates a DocumentDeleted event
func NewDocumentDeleted(documentID string, version int, timestamp time.Time) DocumentDeleted {
	return DocumentDeleted{
		BaseEvent: BaseEvent{
			AggregateID: documentID,
			EventType:   TypeDocumentDeleted,
			Timestamp:   timestamp,
			Version:     version,
		},
	}
}
