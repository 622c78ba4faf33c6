package ports

import (
	"context"
	"time"

	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/events"
	"github.com/dnsosebee/methodable-sub000/domain/services"
)

// DocumentRepository defines the interface for document persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type DocumentRepository interface {
	// Create stores the first revision of a document. It fails with
	// DOCUMENT_EXISTS when the id is taken.
	Create(ctx context.Context, doc *aggregates.Document) error

	// Get retrieves the latest revision of a document
	Get(ctx context.Context, documentID string) (*aggregates.Document, error)

	// Save stores doc if the stored revision is exactly doc.Version()-1,
	// otherwise it fails with CONCURRENT_MODIFICATION.
	Save(ctx context.Context, doc *aggregates.Document) error

	// Delete removes a document
	Delete(ctx context.Context, documentID string) error

	// List returns a summary of every document owned by ownerID, or of every
	// document when ownerID is empty
	List(ctx context.Context, ownerID string) ([]DocumentSummary, error)
}

// DocumentSummary is the listing view of a stored document
type DocumentSummary struct {
	ID            string    `json:"id"`
	RootContentID string    `json:"rootContentId"`
	OwnerID       string    `json:"ownerId"`
	Version       int       `json:"version"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Summarize builds the listing view of doc
func Summarize(doc *aggregates.Document) DocumentSummary {
	return DocumentSummary{
		ID:            doc.ID(),
		RootContentID: doc.RootContentID().String(),
		OwnerID:       doc.OwnerID(),
		Version:       doc.Version(),
		UpdatedAt:     doc.UpdatedAt(),
	}
}

// IDGenerator mints identifiers for documents and blocks
type IDGenerator interface {
	services.IDGenerator
	NewDocumentID() string
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish publishes a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch publishes multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus extends EventPublisher with subscription capabilities
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for specific event types
	Subscribe(eventType string, handler EventHandler) error

	// Unsubscribe removes a handler
	Unsubscribe(eventType string, handler EventHandler) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the given event type
	CanHandle(eventType string) bool
}

// MetricsRecorder receives per-dispatch measurements
type MetricsRecorder interface {
	RecordOperation(ctx context.Context, operation string, duration time.Duration, err error)
	RecordInvariantViolation(ctx context.Context, operation string)
}

// Tracer wraps a unit of work in a trace span
type Tracer interface {
	TraceFunction(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
