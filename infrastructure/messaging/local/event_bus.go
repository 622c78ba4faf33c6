// Package local delivers domain events to in-process subscribers and,
// optionally, forwards them to an external publisher.
package local

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/application/ports"
	"github.com/dnsosebee/methodable-sub000/domain/events"
)

// EventBus implements ports.EventBus. Subscribers run synchronously in
// subscription order; their failures are logged and never reach the
// publisher of the event.
type EventBus struct {
	mu         sync.RWMutex
	handlers   map[string][]ports.EventHandler
	downstream ports.EventPublisher
	logger     *zap.Logger
}

// NewEventBus creates a bus. downstream may be nil.
func NewEventBus(downstream ports.EventPublisher, logger *zap.Logger) *EventBus {
	return &EventBus{
		handlers:   make(map[string][]ports.EventHandler),
		downstream: downstream,
		logger:     logger,
	}
}

// Subscribe registers a handler for an event type; "*" receives every event
func (b *EventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Unsubscribe removes a handler
func (b *EventBus) Unsubscribe(eventType string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs := b.handlers[eventType]
	for i, h := range hs {
		if h == handler {
			b.handlers[eventType] = append(hs[:i:i], hs[i+1:]...)
			return nil
		}
	}
	return errors.New("handler not subscribed")
}

// Publish delivers one event
func (b *EventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	return b.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch delivers events locally, then forwards them downstream
func (b *EventBus) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, event := range domainEvents {
		for _, h := range b.subscribers(event.GetEventType()) {
			if !h.CanHandle(event.GetEventType()) {
				continue
			}
			if err := h.Handle(ctx, event); err != nil {
				b.logger.Warn("Event handler failed",
					zap.String("event_type", event.GetEventType()),
					zap.String("aggregate_id", event.GetAggregateID()),
					zap.Error(err),
				)
			}
		}
	}
	if b.downstream == nil || len(domainEvents) == 0 {
		return nil
	}
	return b.downstream.PublishBatch(ctx, domainEvents)
}

func (b *EventBus) subscribers(eventType string) []ports.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]ports.EventHandler, 0, len(b.handlers[eventType])+len(b.handlers["*"]))
	out = append(out, b.handlers[eventType]...)
	return append(out, b.handlers["*"]...)
}

// AuditLogHandler writes every document event to the log
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit log handler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger}
}

func (h *AuditLogHandler) CanHandle(eventType string) bool { return true }

func (h *AuditLogHandler) Handle(ctx context.Context, event events.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.GetEventType()),
		zap.String("document_id", event.GetAggregateID()),
		zap.Int("version", event.GetVersion()),
	}
	switch e := event.(type) {
	case events.DocumentChanged:
		fields = append(fields, zap.String("operation", e.Operation), zap.String("checksum", e.Checksum))
	case events.DocumentRolledBack:
		fields = append(fields, zap.String("operation", e.Operation), zap.Strings("problems", e.Problems))
	}
	h.logger.Info("Document event", fields...)
	return nil
}
