package eventbridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/domain/events"
)

// ErrPublisherUnavailable is returned while the breaker is open
var ErrPublisherUnavailable = errors.New("event publisher unavailable")

// BreakerConfig controls when the breaker trips
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used for the EventBridge publisher
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// BreakingPublisher stops calling a failing downstream publisher until it
// has had time to recover. Edits keep committing while it is open.
type BreakingPublisher struct {
	next   eventPublisher
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakingPublisher wraps next with a circuit breaker
func NewBreakingPublisher(next eventPublisher, cfg BreakerConfig, logger *zap.Logger) *BreakingPublisher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A cancelled caller says nothing about the downstream's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakingPublisher{next: next, cb: cb, logger: logger}
}

// Publish forwards a single event through the breaker
func (p *BreakingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch forwards events through the breaker
func (p *BreakingPublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.next.PublishBatch(ctx, domainEvents)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		p.logger.Debug("Dropping events while breaker is open", zap.Int("count", len(domainEvents)))
		return fmt.Errorf("%w: %v", ErrPublisherUnavailable, err)
	}
	return err
}

// State reports the breaker state
func (p *BreakingPublisher) State() gobreaker.State {
	return p.cb.State()
}
