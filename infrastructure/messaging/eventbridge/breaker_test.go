package eventbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/domain/events"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	return m.Called(ctx, domainEvents).Error(0)
}

func createTestBreaker(next eventPublisher) *BreakingPublisher {
	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 2
	cfg.FailureThreshold = 1
	cfg.Timeout = time.Hour
	return NewBreakingPublisher(next, cfg, zap.NewNop())
}

func TestBreakingPublisher_PassesThrough(t *testing.T) {
	next := new(MockPublisher)
	next.On("PublishBatch", mock.Anything, mock.Anything).Return(nil)

	p := createTestBreaker(next)
	assert.NoError(t, p.Publish(context.Background(), changedEvents(1)[0]))
	assert.Equal(t, gobreaker.StateClosed, p.State())
	next.AssertNumberOfCalls(t, "PublishBatch", 1)
}

func TestBreakingPublisher_OpensAfterFailures(t *testing.T) {
	next := new(MockPublisher)
	next.On("PublishBatch", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	p := createTestBreaker(next)
	ctx := context.Background()
	assert.EqualError(t, p.PublishBatch(ctx, changedEvents(1)), "throttled")
	assert.EqualError(t, p.PublishBatch(ctx, changedEvents(1)), "throttled")
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.PublishBatch(ctx, changedEvents(1))
	assert.ErrorIs(t, err, ErrPublisherUnavailable)
	next.AssertNumberOfCalls(t, "PublishBatch", 2)
}

func TestBreakingPublisher_CancellationDoesNotTrip(t *testing.T) {
	next := new(MockPublisher)
	next.On("PublishBatch", mock.Anything, mock.Anything).Return(context.Canceled)

	p := createTestBreaker(next)
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, p.PublishBatch(context.Background(), changedEvents(1)), context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, p.State())
}
