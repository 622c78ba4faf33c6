package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	querybus "github.com/dnsosebee/methodable-sub000/application/queries/bus"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

// CloudWatchAPI is the subset of the CloudWatch client used for metrics
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics handles application metrics and monitoring. A nil client turns
// every call into a no-op.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// NewNoopMetrics creates a metrics instance that records nothing
func NewNoopMetrics() *Metrics {
	return &Metrics{logger: zap.NewNop()}
}

func dimension(name, value string) types.Dimension {
	return types.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func (m *Metrics) put(ctx context.Context, data ...types.MetricDatum) {
	if m.client == nil {
		return
	}
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		// Log error but don't fail the operation
		m.logger.Warn("Failed to send metrics", zap.Error(err))
	}
}

// RecordOperation records latency and outcome of one document operation
func (m *Metrics) RecordOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	now := aws.Time(time.Now())
	dims := []types.Dimension{dimension("Operation", operation), dimension("Status", status)}

	data := []types.MetricDatum{
		{
			MetricName: aws.String("OperationLatency"),
			Dimensions: dims,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  now,
		},
		{
			MetricName: aws.String("OperationCount"),
			Dimensions: dims,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  now,
		},
	}
	if domainErr := pkgerrors.GetDomainError(err); domainErr != nil {
		data = append(data, types.MetricDatum{
			MetricName: aws.String("Errors"),
			Dimensions: []types.Dimension{
				dimension("ErrorType", string(domainErr.Type)),
				dimension("ErrorCode", domainErr.Code),
			},
			Value:     aws.Float64(1),
			Unit:      types.StandardUnitCount,
			Timestamp: now,
		})
	}
	m.put(ctx, data...)
}

// RecordInvariantViolation counts edits that failed the consistency check
func (m *Metrics) RecordInvariantViolation(ctx context.Context, operation string) {
	m.put(ctx, types.MetricDatum{
		MetricName: aws.String("InvariantViolations"),
		Dimensions: []types.Dimension{dimension("Operation", operation)},
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now()),
	})
}

// Increment adds one to a counter, labelled by query type
func (m *Metrics) Increment(metric, label string) {
	m.put(context.Background(), types.MetricDatum{
		MetricName: aws.String(metric),
		Dimensions: []types.Dimension{dimension("Query", label)},
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now()),
	})
}

// StartTimer starts measuring a query; Stop records the elapsed time
func (m *Metrics) StartTimer(metric, label string) querybus.Timer {
	return &timer{metrics: m, metric: metric, label: label, start: time.Now()}
}

type timer struct {
	metrics *Metrics
	metric  string
	label   string
	start   time.Time
}

func (t *timer) Stop() {
	t.metrics.put(context.Background(), types.MetricDatum{
		MetricName: aws.String(t.metric),
		Dimensions: []types.Dimension{dimension("Query", t.label)},
		Value:      aws.Float64(float64(time.Since(t.start).Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  aws.Time(time.Now()),
	})
}
