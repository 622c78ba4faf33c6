package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/application/commands/bus"
	commandhandlers "github.com/dnsosebee/methodable-sub000/application/commands/handlers"
	"github.com/dnsosebee/methodable-sub000/application/ports"
	querybus "github.com/dnsosebee/methodable-sub000/application/queries/bus"
	queryhandlers "github.com/dnsosebee/methodable-sub000/application/queries/handlers"
	appservices "github.com/dnsosebee/methodable-sub000/application/services"
	domainconfig "github.com/dnsosebee/methodable-sub000/domain/config"
	"github.com/dnsosebee/methodable-sub000/domain/services"
	"github.com/dnsosebee/methodable-sub000/infrastructure/config"
	"github.com/dnsosebee/methodable-sub000/infrastructure/identity"
	"github.com/dnsosebee/methodable-sub000/infrastructure/messaging/eventbridge"
	"github.com/dnsosebee/methodable-sub000/infrastructure/messaging/local"
	"github.com/dnsosebee/methodable-sub000/infrastructure/persistence/dynamodb"
	"github.com/dnsosebee/methodable-sub000/infrastructure/persistence/file"
	"github.com/dnsosebee/methodable-sub000/infrastructure/persistence/memory"
	"github.com/dnsosebee/methodable-sub000/pkg/observability"
)

const serviceName = "methodable"

// ProvideLogger creates a new logger instance at the configured level
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = logger.Sync()
	}
	return logger, cleanup, nil
}

// ProvideDomainConfig derives the editing rules from the app config
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideAWSConfig creates AWS configuration. SDK calls get X-Ray
// subsegments when tracing is enabled.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.EnableTracing {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDocumentRepository picks the storage backend
func ProvideDocumentRepository(
	cfg *config.Config,
	client *awsdynamodb.Client,
	logger *zap.Logger,
) (ports.DocumentRepository, error) {
	switch cfg.StorageBackend {
	case config.StorageDynamoDB:
		return dynamodb.NewDocumentRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger), nil
	case config.StorageFile:
		repo, err := file.NewDocumentRepository(cfg.DataDir, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.StorageMemory:
		return memory.NewDocumentRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// ProvideEventBus creates the in-process event bus with the audit log
// subscribed. With events enabled it forwards everything to EventBridge.
func ProvideEventBus(
	cfg *config.Config,
	client *awseventbridge.Client,
	logger *zap.Logger,
) (*local.EventBus, error) {
	var downstream ports.EventPublisher
	if cfg.EnableEvents {
		downstream = eventbridge.NewBreakingPublisher(
			eventbridge.NewPublisher(client, cfg.EventBusName, logger),
			eventbridge.DefaultBreakerConfig("eventbridge"),
			logger,
		)
	}
	eventBus := local.NewEventBus(downstream, logger)
	if err := eventBus.Subscribe("*", local.NewAuditLogHandler(logger)); err != nil {
		return nil, err
	}
	return eventBus, nil
}

// ProvideMetrics creates metrics instance; disabled metrics record nothing
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return observability.NewNoopMetrics()
	}
	namespace := fmt.Sprintf("Methodable/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideHTTPMetrics creates the Prometheus request collectors. It returns
// nil when the scrape endpoint is disabled.
func ProvideHTTPMetrics(cfg *config.Config) *observability.HTTPMetrics {
	if !cfg.EnablePrometheus {
		return nil
	}
	return observability.NewHTTPMetrics("methodable")
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideIDGenerator creates the production id generator
func ProvideIDGenerator() *identity.UUIDGenerator {
	return identity.NewUUIDGenerator()
}

// ProvideDocumentStore creates the single writer of document graphs
func ProvideDocumentStore(
	repo ports.DocumentRepository,
	ids ports.IDGenerator,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *appservices.DocumentStore {
	return appservices.NewDocumentStore(repo, ids, publisher, metrics, tracer, domainCfg, logger)
}

// ProvideEditor creates the editing service
func ProvideEditor(ids ports.IDGenerator, cfg *config.Config, domainCfg *domainconfig.DomainConfig) *services.Editor {
	return services.NewEditor(ids, services.URLReferenceResolver{Host: cfg.ReferenceHost}, domainCfg)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	store *appservices.DocumentStore,
	editor *services.Editor,
	ids ports.IDGenerator,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()
	commandBus.Use(bus.LoggingMiddleware(&zapLoggerAdapter{logger}))

	h := commandhandlers.NewDocumentHandlers(store, editor, ids, logger)
	if err := h.Register(commandBus); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers. Results are
// cached per document version when a cache TTL is configured.
func ProvideQueryBus(
	store *appservices.DocumentStore,
	cache *InMemoryCache,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	queryBus.Use(querybus.NewMetricsMiddleware(metrics))
	if cfg.CacheTTL > 0 {
		queryBus.Use(querybus.NewCachingMiddleware(cache, store, cfg.CacheTTL))
	}

	h := queryhandlers.NewDocumentQueryHandlers(store, logger)
	if err := h.Register(queryBus); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// ProvideInMemoryCache creates the query result cache
func ProvideInMemoryCache() (*InMemoryCache, func()) {
	cache := NewInMemoryCache()
	return cache, cache.Stop
}

// ProvideConfigWatcher hot-reloads the config file in development and
// applies the strict-invariant switch to the running store
func ProvideConfigWatcher(
	cfg *config.Config,
	store *appservices.DocumentStore,
	logger *zap.Logger,
) (*config.ConfigWatcher, func(), error) {
	watcher, err := config.NewConfigWatcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.OnChange(func(next *config.Config) {
		store.SetStrict(next.DomainConfig().StrictInvariants)
	})
	return watcher, watcher.Stop, nil
}

// zapLoggerAdapter adapts zap.Logger to the bus.Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) Error(msg string, fields ...interface{}) {
	a.logger.Error(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) fieldsToZap(fields ...interface{}) []zap.Field {
	var zapFields []zap.Field
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			key, _ := fields[i].(string)
			zapFields = append(zapFields, zap.Any(key, fields[i+1]))
		}
	}
	return zapFields
}
