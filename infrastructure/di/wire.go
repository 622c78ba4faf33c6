//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/dnsosebee/methodable-sub000/application/ports"
	"github.com/dnsosebee/methodable-sub000/infrastructure/config"
	"github.com/dnsosebee/methodable-sub000/infrastructure/identity"
	"github.com/dnsosebee/methodable-sub000/infrastructure/messaging/local"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideDocumentRepository,
	ProvideEventBus,
	wire.Bind(new(ports.EventPublisher), new(*local.EventBus)),
	ProvideMetrics,
	ProvideHTTPMetrics,
	ProvideTracer,
	ProvideIDGenerator,
	wire.Bind(new(ports.IDGenerator), new(*identity.UUIDGenerator)),
	ProvideDocumentStore,
	ProvideEditor,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideInMemoryCache,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
