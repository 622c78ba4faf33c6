package di

import (
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/application/commands/bus"
	"github.com/dnsosebee/methodable-sub000/application/ports"
	querybus "github.com/dnsosebee/methodable-sub000/application/queries/bus"
	appservices "github.com/dnsosebee/methodable-sub000/application/services"
	"github.com/dnsosebee/methodable-sub000/infrastructure/config"
	"github.com/dnsosebee/methodable-sub000/infrastructure/messaging/local"
	"github.com/dnsosebee/methodable-sub000/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Repository  ports.DocumentRepository
	EventBus    *local.EventBus
	Store       *appservices.DocumentStore
	CommandBus  *bus.CommandBus
	QueryBus    *querybus.QueryBus
	Cache       *InMemoryCache
	Metrics     *observability.Metrics
	HTTPMetrics *observability.HTTPMetrics
	Tracer      *observability.Tracer
	Watcher     *config.ConfigWatcher
}
