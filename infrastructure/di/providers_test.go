package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/application/commands"
	"github.com/dnsosebee/methodable-sub000/application/queries"
	"github.com/dnsosebee/methodable-sub000/infrastructure/config"
	"github.com/dnsosebee/methodable-sub000/infrastructure/identity"
	"github.com/dnsosebee/methodable-sub000/infrastructure/persistence/file"
	"github.com/dnsosebee/methodable-sub000/infrastructure/persistence/memory"
)

func createTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:    "test",
		StorageBackend: config.StorageMemory,
		DataDir:        t.TempDir(),
		LogLevel:       "info",
		CacheTTL:       30,
	}
}

func TestProvideDocumentRepository(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		check   func(t *testing.T, repo interface{})
		wantErr bool
	}{
		{name: "memory", backend: config.StorageMemory, check: func(t *testing.T, repo interface{}) {
			assert.IsType(t, &memory.DocumentRepository{}, repo)
		}},
		{name: "file", backend: config.StorageFile, check: func(t *testing.T, repo interface{}) {
			assert.IsType(t, &file.DocumentRepository{}, repo)
		}},
		{name: "unknown", backend: "cassette", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig(t)
			cfg.StorageBackend = tt.backend

			repo, err := ProvideDocumentRepository(cfg, nil, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, repo)
				return
			}
			require.NoError(t, err)
			tt.check(t, repo)
		})
	}
}

func TestProvideLogger(t *testing.T) {
	cfg := createTestConfig(t)
	logger, cleanup, err := ProvideLogger(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))

	cfg.LogLevel = "loud"
	_, _, err = ProvideLogger(cfg)
	assert.Error(t, err)
}

func TestProvideEventBus_LocalOnlyWithoutEvents(t *testing.T) {
	cfg := createTestConfig(t)
	eventBus, err := ProvideEventBus(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, eventBus)
}

// The providers wired together the way the injector does, minus AWS
func TestProviders_ServeAnEdit(t *testing.T) {
	cfg := createTestConfig(t)
	logger := zap.NewNop()
	ctx := context.Background()

	repo, err := ProvideDocumentRepository(cfg, nil, logger)
	require.NoError(t, err)
	eventBus, err := ProvideEventBus(cfg, nil, logger)
	require.NoError(t, err)
	ids := identity.NewSequenceIDGenerator()
	metrics := ProvideMetrics(nil, cfg, logger)
	domainCfg := ProvideDomainConfig(cfg)
	store := ProvideDocumentStore(repo, ids, eventBus, metrics, ProvideTracer(cfg), domainCfg, logger)

	commandBus, err := ProvideCommandBus(store, ProvideEditor(ids, cfg, domainCfg), ids, logger)
	require.NoError(t, err)
	cache, stop := ProvideInMemoryCache()
	defer stop()
	queryBus, err := ProvideQueryBus(store, cache, metrics, cfg, logger)
	require.NoError(t, err)

	_, err = commandBus.Send(ctx, commands.CreateDocumentCommand{UserID: "u1", RootText: "Make tea"})
	require.NoError(t, err)

	_, err = queryBus.Ask(ctx, queries.GetOutlineQuery{ID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	_, err = commandBus.Send(ctx, commands.UpdateTextCommand{
		DocumentRef: commands.DocumentRef{DocumentID: "d1", UserID: "u1"},
		ContentID:   "c1",
		HumanText:   "Make green tea",
	})
	require.NoError(t, err)

	res, err := queryBus.Ask(ctx, queries.GetOutlineQuery{ID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, "Make green tea", res.(*queries.OutlineNode).HumanText)
	assert.Equal(t, 2, cache.Len())
}

func TestProvideConfigWatcher_DisabledOutsideDevelopment(t *testing.T) {
	cfg := createTestConfig(t)
	store := ProvideDocumentStore(memory.NewDocumentRepository(), identity.NewSequenceIDGenerator(), nil,
		ProvideMetrics(nil, cfg, zap.NewNop()), ProvideTracer(cfg), ProvideDomainConfig(cfg), zap.NewNop())

	watcher, cleanup, err := ProvideConfigWatcher(cfg, store, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.Same(t, cfg, watcher.GetConfig())
}
