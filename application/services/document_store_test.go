package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/application/ports"
	"github.com/dnsosebee/methodable-sub000/domain/config"
	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	"github.com/dnsosebee/methodable-sub000/domain/events"
	domainservices "github.com/dnsosebee/methodable-sub000/domain/services"
	"github.com/dnsosebee/methodable-sub000/infrastructure/identity"
	"github.com/dnsosebee/methodable-sub000/infrastructure/persistence/memory"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
	"github.com/dnsosebee/methodable-sub000/pkg/observability"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *aggregates.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) Get(ctx context.Context, documentID string) (*aggregates.Document, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aggregates.Document), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *aggregates.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, documentID string) error {
	return m.Called(ctx, documentID).Error(0)
}

func (m *MockDocumentRepository) List(ctx context.Context, ownerID string) ([]ports.DocumentSummary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]ports.DocumentSummary), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	return m.Called(ctx, domainEvents).Error(0)
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func createTestStore(repo ports.DocumentRepository, publisher ports.EventPublisher, cfg *config.DomainConfig) *DocumentStore {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	store := NewDocumentStore(
		repo,
		identity.NewSequenceIDGenerator(),
		publisher,
		observability.NewNoopMetrics(),
		observability.NewTracer("test", false),
		cfg,
		zap.NewNop(),
	)
	store.now = func() time.Time { return testNow }
	return store
}

func createTestDocument(t *testing.T) *aggregates.Document {
	t.Helper()
	root := valueobjects.MustBlockContentID("c1")
	g, err := aggregates.NewGraph().WithUser("u1").InsertRootBlock("Make tea", valueobjects.VerbDo, valueobjects.MustLocatedBlockID("l1"), root)
	require.NoError(t, err)
	return aggregates.NewDocument("d1", root, "u1", g, testNow)
}

// insertChild adds one block under the root
func insertChild(text string) Mutation {
	return func(g *aggregates.Graph, root valueobjects.BlockContentID) (domainservices.EditResult, error) {
		ng, err := g.InsertNewBlock(
			valueobjects.LocatedBlockID{}, root, text, valueobjects.VerbDo,
			valueobjects.MustLocatedBlockID("l-"+text), valueobjects.MustBlockContentID("c-"+text),
		)
		if err != nil {
			return domainservices.EditResult{}, err
		}
		return domainservices.EditResult{Graph: ng}, nil
	}
}

// corrupt returns a graph with a location showing missing content
func corrupt(t *testing.T) Mutation {
	return func(g *aggregates.Graph, root valueobjects.BlockContentID) (domainservices.EditResult, error) {
		broken, err := aggregates.Deserialize(`{
			"blockContents": [{"id": "c1", "verb": "DO", "humanText": "Make tea", "userId": "u1"}],
			"locatedBlocks": [
				{"id": "l1", "contentId": "c1", "userId": "u1", "blockStatus": "not_started"},
				{"id": "l2", "contentId": "c9", "userId": "u1", "blockStatus": "not_started", "parentId": "c1"}
			]
		}`)
		require.NoError(t, err)
		return domainservices.EditResult{Graph: broken}, nil
	}
}

func TestDocumentStore_CreateAndDispatch(t *testing.T) {
	repo := memory.NewDocumentRepository()
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.DocumentCreated")).Return(nil).Once()
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.DocumentChanged")).Return(nil).Once()
	store := createTestStore(repo, publisher, nil)
	ctx := context.Background()

	doc, err := store.Create(ctx, "", "u1", "Make tea", valueobjects.VerbDo)
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID())
	assert.Equal(t, 1, doc.Version())

	result, err := store.Dispatch(ctx, doc.ID(), "u2", "insert_block", insertChild("boil"))
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.False(t, result.RolledBack)
	assert.Equal(t, 2, result.Version)

	stored, err := repo.Get(ctx, doc.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version())
	content, err := stored.Graph().BlockContent(valueobjects.MustBlockContentID("c-boil"))
	require.NoError(t, err)
	assert.Equal(t, "u2", content.UserID())

	version, ok := store.CurrentVersion(doc.ID())
	assert.True(t, ok)
	assert.Equal(t, 2, version)
	publisher.AssertExpectations(t)
}

func TestDocumentStore_CreateDuplicate(t *testing.T) {
	store := createTestStore(memory.NewDocumentRepository(), nil, nil)
	ctx := context.Background()

	_, err := store.Create(ctx, "notes", "u1", "", valueobjects.VerbDo)
	require.NoError(t, err)

	_, err = store.Create(ctx, "notes", "u1", "", valueobjects.VerbDo)
	assert.True(t, errors.Is(err, pkgerrors.ErrDocumentExists))
}

func TestDocumentStore_DispatchUnchanged(t *testing.T) {
	repo := new(MockDocumentRepository)
	repo.On("Get", mock.Anything, "d1").Return(createTestDocument(t), nil).Once()
	store := createTestStore(repo, nil, nil)

	noop := func(g *aggregates.Graph, root valueobjects.BlockContentID) (domainservices.EditResult, error) {
		return domainservices.EditResult{Graph: g}, nil
	}
	result, err := store.Dispatch(context.Background(), "d1", "u1", "indent", noop)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, 1, result.Version)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDocumentStore_DispatchMutationError(t *testing.T) {
	repo := new(MockDocumentRepository)
	repo.On("Get", mock.Anything, "d1").Return(createTestDocument(t), nil).Once()
	store := createTestStore(repo, nil, nil)

	failing := func(g *aggregates.Graph, root valueobjects.BlockContentID) (domainservices.EditResult, error) {
		return domainservices.EditResult{}, pkgerrors.NewNoSuchBlock("up")
	}
	_, err := store.Dispatch(context.Background(), "d1", "u1", "backspace", failing)
	assert.True(t, errors.Is(err, pkgerrors.ErrNoSuchBlock))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDocumentStore_InvariantViolation(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
	}{
		{name: "strict mode returns the violation", strict: true},
		{name: "lenient mode keeps the last good graph", strict: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := createTestDocument(t)
			repo := new(MockDocumentRepository)
			repo.On("Get", mock.Anything, "d1").Return(doc, nil).Once()
			publisher := new(MockEventPublisher)
			if !tt.strict {
				publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.DocumentRolledBack")).Return(nil).Once()
			}
			store := createTestStore(repo, publisher, nil)
			store.SetStrict(tt.strict)

			result, err := store.Dispatch(context.Background(), "d1", "u1", "paste", corrupt(t))

			if tt.strict {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsInvariantViolation(err))
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.True(t, result.RolledBack)
				assert.False(t, result.Changed)
				assert.Equal(t, RollbackNotice, result.Notice)
				assert.NotEmpty(t, result.Problems)
				assert.Nil(t, result.Focus)
			}

			current, err := store.Get(context.Background(), "d1")
			require.NoError(t, err)
			assert.Same(t, doc, current)
			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			publisher.AssertExpectations(t)
		})
	}
}

func TestDocumentStore_DocumentTooLarge(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxBlocksPerDocument = 1
	repo := new(MockDocumentRepository)
	repo.On("Get", mock.Anything, "d1").Return(createTestDocument(t), nil).Once()
	store := createTestStore(repo, nil, cfg)

	_, err := store.Dispatch(context.Background(), "d1", "u1", "insert_block", insertChild("boil"))
	assert.True(t, errors.Is(err, pkgerrors.ErrDocumentTooLarge))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDocumentStore_ConcurrentModification(t *testing.T) {
	repo := new(MockDocumentRepository)
	repo.On("Get", mock.Anything, "d1").Return(createTestDocument(t), nil).Twice()
	repo.On("Save", mock.Anything, mock.Anything).Return(pkgerrors.NewConcurrentModification("d1", 1)).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	store := createTestStore(repo, nil, nil)
	ctx := context.Background()

	_, err := store.Dispatch(ctx, "d1", "u1", "insert_block", insertChild("boil"))
	assert.True(t, errors.Is(err, pkgerrors.ErrConcurrentModification))

	_, held := store.CurrentVersion("d1")
	assert.False(t, held, "a lost race drops the cached document")

	result, err := store.Dispatch(ctx, "d1", "u1", "insert_block", insertChild("boil"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Version)
	repo.AssertExpectations(t)
}

func TestDocumentStore_PublishFailureDoesNotFailEdit(t *testing.T) {
	repo := new(MockDocumentRepository)
	repo.On("Get", mock.Anything, "d1").Return(createTestDocument(t), nil).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus unavailable"))
	store := createTestStore(repo, publisher, nil)

	result, err := store.Dispatch(context.Background(), "d1", "u1", "insert_block", insertChild("boil"))
	require.NoError(t, err)
	assert.True(t, result.Changed)
}

func TestDocumentStore_Delete(t *testing.T) {
	repo := memory.NewDocumentRepository()
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.DocumentCreated")).Return(nil)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.DocumentDeleted")).Return(nil).Once()
	store := createTestStore(repo, publisher, nil)
	ctx := context.Background()

	doc, err := store.Create(ctx, "", "u1", "", valueobjects.VerbDo)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, doc.ID()))

	_, err = store.Get(ctx, doc.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.IsNotFound(store.Delete(ctx, doc.ID())))
	publisher.AssertExpectations(t)
}

func TestDocumentStore_RecreatedDocumentHasNewRevision(t *testing.T) {
	store := createTestStore(memory.NewDocumentRepository(), nil, nil)
	ctx := context.Background()

	first, err := store.Create(ctx, "doc", "u1", "first life", valueobjects.VerbDo)
	require.NoError(t, err)
	before, ok := store.CurrentRevision("doc")
	require.True(t, ok)
	assert.Equal(t, first.Revision(), before)

	require.NoError(t, store.Delete(ctx, "doc"))
	_, ok = store.CurrentRevision("doc")
	assert.False(t, ok)

	second, err := store.Create(ctx, "doc", "u1", "second life", valueobjects.VerbDo)
	require.NoError(t, err)
	after, ok := store.CurrentRevision("doc")
	require.True(t, ok)

	assert.Equal(t, first.Version(), second.Version())
	assert.NotEqual(t, before, after)
}

func TestDocumentStore_SetStrict(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.StrictInvariants = true
	store := createTestStore(memory.NewDocumentRepository(), nil, cfg)

	assert.True(t, store.Strict())
	store.SetStrict(false)
	assert.False(t, store.Strict())
}
