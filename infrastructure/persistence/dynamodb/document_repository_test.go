package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	return &dynamodb.PutItemOutput{}, args.Error(0)
}

func (m *MockAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.GetItemOutput), args.Error(1)
}

func (m *MockAPI) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, params)
	return &dynamodb.UpdateItemOutput{}, args.Error(0)
}

func (m *MockAPI) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params)
	return &dynamodb.DeleteItemOutput{}, args.Error(0)
}

func (m *MockAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.QueryOutput), args.Error(1)
}

func (m *MockAPI) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.ScanOutput), args.Error(1)
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func createTestDocument(t *testing.T) *aggregates.Document {
	t.Helper()
	g, err := aggregates.NewGraph().WithUser("u1").InsertRootBlock(
		"Make tea", valueobjects.VerbDo,
		valueobjects.MustLocatedBlockID("l1"), valueobjects.MustBlockContentID("c1"),
	)
	require.NoError(t, err)
	return aggregates.NewDocument("d1", valueobjects.MustBlockContentID("c1"), "u1", g, testNow)
}

func createTestRepository() (*DocumentRepository, *MockAPI) {
	client := new(MockAPI)
	return NewDocumentRepository(client, "methodable-test", "GSI1", zap.NewNop()), client
}

func storedItem(t *testing.T, doc *aggregates.Document) map[string]types.AttributeValue {
	t.Helper()
	item, err := toItem(doc)
	require.NoError(t, err)
	av, err := attributevalue.MarshalMap(item)
	require.NoError(t, err)
	return av
}

func TestDocumentRepository_Create(t *testing.T) {
	doc := createTestDocument(t)

	t.Run("writes the item conditionally", func(t *testing.T) {
		repo, client := createTestRepository()
		client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			pk, ok := in.Item["PK"].(*types.AttributeValueMemberS)
			owner, ownerOK := in.Item["GSI1PK"].(*types.AttributeValueMemberS)
			return *in.TableName == "methodable-test" &&
				ok && pk.Value == "DOC#d1" &&
				ownerOK && owner.Value == "OWNER#u1" &&
				in.ConditionExpression != nil
		})).Return(nil)

		require.NoError(t, repo.Create(context.Background(), doc))
		client.AssertExpectations(t)
	})

	t.Run("existing document", func(t *testing.T) {
		repo, client := createTestRepository()
		client.On("PutItem", mock.Anything, mock.Anything).
			Return(&types.ConditionalCheckFailedException{Message: new(string)})

		assert.ErrorIs(t, repo.Create(context.Background(), doc), pkgerrors.ErrDocumentExists)
	})
}

func TestDocumentRepository_Get(t *testing.T) {
	doc := createTestDocument(t)

	tests := []struct {
		name    string
		output  *dynamodb.GetItemOutput
		err     error
		wantErr func(error) bool
	}{
		{name: "found", output: &dynamodb.GetItemOutput{Item: storedItem(t, doc)}},
		{name: "missing", output: &dynamodb.GetItemOutput{}, wantErr: pkgerrors.IsNotFound},
		{
			name: "client failure",
			err:  errors.New("throttled"),
			wantErr: func(err error) bool {
				appErr := pkgerrors.GetAppError(err)
				return appErr != nil && appErr.Type == pkgerrors.ErrorTypeDatabase
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, client := createTestRepository()
			client.On("GetItem", mock.Anything, mock.Anything).Return(tt.output, tt.err)

			got, err := repo.Get(context.Background(), "d1")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "d1", got.ID())
			assert.Equal(t, 1, got.Version())
			assert.True(t, got.UpdatedAt().Equal(testNow))
			assert.True(t, doc.Graph().Equal(got.Graph()))
		})
	}
}

func TestDocumentRepository_Save(t *testing.T) {
	next := createTestDocument(t).WithGraph(createTestDocument(t).Graph(), testNow)

	t.Run("conditional on the previous version", func(t *testing.T) {
		repo, client := createTestRepository()
		client.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			for _, v := range in.ExpressionAttributeValues {
				if n, ok := v.(*types.AttributeValueMemberN); ok && n.Value == "1" {
					return in.ConditionExpression != nil && in.UpdateExpression != nil
				}
			}
			return false
		})).Return(nil)

		require.NoError(t, repo.Save(context.Background(), next))
		client.AssertExpectations(t)
	})

	t.Run("lost race", func(t *testing.T) {
		repo, client := createTestRepository()
		client.On("UpdateItem", mock.Anything, mock.Anything).
			Return(&types.ConditionalCheckFailedException{Message: new(string)})

		assert.ErrorIs(t, repo.Save(context.Background(), next), pkgerrors.ErrConcurrentModification)
	})
}

func TestDocumentRepository_Delete(t *testing.T) {
	repo, client := createTestRepository()
	client.On("DeleteItem", mock.Anything, mock.Anything).
		Return(&types.ConditionalCheckFailedException{Message: new(string)}).Once()
	client.On("DeleteItem", mock.Anything, mock.Anything).Return(nil).Once()

	assert.ErrorIs(t, repo.Delete(context.Background(), "d1"), pkgerrors.ErrDocumentNotFound)
	assert.NoError(t, repo.Delete(context.Background(), "d1"))
}

func TestDocumentRepository_List(t *testing.T) {
	doc := createTestDocument(t)
	item := storedItem(t, doc)

	t.Run("by owner pages through the index", func(t *testing.T) {
		repo, client := createTestRepository()
		page := map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "DOC#d1"}}
		client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return *in.IndexName == "GSI1" && in.ExclusiveStartKey == nil
		})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}, LastEvaluatedKey: page}, nil)
		client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return in.ExclusiveStartKey != nil
		})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}, nil)

		summaries, err := repo.List(context.Background(), "u1")
		require.NoError(t, err)
		require.Len(t, summaries, 2)
		assert.Equal(t, "d1", summaries[0].ID)
		assert.Equal(t, "c1", summaries[0].RootContentID)
		client.AssertNumberOfCalls(t, "Query", 2)
	})

	t.Run("everything scans", func(t *testing.T) {
		repo, client := createTestRepository()
		client.On("Scan", mock.Anything, mock.Anything).
			Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{item}}, nil)

		summaries, err := repo.List(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "u1", summaries[0].OwnerID)
		client.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	})
}
