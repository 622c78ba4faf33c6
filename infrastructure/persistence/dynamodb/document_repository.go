package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/application/ports"
	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
	"github.com/dnsosebee/methodable-sub000/domain/versioning"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

const (
	entityTypeDocument = "DOCUMENT"
	documentSortKey    = "DOCUMENT"
)

// API is the subset of the DynamoDB client the repository uses
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DocumentRepository implements ports.DocumentRepository with one item per
// document holding the serialized graph. Saves are conditional on the
// stored version, which gives optimistic locking across Lambda instances.
type DocumentRepository struct {
	client    API
	tableName string
	indexName string
	logger    *zap.Logger
}

// documentItem represents the DynamoDB item structure for a document
type documentItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	GSI1PK        string `dynamodbav:"GSI1PK"` // OWNER#<owner>, for per-owner listing
	GSI1SK        string `dynamodbav:"GSI1SK"`
	EntityType    string `dynamodbav:"EntityType"`
	DocumentID    string `dynamodbav:"DocumentID"`
	RootContentID string `dynamodbav:"RootContentID"`
	OwnerID       string `dynamodbav:"OwnerID"`
	Graph         string `dynamodbav:"Graph"`
	Checksum      string `dynamodbav:"Checksum"`
	Version       int    `dynamodbav:"Version"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
	UpdatedAt     string `dynamodbav:"UpdatedAt"`
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(client API, tableName, indexName string, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

func documentKey(documentID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("DOC#%s", documentID)},
		"SK": &types.AttributeValueMemberS{Value: documentSortKey},
	}
}

func toItem(doc *aggregates.Document) (*documentItem, error) {
	graph, err := aggregates.Serialize(doc.Graph())
	if err != nil {
		return nil, err
	}
	checksum, err := versioning.Checksum(doc.Graph())
	if err != nil {
		return nil, err
	}
	return &documentItem{
		PK:            fmt.Sprintf("DOC#%s", doc.ID()),
		SK:            documentSortKey,
		GSI1PK:        fmt.Sprintf("OWNER#%s", doc.OwnerID()),
		GSI1SK:        fmt.Sprintf("DOC#%s", doc.ID()),
		EntityType:    entityTypeDocument,
		DocumentID:    doc.ID(),
		RootContentID: doc.RootContentID().String(),
		OwnerID:       doc.OwnerID(),
		Graph:         graph,
		Checksum:      checksum,
		Version:       doc.Version(),
		CreatedAt:     doc.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:     doc.UpdatedAt().Format(time.RFC3339Nano),
	}, nil
}

func fromItem(item *documentItem) (*aggregates.Document, error) {
	g, err := aggregates.Deserialize(item.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to decode graph of %s: %w", item.DocumentID, err)
	}
	root, err := valueobjects.NewBlockContentID(item.RootContentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", item.DocumentID, err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return aggregates.ReconstructDocument(item.DocumentID, root, item.OwnerID, g, item.Version, createdAt, updatedAt), nil
}

func summaryFromItem(item *documentItem) ports.DocumentSummary {
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return ports.DocumentSummary{
		ID:            item.DocumentID,
		RootContentID: item.RootContentID,
		OwnerID:       item.OwnerID,
		Version:       item.Version,
		UpdatedAt:     updatedAt,
	}
}

func isConditionFailure(err error) bool {
	var conditionalCheckFailed *types.ConditionalCheckFailedException
	return errors.As(err, &conditionalCheckFailed)
}

// Create stores the first revision of a document
func (r *DocumentRepository) Create(ctx context.Context, doc *aggregates.Document) error {
	item, err := toItem(doc)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailure(err) {
			return pkgerrors.NewDocumentExists(doc.ID())
		}
		return pkgerrors.NewDatabaseError("create document", err)
	}

	r.logger.Debug("Document created",
		zap.String("document_id", doc.ID()),
		zap.Int("graph_bytes", len(item.Graph)),
	)
	return nil
}

// Get retrieves the latest revision of a document
func (r *DocumentRepository) Get(ctx context.Context, documentID string) (*aggregates.Document, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            documentKey(documentID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get document", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewDocumentNotFound(documentID)
	}

	var item documentItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return fromItem(&item)
}

// Save writes the next revision if nobody else has since the one it was based on
func (r *DocumentRepository) Save(ctx context.Context, doc *aggregates.Document) error {
	item, err := toItem(doc)
	if err != nil {
		return err
	}

	update := expression.Set(expression.Name("Graph"), expression.Value(item.Graph)).
		Set(expression.Name("Checksum"), expression.Value(item.Checksum)).
		Set(expression.Name("Version"), expression.Value(item.Version)).
		Set(expression.Name("UpdatedAt"), expression.Value(item.UpdatedAt))
	condition := expression.Equal(expression.Name("Version"), expression.Value(doc.Version()-1))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       documentKey(doc.ID()),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailure(err) {
			return pkgerrors.NewConcurrentModification(doc.ID(), doc.Version()-1)
		}
		return pkgerrors.NewDatabaseError("save document", err)
	}
	return nil
}

// Delete removes a document
func (r *DocumentRepository) Delete(ctx context.Context, documentID string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      documentKey(documentID),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailure(err) {
			return pkgerrors.NewDocumentNotFound(documentID)
		}
		return pkgerrors.NewDatabaseError("delete document", err)
	}
	return nil
}

// List returns document summaries. With an owner it queries the owner index,
// otherwise it scans the table.
func (r *DocumentRepository) List(ctx context.Context, ownerID string) ([]ports.DocumentSummary, error) {
	projection := expression.NamesList(
		expression.Name("DocumentID"),
		expression.Name("RootContentID"),
		expression.Name("OwnerID"),
		expression.Name("Version"),
		expression.Name("UpdatedAt"),
	)

	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue

	if ownerID != "" {
		keyEx := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("OWNER#%s", ownerID))).
			And(expression.Key("GSI1SK").BeginsWith("DOC#"))
		expr, err := expression.NewBuilder().
			WithKeyCondition(keyEx).
			WithProjection(projection).
			Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build expression: %w", err)
		}
		for {
			result, err := r.client.Query(ctx, &dynamodb.QueryInput{
				TableName:                 aws.String(r.tableName),
				IndexName:                 aws.String(r.indexName),
				KeyConditionExpression:    expr.KeyCondition(),
				ProjectionExpression:      expr.Projection(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
				ExclusiveStartKey:         lastKey,
			})
			if err != nil {
				return nil, pkgerrors.NewDatabaseError("list documents", err)
			}
			items = append(items, result.Items...)
			if lastKey = result.LastEvaluatedKey; len(lastKey) == 0 {
				break
			}
		}
	} else {
		expr, err := expression.NewBuilder().
			WithFilter(expression.Name("EntityType").Equal(expression.Value(entityTypeDocument))).
			WithProjection(projection).
			Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build expression: %w", err)
		}
		for {
			result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
				TableName:                 aws.String(r.tableName),
				FilterExpression:          expr.Filter(),
				ProjectionExpression:      expr.Projection(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
				ExclusiveStartKey:         lastKey,
			})
			if err != nil {
				return nil, pkgerrors.NewDatabaseError("list documents", err)
			}
			items = append(items, result.Items...)
			if lastKey = result.LastEvaluatedKey; len(lastKey) == 0 {
				break
			}
		}
	}

	var records []documentItem
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
	}
	out := make([]ports.DocumentSummary, 0, len(records))
	for i := range records {
		out = append(out, summaryFromItem(&records[i]))
	}
	return out, nil
}
