package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoStore keeps documents in a DynamoDB table with a composite key:
// collection (partition) and key (sort), split from the document path.
// Dynamo has no push-style change stream we consume directly, so Watch is
// not supported here; deployments pair this backend with the Kafka change
// feed and serve watches from a mirror (see Composite).
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

type dynamoDocument struct {
	Collection string `dynamodbav:"collection"`
	Key        string `dynamodbav:"key"`
	Doc        string `dynamodbav:"doc"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

// splitPath splits "products/abc" into ("products", "abc"). A path without
// a slash addresses a collection-level document with an empty key.
func splitPath(path string) (collection, key string) {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}

func (ds *DynamoStore) Get(ctx context.Context, path string) (Snapshot, error) {
	collection, key := splitPath(path)
	out, err := ds.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ds.tableName),
		Key: map[string]types.AttributeValue{
			"collection": &types.AttributeValueMemberS{Value: collection},
			"key":        &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get document %s: %w", path, err)
	}
	if out.Item == nil {
		return NewSnapshot(path, nil), nil
	}

	var item dynamoDocument
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal document %s: %w", path, err)
	}
	return NewSnapshot(path, json.RawMessage(item.Doc)), nil
}

func (ds *DynamoStore) Set(ctx context.Context, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	collection, key := splitPath(path)
	item, err := attributevalue.MarshalMap(dynamoDocument{
		Collection: collection,
		Key:        key,
		Doc:        string(raw),
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", path, err)
	}

	_, err = ds.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(ds.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put document %s: %w", path, err)
	}
	return nil
}

func (ds *DynamoStore) Delete(ctx context.Context, path string) error {
	collection, key := splitPath(path)
	_, err := ds.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(ds.tableName),
		Key: map[string]types.AttributeValue{
			"collection": &types.AttributeValueMemberS{Value: collection},
			"key":        &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", path, err)
	}
	return nil
}

func (ds *DynamoStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := uuid.New().String()
	if err := ds.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (ds *DynamoStore) List(ctx context.Context, path string) (map[string]Snapshot, error) {
	out, err := ds.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(ds.tableName),
		KeyConditionExpression: aws.String("#c = :collection"),
		ExpressionAttributeNames: map[string]string{
			"#c": "collection",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":collection": &types.AttributeValueMemberS{Value: path},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents under %s: %w", path, err)
	}

	children := make(map[string]Snapshot)
	for _, rawItem := range out.Items {
		var item dynamoDocument
		if err := attributevalue.UnmarshalMap(rawItem, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document under %s: %w", path, err)
		}
		children[item.Key] = NewSnapshot(path+"/"+item.Key, json.RawMessage(item.Doc))
	}
	return children, nil
}

func (ds *DynamoStore) Watch(context.Context, string) (<-chan Snapshot, func(), error) {
	return nil, nil, ErrWatchNotSupported
}
