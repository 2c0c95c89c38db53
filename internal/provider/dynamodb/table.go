package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// table is one projection's view of the shared table.
type table[T any] struct {
	p    *DynamoDBProvider
	kind types.ProjectionKind
}

func newTable[T any](p *DynamoDBProvider, kind types.ProjectionKind) *table[T] {
	return &table[T]{p: p, kind: kind}
}

func (t *table[T]) key(id string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		attrPK: &ddbtypes.AttributeValueMemberS{Value: projectionPK(t.kind, id)},
		attrSK: &ddbtypes.AttributeValueMemberS{Value: projectionSK()},
	}
}

func (t *table[T]) item(id string, rec T) (map[string]ddbtypes.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s record: %w", t.kind, err)
	}
	for k, v := range t.key(id) {
		item[k] = v
	}
	item[attrGSI1PK] = &ddbtypes.AttributeValueMemberS{Value: kindGSI1PK(t.kind)}
	item[attrGSI1SK] = &ddbtypes.AttributeValueMemberS{Value: id}
	return item, nil
}

func (t *table[T]) Insert(ctx context.Context, id string, rec T) error {
	item, err := t.item(id, rec)
	if err != nil {
		return err
	}
	_, err = t.p.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &t.p.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return provider.ErrAlreadyExists
		}
		return fmt.Errorf("putting %s %s: %w", t.kind, id, err)
	}
	return nil
}

func (t *table[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	out, err := t.p.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &t.p.tableName,
		Key:            t.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return rec, fmt.Errorf("getting %s %s: %w", t.kind, id, err)
	}
	if out.Item == nil {
		return rec, provider.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return rec, fmt.Errorf("unmarshaling %s %s: %w", t.kind, id, err)
	}
	return rec, nil
}

func (t *table[T]) Put(ctx context.Context, id string, rec T) error {
	item, err := t.item(id, rec)
	if err != nil {
		return err
	}
	_, err = t.p.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &t.p.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return provider.ErrNotFound
		}
		return fmt.Errorf("replacing %s %s: %w", t.kind, id, err)
	}
	return nil
}

func (t *table[T]) Delete(ctx context.Context, id string) error {
	_, err := t.p.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &t.p.tableName,
		Key:                 t.key(id),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return provider.ErrNotFound
		}
		return fmt.Errorf("deleting %s %s: %w", t.kind, id, err)
	}
	return nil
}

// ListIDs queries GSI1 newest first, following pagination to the end.
func (t *table[T]) ListIDs(ctx context.Context) ([]string, error) {
	paginator := dynamodb.NewQueryPaginator(t.p.client, &dynamodb.QueryInput{
		TableName:              &t.p.tableName,
		IndexName:              aws.String(indexGSI1),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk": &ddbtypes.AttributeValueMemberS{Value: kindGSI1PK(t.kind)},
		},
		ScanIndexForward: aws.Bool(false),
	})

	var ids []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s ids: %w", t.kind, err)
		}
		for _, item := range page.Items {
			id, err := attributeStr(item, attrGSI1SK)
			if err != nil {
				t.p.logger.Warn("skipping corrupt index entry", "kind", t.kind, "error", err)
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// attributeStr extracts a string attribute from a DynamoDB item.
func attributeStr(item map[string]ddbtypes.AttributeValue, key string) (string, error) {
	av, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	var s string
	if err := attributevalue.Unmarshal(av, &s); err != nil {
		return "", fmt.Errorf("unmarshaling %q: %w", key, err)
	}
	return s, nil
}
