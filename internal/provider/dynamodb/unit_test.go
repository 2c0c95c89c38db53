package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/internal/provider/providertest"
)

// mockDDB is a minimal mock of the DDBAPI interface for unit testing.
type mockDDB struct {
	putItemFn       func(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	getItemFn       func(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	deleteItemFn    func(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	queryFn         func(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	describeTableFn func(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	createTableFn   func(ctx context.Context, input *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

func (m *mockDDB) PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.putItemFn != nil {
		return m.putItemFn(ctx, input, opts...)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDB) GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getItemFn != nil {
		return m.getItemFn(ctx, input, opts...)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockDDB) DeleteItem(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if m.deleteItemFn != nil {
		return m.deleteItemFn(ctx, input, opts...)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDDB) Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, input, opts...)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (m *mockDDB) DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if m.describeTableFn != nil {
		return m.describeTableFn(ctx, input, opts...)
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func (m *mockDDB) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if m.createTableFn != nil {
		return m.createTableFn(ctx, input, opts...)
	}
	return &dynamodb.CreateTableOutput{}, nil
}

func newTestProvider(mock *mockDDB) *DynamoDBProvider {
	return NewWithClient(mock, "test-table")
}

func strAttr(t *testing.T, item map[string]ddbtypes.AttributeValue, key string) string {
	t.Helper()
	s, err := attributeStr(item, key)
	require.NoError(t, err)
	return s
}

func TestInsert_ItemKeys(t *testing.T) {
	var captured *dynamodb.PutItemInput
	mock := &mockDDB{
		putItemFn: func(_ context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			captured = input
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	p := newTestProvider(mock)

	rec := providertest.SampleFaculty("01JID")
	require.NoError(t, p.Faculty().Insert(context.Background(), "01JID", rec))
	require.NotNil(t, captured, "PutItem was not called")

	assert.Equal(t, "test-table", *captured.TableName)
	assert.Equal(t, "attribute_not_exists(PK)", *captured.ConditionExpression)
	assert.Equal(t, "FACULTY#01JID", strAttr(t, captured.Item, "PK"))
	assert.Equal(t, "PROJECTION", strAttr(t, captured.Item, "SK"))
	assert.Equal(t, "KIND#faculty", strAttr(t, captured.Item, "GSI1PK"))
	assert.Equal(t, "01JID", strAttr(t, captured.Item, "GSI1SK"))
	assert.Equal(t, "Grace", strAttr(t, captured.Item, "instr_first_name"))
}

func TestInsert_Duplicate(t *testing.T) {
	mock := &mockDDB{
		putItemFn: func(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			return nil, &ddbtypes.ConditionalCheckFailedException{}
		},
	}
	err := newTestProvider(mock).Process().Insert(context.Background(), "x", providertest.SampleProcess("x"))
	assert.ErrorIs(t, err, provider.ErrAlreadyExists)
}

func TestInsert_ClientError(t *testing.T) {
	mock := &mockDDB{
		putItemFn: func(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	err := newTestProvider(mock).Process().Insert(context.Background(), "x", providertest.SampleProcess("x"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, provider.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "throttled")
}

func TestGet_RoundTrip(t *testing.T) {
	rec := providertest.SampleValidity("01JID")
	item, err := attributevalue.MarshalMap(rec)
	require.NoError(t, err)
	item["PK"] = &ddbtypes.AttributeValueMemberS{Value: "VALIDITY#01JID"}

	var key map[string]ddbtypes.AttributeValue
	mock := &mockDDB{
		getItemFn: func(_ context.Context, input *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			key = input.Key
			return &dynamodb.GetItemOutput{Item: item}, nil
		},
	}
	got, err := newTestProvider(mock).Validity().Get(context.Background(), "01JID")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, "VALIDITY#01JID", strAttr(t, key, "PK"))
}

func TestGet_Missing(t *testing.T) {
	_, err := newTestProvider(&mockDDB{}).Annual().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestPut_Missing(t *testing.T) {
	var captured *dynamodb.PutItemInput
	mock := &mockDDB{
		putItemFn: func(_ context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			captured = input
			return nil, &ddbtypes.ConditionalCheckFailedException{}
		},
	}
	err := newTestProvider(mock).Program().Put(context.Background(), "x", providertest.SampleProgram("x"))
	assert.ErrorIs(t, err, provider.ErrNotFound)
	assert.Equal(t, "attribute_exists(PK)", *captured.ConditionExpression)
}

func TestDelete_Missing(t *testing.T) {
	mock := &mockDDB{
		deleteItemFn: func(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
			return nil, &ddbtypes.ConditionalCheckFailedException{}
		},
	}
	err := newTestProvider(mock).Accreditation().Delete(context.Background(), "x")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestListIDs_PaginatesDescending(t *testing.T) {
	page := func(ids ...string) []map[string]ddbtypes.AttributeValue {
		var items []map[string]ddbtypes.AttributeValue
		for _, id := range ids {
			items = append(items, map[string]ddbtypes.AttributeValue{
				"GSI1SK": &ddbtypes.AttributeValueMemberS{Value: id},
			})
		}
		return items
	}

	calls := 0
	mock := &mockDDB{
		queryFn: func(_ context.Context, input *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			calls++
			assert.Equal(t, "GSI1", *input.IndexName)
			assert.False(t, *input.ScanIndexForward)
			assert.Equal(t, "KIND#process", input.ExpressionAttributeValues[":pk"].(*ddbtypes.AttributeValueMemberS).Value)
			if input.ExclusiveStartKey == nil {
				return &dynamodb.QueryOutput{
					Items: page("c", "b"),
					LastEvaluatedKey: map[string]ddbtypes.AttributeValue{
						"GSI1SK": &ddbtypes.AttributeValueMemberS{Value: "b"},
					},
				}, nil
			}
			return &dynamodb.QueryOutput{Items: page("a")}, nil
		},
	}
	ids, err := newTestProvider(mock).Process().ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids)
	assert.Equal(t, 2, calls)
}

func TestEnsureTable_AlreadyExists(t *testing.T) {
	mock := &mockDDB{
		createTableFn: func(context.Context, *dynamodb.CreateTableInput, ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
			return nil, &ddbtypes.ResourceInUseException{}
		},
	}
	p := newTestProvider(mock)
	p.createTable = true
	assert.NoError(t, p.Start(context.Background()))
}

func TestPing_Error(t *testing.T) {
	mock := &mockDDB{
		describeTableFn: func(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
			return nil, errors.New("no such table")
		},
	}
	err := newTestProvider(mock).Ping(context.Background())
	assert.ErrorContains(t, err, "dynamodb ping failed")
}
