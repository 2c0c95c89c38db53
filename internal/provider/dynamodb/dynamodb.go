// Package dynamodb implements the Provider interface using AWS DynamoDB.
// All six projections share one table; GSI1 indexes identifiers by kind.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// Compile-time interface satisfaction check.
var _ provider.Provider = (*DynamoDBProvider)(nil)

// DDBAPI is the subset of the DynamoDB client used by the provider.
type DDBAPI interface {
	PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, input *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoDBProvider implements the Provider interface backed by DynamoDB.
type DynamoDBProvider struct {
	client      DDBAPI
	tableName   string
	logger      *slog.Logger
	createTable bool

	process       *table[types.ProcessRecord]
	faculty       *table[types.FacultyMetric]
	program       *table[types.ProgramMetric]
	validity      *table[types.ValidityRecord]
	accreditation *table[types.AccreditationReportRow]
	annual        *table[types.AnnualReportRow]
}

// New creates a new DynamoDBProvider.
func New(cfg *types.DynamoDBConfig) (*DynamoDBProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	// For DynamoDB Local: use static credentials and custom endpoint.
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var clientOpts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	p := NewWithClient(dynamodb.NewFromConfig(awsCfg, clientOpts...), cfg.TableName)
	p.createTable = cfg.CreateTable
	return p, nil
}

// NewWithClient creates a provider over an existing client (useful for testing).
func NewWithClient(client DDBAPI, tableName string) *DynamoDBProvider {
	p := &DynamoDBProvider{
		client:    client,
		tableName: tableName,
		logger:    slog.Default(),
	}
	p.process = newTable[types.ProcessRecord](p, types.KindProcess)
	p.faculty = newTable[types.FacultyMetric](p, types.KindFaculty)
	p.program = newTable[types.ProgramMetric](p, types.KindProgram)
	p.validity = newTable[types.ValidityRecord](p, types.KindValidity)
	p.accreditation = newTable[types.AccreditationReportRow](p, types.KindAccreditation)
	p.annual = newTable[types.AnnualReportRow](p, types.KindAnnual)
	return p
}

// SetLogger overrides the default logger.
func (p *DynamoDBProvider) SetLogger(l *slog.Logger) {
	if l != nil {
		p.logger = l
	}
}

func (p *DynamoDBProvider) Process() provider.Store[types.ProcessRecord]   { return p.process }
func (p *DynamoDBProvider) Faculty() provider.Store[types.FacultyMetric]   { return p.faculty }
func (p *DynamoDBProvider) Program() provider.Store[types.ProgramMetric]   { return p.program }
func (p *DynamoDBProvider) Validity() provider.Store[types.ValidityRecord] { return p.validity }
func (p *DynamoDBProvider) Accreditation() provider.Store[types.AccreditationReportRow] {
	return p.accreditation
}
func (p *DynamoDBProvider) Annual() provider.Store[types.AnnualReportRow] { return p.annual }

// Start initializes the provider: pings DynamoDB and optionally creates the table.
func (p *DynamoDBProvider) Start(ctx context.Context) error {
	if p.createTable {
		if err := p.ensureTable(ctx); err != nil {
			return err
		}
	}
	return p.Ping(ctx)
}

// Stop is a no-op for DynamoDB (no persistent connections to close).
func (p *DynamoDBProvider) Stop(_ context.Context) error {
	return nil
}

// Ping checks connectivity by describing the table.
func (p *DynamoDBProvider) Ping(ctx context.Context) error {
	_, err := p.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: &p.tableName,
	})
	if err != nil {
		return fmt.Errorf("dynamodb ping failed: %w", err)
	}
	return nil
}

func (p *DynamoDBProvider) ensureTable(ctx context.Context) error {
	_, err := p.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &p.tableName,
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: aws.String(attrPK), KeyType: ddbtypes.KeyTypeHash},
			{AttributeName: aws.String(attrSK), KeyType: ddbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: aws.String(attrPK), AttributeType: ddbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrSK), AttributeType: ddbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrGSI1PK), AttributeType: ddbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrGSI1SK), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexes: []ddbtypes.GlobalSecondaryIndex{
			{
				IndexName: aws.String(indexGSI1),
				KeySchema: []ddbtypes.KeySchemaElement{
					{AttributeName: aws.String(attrGSI1PK), KeyType: ddbtypes.KeyTypeHash},
					{AttributeName: aws.String(attrGSI1SK), KeyType: ddbtypes.KeyTypeRange},
				},
				Projection: &ddbtypes.Projection{ProjectionType: ddbtypes.ProjectionTypeKeysOnly},
			},
		},
		BillingMode: ddbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		var riue *ddbtypes.ResourceInUseException
		if errors.As(err, &riue) {
			return nil // table already exists
		}
		return fmt.Errorf("creating table: %w", err)
	}
	p.logger.Info("created projection table", "table", p.tableName)
	return nil
}

// isConditionalCheckFailed returns true if the error is a DynamoDB ConditionalCheckFailedException.
func isConditionalCheckFailed(err error) bool {
	var ccfe *ddbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccfe)
}
