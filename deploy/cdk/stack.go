package main

import (
	"path/filepath"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awseventstargets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3notifications"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// uploadSuffixes are the spreadsheet extensions that trigger ingestion.
// Context sidecars (.context.json) never match.
var uploadSuffixes = []string{".csv", ".txt", ".xlsx", ".xlsm"}

func NewAccreditStack(scope constructs.Construct, id string, cfg StackConfig) awscdk.Stack {
	stack := awscdk.NewStack(scope, &id, nil)

	// Table: one item per projection record, GSI1 lists identifiers by kind.
	table := awsdynamodb.NewTableV2(stack, jsii.String("Table"), &awsdynamodb.TablePropsV2{
		TableName: jsii.String(cfg.Name),
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("PK"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		SortKey: &awsdynamodb.Attribute{
			Name: jsii.String("SK"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		Billing:       awsdynamodb.Billing_OnDemand(nil),
		RemovalPolicy: removalPolicy(cfg.DestroyOnDelete),
		GlobalSecondaryIndexes: &[]*awsdynamodb.GlobalSecondaryIndexPropsV2{
			{
				IndexName: jsii.String("GSI1"),
				PartitionKey: &awsdynamodb.Attribute{
					Name: jsii.String("GSI1PK"),
					Type: awsdynamodb.AttributeType_STRING,
				},
				SortKey: &awsdynamodb.Attribute{
					Name: jsii.String("GSI1SK"),
					Type: awsdynamodb.AttributeType_STRING,
				},
			},
		},
	})

	uploads := newBucket(stack, "Uploads", cfg)
	alerts := newBucket(stack, "Alerts", cfg)

	bus := awsevents.NewEventBus(stack, jsii.String("EventBus"), &awsevents.EventBusProps{
		EventBusName: jsii.String(cfg.Name + "-events"),
	})

	commonEnv := map[string]*string{
		"TABLE_NAME":        table.TableName(),
		"STUDENT_ID_LENGTH": jsii.String(cfg.StudentIDLength),
		"INGEST_POLICY":     jsii.String(cfg.IngestPolicy),
		"FLATTEN_POLICY":    jsii.String(cfg.FlattenPolicy),
		"ALERT_BUCKET":      alerts.BucketName(),
		"WATCHDOG_GRACE":    jsii.String(cfg.WatchdogGrace),
	}
	withEnv := func(extra map[string]*string) *map[string]*string {
		env := make(map[string]*string, len(commonEnv)+len(extra))
		for k, v := range commonEnv {
			env[k] = v
		}
		for k, v := range extra {
			env[k] = v
		}
		return &env
	}

	timeout := awscdk.Duration_Seconds(jsii.Number(cfg.Timeout))
	memorySize := jsii.Number(cfg.MemorySize)
	logRetention := logRetentionDays(cfg.LogRetentionDays)

	makeFn := func(name string, env *map[string]*string) awslambda.Function {
		return awslambda.NewFunction(stack, jsii.String(name), &awslambda.FunctionProps{
			FunctionName: jsii.String(cfg.Name + "-" + name),
			Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
			Handler:      jsii.String("bootstrap"),
			Code:         awslambda.Code_FromAsset(jsii.String(filepath.Join(cfg.LambdaDistDir, name)), nil),
			Architecture: awslambda.Architecture_ARM_64(),
			MemorySize:   memorySize,
			Timeout:      timeout,
			Environment:  env,
			LogRetention: logRetention,
		})
	}

	ingestFn := makeFn("ingest", withEnv(map[string]*string{"EVENT_BUS_NAME": bus.EventBusName()}))
	listingFn := makeFn("listing", withEnv(nil))
	watchdogFn := makeFn("watchdog", withEnv(nil))

	// Ingest writes the six projections; listing and watchdog only read.
	table.GrantReadWriteData(ingestFn)
	table.GrantReadData(listingFn)
	table.GrantReadData(watchdogFn)

	uploads.GrantRead(ingestFn, nil)
	alerts.GrantPut(ingestFn, nil)
	alerts.GrantPut(watchdogFn, nil)

	ingestFn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   &[]*string{jsii.String("events:PutEvents")},
		Resources: &[]*string{bus.EventBusArn()},
	}))

	for _, suffix := range uploadSuffixes {
		uploads.AddEventNotification(awss3.EventType_OBJECT_CREATED,
			awss3notifications.NewLambdaDestination(ingestFn),
			&awss3.NotificationKeyFilter{Suffix: jsii.String(suffix)})
	}

	api := awsapigateway.NewLambdaRestApi(stack, jsii.String("Api"), &awsapigateway.LambdaRestApiProps{
		RestApiName: jsii.String(cfg.Name + "-api"),
		Handler:     listingFn,
		Proxy:       jsii.Bool(false),
	})
	observations := api.Root().AddResource(jsii.String("observations"), nil)
	observations.AddMethod(jsii.String("GET"), nil, nil)
	observations.AddResource(jsii.String("incomplete"), nil).AddMethod(jsii.String("GET"), nil, nil)

	awsevents.NewRule(stack, jsii.String("WatchdogSchedule"), &awsevents.RuleProps{
		Schedule: awsevents.Schedule_Rate(awscdk.Duration_Minutes(jsii.Number(cfg.WatchdogRateMinutes))),
		Targets:  &[]awsevents.IRuleTarget{awseventstargets.NewLambdaFunction(watchdogFn, nil)},
	})

	awscdk.NewCfnOutput(stack, jsii.String("TableName"), &awscdk.CfnOutputProps{
		Value: table.TableName(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("UploadBucket"), &awscdk.CfnOutputProps{
		Value: uploads.BucketName(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("AlertBucket"), &awscdk.CfnOutputProps{
		Value: alerts.BucketName(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("EventBusName"), &awscdk.CfnOutputProps{
		Value: bus.EventBusName(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("ApiUrl"), &awscdk.CfnOutputProps{
		Value: api.Url(),
	})

	return stack
}

func newBucket(stack awscdk.Stack, id string, cfg StackConfig) awss3.Bucket {
	return awss3.NewBucket(stack, jsii.String(id), &awss3.BucketProps{
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		EnforceSSL:        jsii.Bool(true),
		RemovalPolicy:     removalPolicy(cfg.DestroyOnDelete),
	})
}

func removalPolicy(destroy bool) awscdk.RemovalPolicy {
	if destroy {
		return awscdk.RemovalPolicy_DESTROY
	}
	return awscdk.RemovalPolicy_RETAIN
}

func logRetentionDays(days float64) awslogs.RetentionDays {
	switch days {
	case 1:
		return awslogs.RetentionDays_ONE_DAY
	case 3:
		return awslogs.RetentionDays_THREE_DAYS
	case 5:
		return awslogs.RetentionDays_FIVE_DAYS
	case 7:
		return awslogs.RetentionDays_ONE_WEEK
	case 14:
		return awslogs.RetentionDays_TWO_WEEKS
	case 30:
		return awslogs.RetentionDays_ONE_MONTH
	case 60:
		return awslogs.RetentionDays_TWO_MONTHS
	case 90:
		return awslogs.RetentionDays_THREE_MONTHS
	case 365:
		return awslogs.RetentionDays_ONE_YEAR
	default:
		return awslogs.RetentionDays_ONE_WEEK
	}
}
