package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/require"
)

// setupTestDirs creates dummy bootstrap files so CDK asset resolution
// succeeds without a real build.
func setupTestDirs(t *testing.T) StackConfig {
	t.Helper()
	lambdaDir := filepath.Join(t.TempDir(), "lambda")
	for _, h := range []string{"ingest", "listing", "watchdog"} {
		dir := filepath.Join(lambdaDir, h)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bootstrap"), []byte("#!/bin/sh\n"), 0o755))
	}

	cfg := DefaultConfig()
	cfg.LambdaDistDir = lambdaDir
	return cfg
}

func synthTemplate(t *testing.T, cfg StackConfig) assertions.Template {
	t.Helper()
	app := awscdk.NewApp(nil)
	stack := NewAccreditStack(app, "TestStack", cfg)
	return assertions.Template_FromStack(stack, nil)
}

func templateJSON(t *testing.T, tmpl assertions.Template) string {
	t.Helper()
	data, err := json.Marshal(tmpl.ToJSON())
	require.NoError(t, err)
	return string(data)
}

func TestDynamoDBTable(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.HasResourceProperties(jsii.String("AWS::DynamoDB::GlobalTable"), map[string]interface{}{
		"TableName": jsii.String("accredit"),
		"KeySchema": &[]interface{}{
			map[string]interface{}{"AttributeName": jsii.String("PK"), "KeyType": jsii.String("HASH")},
			map[string]interface{}{"AttributeName": jsii.String("SK"), "KeyType": jsii.String("RANGE")},
		},
	})
	tmpl.HasResourceProperties(jsii.String("AWS::DynamoDB::GlobalTable"), map[string]interface{}{
		"GlobalSecondaryIndexes": assertions.Match_ArrayWith(&[]interface{}{
			assertions.Match_ObjectLike(&map[string]interface{}{
				"IndexName": jsii.String("GSI1"),
				"KeySchema": &[]interface{}{
					map[string]interface{}{"AttributeName": jsii.String("GSI1PK"), "KeyType": jsii.String("HASH")},
					map[string]interface{}{"AttributeName": jsii.String("GSI1SK"), "KeyType": jsii.String("RANGE")},
				},
			}),
		}),
	})
}

func TestBuckets(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.ResourceCountIs(jsii.String("AWS::S3::Bucket"), jsii.Number(2))
	tmpl.HasResourceProperties(jsii.String("AWS::S3::Bucket"), map[string]interface{}{
		"PublicAccessBlockConfiguration": map[string]interface{}{
			"BlockPublicAcls":       true,
			"BlockPublicPolicy":     true,
			"IgnorePublicAcls":      true,
			"RestrictPublicBuckets": true,
		},
	})
}

func TestLambdaRuntimeAndArch(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	for _, name := range []string{"ingest", "listing", "watchdog"} {
		t.Run(name, func(t *testing.T) {
			tmpl.HasResourceProperties(jsii.String("AWS::Lambda::Function"), map[string]interface{}{
				"FunctionName": jsii.String("accredit-" + name),
				"Runtime":      jsii.String("provided.al2023"),
				"Architectures": &[]interface{}{
					jsii.String("arm64"),
				},
				"Handler": jsii.String("bootstrap"),
			})
		})
	}
}

func TestIngestEnvVars(t *testing.T) {
	cfg := setupTestDirs(t)
	cfg.IngestPolicy = "compensate"
	tmpl := synthTemplate(t, cfg)

	tmpl.HasResourceProperties(jsii.String("AWS::Lambda::Function"), map[string]interface{}{
		"FunctionName": jsii.String("accredit-ingest"),
		"Environment": assertions.Match_ObjectLike(&map[string]interface{}{
			"Variables": assertions.Match_ObjectLike(&map[string]interface{}{
				"STUDENT_ID_LENGTH": jsii.String("8"),
				"INGEST_POLICY":     jsii.String("compensate"),
				"FLATTEN_POLICY":    jsii.String("drop"),
				"WATCHDOG_GRACE":    jsii.String("30m"),
				"EVENT_BUS_NAME":    assertions.Match_AnyValue(),
				"ALERT_BUCKET":      assertions.Match_AnyValue(),
			}),
		}),
	})
}

func TestUploadNotifications(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.ResourceCountIs(jsii.String("Custom::S3BucketNotifications"), jsii.Number(1))
	tpl := templateJSON(t, tmpl)
	for _, suffix := range uploadSuffixes {
		require.Contains(t, tpl, `"Value":"`+suffix+`"`)
	}
	require.NotContains(t, tpl, ".context.json")
}

func TestApiRoutes(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.HasResourceProperties(jsii.String("AWS::ApiGateway::Resource"), map[string]interface{}{
		"PathPart": jsii.String("observations"),
	})
	tmpl.HasResourceProperties(jsii.String("AWS::ApiGateway::Resource"), map[string]interface{}{
		"PathPart": jsii.String("incomplete"),
	})
	tmpl.ResourceCountIs(jsii.String("AWS::ApiGateway::Method"), jsii.Number(2))
}

func TestWatchdogSchedule(t *testing.T) {
	cfg := setupTestDirs(t)
	cfg.WatchdogRateMinutes = 10
	tmpl := synthTemplate(t, cfg)

	tmpl.HasResourceProperties(jsii.String("AWS::Events::Rule"), map[string]interface{}{
		"ScheduleExpression": jsii.String("rate(10 minutes)"),
	})
}

func TestEventBusPermission(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	tmpl.HasResourceProperties(jsii.String("AWS::Events::EventBus"), map[string]interface{}{
		"Name": jsii.String("accredit-events"),
	})
	require.Contains(t, templateJSON(t, tmpl), "events:PutEvents")
}

func TestStackOutputs(t *testing.T) {
	tmpl := synthTemplate(t, setupTestDirs(t))

	for _, name := range []string{"TableName", "UploadBucket", "AlertBucket", "EventBusName", "ApiUrl"} {
		tmpl.HasOutput(jsii.String(name), map[string]interface{}{})
	}
}
