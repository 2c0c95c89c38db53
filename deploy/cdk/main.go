package main

import (
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	cfg := DefaultConfig()

	if name := os.Getenv("ACCREDIT_STACK_PREFIX"); name != "" {
		cfg.Name = name
	}
	if policy := os.Getenv("ACCREDIT_INGEST_POLICY"); policy != "" {
		cfg.IngestPolicy = policy
	}
	if policy := os.Getenv("ACCREDIT_FLATTEN_POLICY"); policy != "" {
		cfg.FlattenPolicy = policy
	}
	cfg.DestroyOnDelete = os.Getenv("ACCREDIT_DESTROY_ON_DELETE") == "true"

	stackName := "AccreditStack"
	if name := os.Getenv("ACCREDIT_STACK_NAME"); name != "" {
		stackName = name
	}

	NewAccreditStack(app, stackName, cfg)
	app.Synth(nil)
}
