// ingest Lambda receives S3 ObjectCreated events for uploaded gradebooks and
// fans every student row out into the six projections.
package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/dwsmith1983/accredit/internal/extract"
	"github.com/dwsmith1983/accredit/internal/ingest"
	intlambda "github.com/dwsmith1983/accredit/internal/lambda"
)

var (
	deps     *intlambda.Deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps() (*intlambda.Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = intlambda.Init(context.Background())
	})
	return deps, depsErr
}

// handleS3Event ingests every spreadsheet in the event. Rejected uploads are
// logged and skipped; storage and S3 failures are returned so the invocation
// is retried.
func handleS3Event(ctx context.Context, d *intlambda.Deps, event events.S3Event) error {
	logger := d.Logger
	var errs []error

	for _, record := range event.Records {
		bucket := record.S3.Bucket.Name
		key, err := intlambda.ObjectKey(record.S3.Object.Key)
		if err != nil {
			logger.Warn("skipping record", "error", err)
			continue
		}
		if !extract.Supported(key) {
			logger.Debug("ignoring non-spreadsheet object", "bucket", bucket, "key", key)
			continue
		}
		if err := ingestObject(ctx, d, bucket, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func ingestObject(ctx context.Context, d *intlambda.Deps, bucket, key string) error {
	logger := d.Logger.With("bucket", bucket, "key", key)

	obs, err := intlambda.ReadContext(ctx, d.S3, bucket, key)
	if err != nil {
		return fmt.Errorf("reading context for %s: %w", key, err)
	}
	body, err := intlambda.OpenObject(ctx, d.S3, bucket, key)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	report, err := d.Orchestrator.IngestFile(ctx, intlambda.FileName(key), body, obs)
	switch {
	case err == nil:
		logger.Info("ingested upload",
			"batch", report.BatchID,
			"rows", len(report.Rows),
			"complete", report.CompleteRows(),
			"skipped", len(report.Skipped),
			"success", report.Success)
		return nil
	case errors.Is(err, ingest.ErrFile), ingest.IsRequestError(err):
		logger.Error("upload rejected", "batch", report.BatchID, "error", err)
		return nil
	default:
		return fmt.Errorf("ingesting %s: %w", key, err)
	}
}

func main() {
	awslambda.Start(func(ctx context.Context, event events.S3Event) error {
		d, err := getDeps()
		if err != nil {
			return err
		}
		return handleS3Event(ctx, d, event)
	})
}
