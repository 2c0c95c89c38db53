package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dwsmith1983/accredit/pkg/types"
)

// ContextSuffix is appended to a spreadsheet key to find its observation context.
const ContextSuffix = ".context.json"

// ObjectKey decodes the URL-encoded key carried in S3 event notifications.
func ObjectKey(raw string) (string, error) {
	key, err := url.QueryUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("decoding object key %q: %w", raw, err)
	}
	return key, nil
}

// ContextKey returns the sidecar key holding the observation context for key.
func ContextKey(key string) string { return key + ContextSuffix }

// FileName returns the last path element of key.
func FileName(key string) string { return path.Base(key) }

// OpenObject returns the body of s3://bucket/key. The caller closes it.
func OpenObject(ctx context.Context, api S3API, bucket, key string) (io.ReadCloser, error) {
	out, err := api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// ReadContext loads the observation context sidecar for key.
func ReadContext(ctx context.Context, api S3API, bucket, key string) (types.ObservationContext, error) {
	var obs types.ObservationContext
	body, err := OpenObject(ctx, api, bucket, ContextKey(key))
	if err != nil {
		return obs, err
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(&obs); err != nil {
		return obs, fmt.Errorf("parsing context for %s: %w", key, err)
	}
	return obs, nil
}
