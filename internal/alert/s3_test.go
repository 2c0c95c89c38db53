package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/accredit/pkg/types"
)

type mockS3Client struct {
	lastInput *s3.PutObjectInput
	err       error
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.lastInput = input
	return &s3.PutObjectOutput{}, m.err
}

func TestS3Sink_Send(t *testing.T) {
	mock := &mockS3Client{}
	sink, err := NewS3Sink(context.Background(), "my-bucket", "alerts/", WithS3Client(mock))
	require.NoError(t, err)
	assert.Equal(t, "s3", sink.Name())

	now := time.Date(2026, 2, 23, 14, 30, 0, 0, time.UTC)
	err = sink.Send(context.Background(), types.Alert{
		Level:         types.AlertLevelWarning,
		Category:      types.AlertCategoryIncomplete,
		ObservationID: "obs-1",
		Message:       "missing annual",
		Timestamp:     now,
	})
	require.NoError(t, err)

	require.NotNil(t, mock.lastInput)
	assert.Equal(t, "my-bucket", *mock.lastInput.Bucket)
	assert.Equal(t, "alerts/2026-02-23/incomplete_observation/obs-1/1771857000000-warning.json", *mock.lastInput.Key)
	assert.Equal(t, "application/json", *mock.lastInput.ContentType)
}

func TestS3Sink_KeyFallbacks(t *testing.T) {
	mock := &mockS3Client{}
	sink, err := NewS3Sink(context.Background(), "bucket", "", WithS3Client(mock))
	require.NoError(t, err)

	require.NoError(t, sink.Send(context.Background(), types.Alert{Level: types.AlertLevelInfo, BatchID: "b-7", Timestamp: time.Now()}))
	assert.Contains(t, *mock.lastInput.Key, "/general/b-7/")

	require.NoError(t, sink.Send(context.Background(), types.Alert{Level: types.AlertLevelError, Timestamp: time.Now()}))
	assert.Contains(t, *mock.lastInput.Key, "/system/")
	assert.NotEqual(t, '/', (*mock.lastInput.Key)[0])
}

func TestS3Sink_PutError(t *testing.T) {
	mock := &mockS3Client{err: errors.New("access denied")}
	sink, err := NewS3Sink(context.Background(), "bucket", "alerts", WithS3Client(mock))
	require.NoError(t, err)

	err = sink.Send(context.Background(), testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3Sink_MissingBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), "", "prefix")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket name required")
}

func TestS3Sink_IngestionKeyedByBatch(t *testing.T) {
	mock := &mockS3Client{}
	sink, err := NewS3Sink(context.Background(), "bucket", "alerts", WithS3Client(mock))
	require.NoError(t, err)

	d := New(nil)
	d.Add(sink, "")
	finished := time.Date(2026, 2, 23, 14, 30, 0, 0, time.UTC)
	require.NoError(t, d.IngestionCompleted(context.Background(), types.IngestReport{
		BatchID:    "batch-42",
		Success:    true,
		Message:    "ingested 2 rows",
		FinishedAt: finished,
	}))

	require.NotNil(t, mock.lastInput)
	assert.Equal(t, "alerts/2026-02-23/ingestion/batch-42/1771857000000-info.json", *mock.lastInput.Key)
}
