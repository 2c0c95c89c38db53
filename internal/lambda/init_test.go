package lambda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/accredit/internal/provider/memory"
	"github.com/dwsmith1983/accredit/internal/testutil"
	"github.com/dwsmith1983/accredit/pkg/types"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	base := map[string]string{
		"TABLE_NAME":        "accredit-test",
		"AWS_REGION":        "us-east-1",
		"STUDENT_ID_LENGTH": "",
		"INGEST_POLICY":     "",
		"FLATTEN_POLICY":    "",
		"EVENT_BUS_NAME":    "",
		"ALERT_BUCKET":      "",
		"ALERT_PREFIX":      "",
		"WATCHDOG_GRACE":    "",
	}
	for k, v := range kv {
		base[k] = v
	}
	for k, v := range base {
		t.Setenv(k, v)
	}
}

func TestInit_MissingTableName(t *testing.T) {
	setEnv(t, map[string]string{"TABLE_NAME": ""})

	_, err := Init(t.Context())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TABLE_NAME")
}

func TestInit_MissingRegion(t *testing.T) {
	setEnv(t, map[string]string{"AWS_REGION": ""})

	_, err := Init(t.Context())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_REGION")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, Config{
		TableName:       "accredit-test",
		Region:          "us-east-1",
		StudentIDLength: 8,
		IngestPolicy:    types.PolicyBestEffort,
		FlattenPolicy:   types.FlattenDrop,
		AlertPrefix:     "alerts",
		WatchdogGrace:   30 * time.Minute,
	}, cfg)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"STUDENT_ID_LENGTH": "9",
		"INGEST_POLICY":     "compensate",
		"FLATTEN_POLICY":    "surface",
		"EVENT_BUS_NAME":    "accredit-events",
		"ALERT_BUCKET":      "accredit-alerts",
		"WATCHDOG_GRACE":    "2h",
	})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.StudentIDLength)
	assert.Equal(t, types.PolicyCompensate, cfg.IngestPolicy)
	assert.Equal(t, types.FlattenSurface, cfg.FlattenPolicy)
	assert.Equal(t, "accredit-events", cfg.EventBusName)
	assert.Equal(t, "accredit-alerts", cfg.AlertBucket)
	assert.Equal(t, 2*time.Hour, cfg.WatchdogGrace)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"ingest policy", map[string]string{"INGEST_POLICY": "retry"}, "INGEST_POLICY"},
		{"flatten policy", map[string]string{"FLATTEN_POLICY": "keep"}, "FLATTEN_POLICY"},
		{"id length", map[string]string{"STUDENT_ID_LENGTH": "0"}, "STUDENT_ID_LENGTH"},
		{"id length not a number", map[string]string{"STUDENT_ID_LENGTH": "eight"}, "eight"},
		{"negative grace", map[string]string{"WATCHDOG_GRACE": "-1m"}, "WATCHDOG_GRACE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

type mockS3 struct {
	objects map[string][]byte
	err     error
}

func (m *mockS3) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.objects[aws.ToString(input.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestNewDeps(t *testing.T) {
	cfg := Config{StudentIDLength: 8, IngestPolicy: types.PolicyCompensate, FlattenPolicy: types.FlattenSurface}
	d := NewDeps(cfg, memory.New(), &mockS3{}, nil, slog.Default())

	assert.Equal(t, types.PolicyCompensate, d.Orchestrator.Policy())
	assert.Equal(t, types.FlattenSurface, d.Flattener.Policy())
	assert.Len(t, d.Projections.All(), 6)
	require.NotNil(t, d.Alerts)
	assert.Zero(t, d.Alerts.Len())
}

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey("uploads/COMP3800+midterm%281%29.csv")
	require.NoError(t, err)
	assert.Equal(t, "uploads/COMP3800 midterm(1).csv", key)
	assert.Equal(t, "COMP3800 midterm(1).csv", FileName(key))
	assert.Equal(t, "uploads/COMP3800 midterm(1).csv.context.json", ContextKey(key))

	_, err = ObjectKey("bad%zz")
	assert.Error(t, err)
}

func TestReadContext(t *testing.T) {
	obs := testutil.Context()
	data, err := json.Marshal(obs)
	require.NoError(t, err)
	api := &mockS3{objects: map[string][]byte{"a/grades.csv.context.json": data}}

	got, err := ReadContext(context.Background(), api, "bucket", "a/grades.csv")
	require.NoError(t, err)
	assert.Equal(t, obs, got)

	_, err = ReadContext(context.Background(), api, "bucket", "a/other.csv")
	assert.Error(t, err)

	api.objects["a/bad.csv.context.json"] = []byte("{")
	_, err = ReadContext(context.Background(), api, "bucket", "a/bad.csv")
	assert.Error(t, err)
}
