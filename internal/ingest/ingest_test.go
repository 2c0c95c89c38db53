package ingest

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/accredit/internal/achievement"
	"github.com/dwsmith1983/accredit/internal/cohort"
	"github.com/dwsmith1983/accredit/internal/extract"
	"github.com/dwsmith1983/accredit/internal/projection"
	"github.com/dwsmith1983/accredit/internal/testutil"
	"github.com/dwsmith1983/accredit/pkg/types"
)

type recordingNotifier struct {
	reports []types.IngestReport
	err     error
}

func (n *recordingNotifier) IngestionCompleted(_ context.Context, r types.IngestReport) error {
	n.reports = append(n.reports, r)
	return n.err
}

func setup(t *testing.T, opts ...Option) (*Orchestrator, *testutil.MockProvider) {
	t.Helper()
	prov := testutil.NewMockProvider()
	return New(projection.NewSet(prov, 8), opts...), prov
}

func TestIngest_WritesSixProjectionsPerRow(t *testing.T) {
	o, prov := setup(t)
	ctx := context.Background()
	obs := testutil.Context()

	report, err := o.Ingest(ctx, obs, testutil.Scores(3))
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, "ingested 3 rows", report.Message)
	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, types.PolicyBestEffort, report.Policy)
	require.Len(t, report.Rows, 3)

	ids := make([]string, 0, 3)
	for _, row := range report.Rows {
		assert.True(t, row.Complete)
		assert.Equal(t, 202430, row.Cohort)
		require.Len(t, row.Projections, 6)
		for i, p := range row.Projections {
			assert.Equal(t, types.ProjectionKinds[i], p.Kind)
			assert.True(t, p.OK)
		}
		testutil.AssertComplete(t, prov, row.ID)
		ids = append(ids, row.ID)
	}
	assert.True(t, sort.StringsAreSorted(ids), "identifiers are issued in order")

	acc, err := prov.Accreditation().Get(ctx, report.Rows[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "10000003", acc.StudentID)
	assert.Equal(t, 0.2, acc.AchievementLevel)

	fac, err := prov.Faculty().Get(ctx, report.Rows[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, fac.GAIScore)
	assert.Equal(t, 202430, fac.Cohort)
	assert.Equal(t, obs.TotalScore, fac.TotalScore)
}

func TestIngest_AchievementRounding(t *testing.T) {
	o, prov := setup(t)
	obs := testutil.Context()
	obs.QuestionMax = 3

	report, err := o.Ingest(context.Background(), obs, []types.StudentScore{{StudentID: "12345678", Score: 2}})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, 0.67, report.Rows[0].Achievement)

	pm, err := prov.Program().Get(context.Background(), report.Rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0.67, pm.AchievementLevel)
}

func TestIngest_ValidationFailureBestEffort(t *testing.T) {
	o, prov := setup(t)
	obs := testutil.Context()
	obs.Course = "COMP38"

	report, err := o.Ingest(context.Background(), obs, testutil.Scores(1))
	require.NoError(t, err)
	assert.False(t, report.Success)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.False(t, row.Complete)
	assert.False(t, row.Compensated)
	assert.Equal(t, []types.ProjectionKind{
		types.KindProcess, types.KindFaculty, types.KindValidity, types.KindAnnual,
	}, row.Failed())
	assert.Contains(t, row.Projections[0].Errors, "course")

	assert.Equal(t, []types.ProjectionKind{types.KindProgram, types.KindAccreditation},
		testutil.Present(t, prov, row.ID))
}

func TestIngest_CompensateLeavesNoOrphans(t *testing.T) {
	o, prov := setup(t, WithPolicy(types.PolicyCompensate))
	obs := testutil.Context()
	obs.Course = "COMP38"

	report, err := o.Ingest(context.Background(), obs, testutil.Scores(2))
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, types.PolicyCompensate, report.Policy)
	for _, row := range report.Rows {
		assert.True(t, row.Compensated)
		testutil.AssertNoOrphans(t, prov, row.ID)
	}
}

func TestIngest_CompensateReportsFailedDelete(t *testing.T) {
	o, prov := setup(t, WithPolicy(types.PolicyCompensate))
	prov.Fail(types.KindAnnual, testutil.OpInsert, errors.New("throttled"))
	prov.Fail(types.KindProcess, testutil.OpDelete, errors.New("throttled"))

	report, err := o.Ingest(context.Background(), testutil.Context(), testutil.Scores(1))
	require.NoError(t, err)
	row := report.Rows[0]
	assert.False(t, row.Compensated)
	assert.Equal(t, []types.ProjectionKind{types.KindProcess}, testutil.Present(t, prov, row.ID))
}

func TestIngest_StorageFailureContinues(t *testing.T) {
	o, prov := setup(t)
	prov.Fail(types.KindFaculty, testutil.OpInsert, errors.New("connection reset"))

	report, err := o.Ingest(context.Background(), testutil.Context(), testutil.Scores(2))
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, "ingested 0 of 2 rows completely", report.Message)
	require.Len(t, report.Rows, 2)

	for _, row := range report.Rows {
		assert.Equal(t, []types.ProjectionKind{types.KindFaculty}, row.Failed())
		assert.Contains(t, row.Projections[1].Error, "connection reset")
		assert.Empty(t, row.Projections[1].Errors)
		assert.Len(t, testutil.Present(t, prov, row.ID), 5)
	}
	assert.Equal(t, 2, prov.Calls(types.KindAnnual, testutil.OpInsert))
}

func TestIngest_RequestLevelErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.ObservationContext)
		want   error
	}{
		{"program term out of range", func(o *types.ObservationContext) { o.ProgramTerm = 9 }, cohort.ErrProgramTermRange},
		{"malformed term", func(o *types.ObservationContext) { o.Term = 202540 }, cohort.ErrInvalidTerm},
		{"zero question max", func(o *types.ObservationContext) { o.QuestionMax = 0 }, achievement.ErrZeroMaximum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, prov := setup(t)
			obs := testutil.Context()
			tt.mutate(&obs)

			report, err := o.Ingest(context.Background(), obs, testutil.Scores(2))
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, report.Success)
			assert.NotEmpty(t, report.Error)
			assert.Empty(t, report.Rows)
			assert.Zero(t, prov.Calls(types.KindProcess, testutil.OpInsert))
		})
	}
}

func TestIngest_Cancelled(t *testing.T) {
	o, prov := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Ingest(ctx, testutil.Context(), testutil.Scores(2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, prov.Calls(types.KindProcess, testutil.OpInsert))
}

func TestIngest_NoRows(t *testing.T) {
	o, _ := setup(t)
	report, err := o.Ingest(context.Background(), testutil.Context(), nil)
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, "no rows to ingest", report.Message)
}

func TestIngest_Notifies(t *testing.T) {
	n := &recordingNotifier{err: errors.New("bus unavailable")}
	o, _ := setup(t, WithNotifier(n))

	report, err := o.Ingest(context.Background(), testutil.Context(), testutil.Scores(1))
	require.NoError(t, err, "notification failures are not ingestion failures")
	require.Len(t, n.reports, 1)
	assert.Equal(t, report.BatchID, n.reports[0].BatchID)
}

func TestIngest_NotifiesEveryNotifier(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("bus unavailable")}
	second := &recordingNotifier{}
	o, _ := setup(t, WithNotifier(failing), WithNotifier(second))

	_, err := o.Ingest(context.Background(), testutil.Context(), testutil.Scores(2))
	require.NoError(t, err)
	assert.Len(t, failing.reports, 1)
	assert.Len(t, second.reports, 1)
}

func TestWithPolicy_EmptyKeepsDefault(t *testing.T) {
	o, _ := setup(t, WithPolicy(""))
	assert.Equal(t, types.PolicyBestEffort, o.Policy())
}

func TestIngestFile(t *testing.T) {
	o, prov := setup(t)
	data := testutil.CSV(testutil.Scores(3))
	data = append(data, []byte("1234,7,Short id\n10000009,abc,Bad score\n")...)

	report, err := o.IngestFile(context.Background(), "midterm.csv", bytes.NewReader(data), testutil.Context())
	require.NoError(t, err)
	assert.True(t, report.Success)
	require.Len(t, report.Rows, 3)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, 8, report.Skipped[1].Line)
	testutil.AssertComplete(t, prov, report.Rows[0].ID)
}

func TestIngestFile_FileErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want error
	}{
		{"unsupported", "grades.pdf", []byte("%PDF"), extract.ErrUnsupportedFormat},
		{"no rows", "grades.csv", testutil.CSV(nil), extract.ErrNoValidRows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, prov := setup(t)
			report, err := o.IngestFile(context.Background(), tt.file, bytes.NewReader(tt.data), testutil.Context())
			assert.ErrorIs(t, err, ErrFile)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, report.Success)
			assert.NotEmpty(t, report.Error)
			assert.Zero(t, prov.Calls(types.KindProcess, testutil.OpInsert))
		})
	}
}

func TestIsRequestError(t *testing.T) {
	o, _ := setup(t)
	obs := testutil.Context()
	obs.ProgramTerm = 0
	_, err := o.Ingest(context.Background(), obs, testutil.Scores(1))
	assert.True(t, IsRequestError(err))
	assert.False(t, IsRequestError(ErrFile))
}
