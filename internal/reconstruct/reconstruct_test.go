package reconstruct

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dwsmith1983/accredit/internal/ident"
	"github.com/dwsmith1983/accredit/internal/ingest"
	"github.com/dwsmith1983/accredit/internal/projection"
	"github.com/dwsmith1983/accredit/internal/testutil"
	"github.com/dwsmith1983/accredit/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ids is shared so identifiers from separate ingestions stay ordered.
var ids = ident.New()

func ingestRows(t *testing.T, set *projection.Set, obs types.ObservationContext, n int) types.IngestReport {
	t.Helper()
	report, err := ingest.New(set, ingest.WithIssuer(ids)).Ingest(context.Background(), obs, testutil.Scores(n))
	require.NoError(t, err)
	return report
}

func TestFlatten_RoundTrip(t *testing.T) {
	prov := testutil.NewMockProvider()
	set := projection.NewSet(prov, 8)
	obs := testutil.Context()
	report := ingestRows(t, set, obs, 1)

	results, err := New(set, "").Flatten(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Complete)
	assert.Equal(t, report.Rows[0].ID, r.ID)
	assert.Equal(t, types.ProjectionKinds, r.Present)

	want := types.FlatRow{
		"id":                report.Rows[0].ID,
		"program":           "COMP",
		"course":            "COMP3800",
		"term":              202530.0,
		"prog_term":         3.0,
		"instr_first_name":  "Grace",
		"instr_last_name":   "Hopper",
		"ga":                "GA3",
		"gai":               "3.2",
		"instr_level":       "Developed",
		"alignment":         "Strong",
		"clos":              obs.CLOs,
		"assess_type":       "Midterm",
		"assess_weight":     25.0,
		"assess_max":        100.0,
		"total_score":       80.0,
		"question_max":      10.0,
		"gai_score":         0.0,
		"assess_title":      "Midterm 1",
		"assess_descript":   obs.AssessDescript,
		"quest_text":        obs.QuestText,
		"student_id":        "10000001",
		"instr_comments":    obs.InstrComments,
		"cohort":            202430.0,
		"achievement_level": 0.0,
	}
	assert.Equal(t, want, r.Row)
}

func TestFlatten_NewestFirst(t *testing.T) {
	set := projection.NewSet(testutil.NewMockProvider(), 8)
	report := ingestRows(t, set, testutil.Context(), 5)

	results, err := New(set, types.FlattenDrop).Flatten(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, report.Rows[4-i].ID, r.ID)
	}
}

func TestFlatten_Policies(t *testing.T) {
	prov := testutil.NewMockProvider()
	set := projection.NewSet(prov, 8)
	good := ingestRows(t, set, testutil.Context(), 1)

	prov.Fail(types.KindValidity, testutil.OpInsert, errors.New("throttled"))
	partial := ingestRows(t, set, testutil.Context(), 1)
	prov.Reset()

	t.Run("drop", func(t *testing.T) {
		results, err := New(set, types.FlattenDrop).Flatten(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, good.Rows[0].ID, results[0].ID)
	})

	t.Run("surface", func(t *testing.T) {
		results, err := New(set, types.FlattenSurface).Flatten(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, partial.Rows[0].ID, results[0].ID)
		assert.False(t, results[0].Complete)
		assert.Nil(t, results[0].Row)
		assert.Equal(t, []types.ProjectionKind{types.KindValidity}, results[0].Missing)
		assert.Len(t, Rows(results), 1)
	})
}

func TestIncomplete_FindsMissingProcess(t *testing.T) {
	prov := testutil.NewMockProvider()
	set := projection.NewSet(prov, 8)
	ingestRows(t, set, testutil.Context(), 1)

	prov.Fail(types.KindProcess, testutil.OpInsert, errors.New("throttled"))
	partial := ingestRows(t, set, testutil.Context(), 1)
	prov.Reset()

	f := New(set, types.FlattenSurface)
	results, err := f.Flatten(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 1, "flatten enumerates the process store only")

	missing, err := f.Incomplete(context.Background())
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, partial.Rows[0].ID, missing[0].ID)
	assert.Equal(t, []types.ProjectionKind{types.KindProcess}, missing[0].Missing)
	assert.Len(t, missing[0].Present, 5)
}

func TestFlatten_ReadErrorAborts(t *testing.T) {
	prov := testutil.NewMockProvider()
	set := projection.NewSet(prov, 8)
	ingestRows(t, set, testutil.Context(), 3)
	prov.Fail(types.KindAnnual, testutil.OpGet, errors.New("timeout"))

	_, err := New(set, types.FlattenDrop).Flatten(context.Background())
	assert.ErrorContains(t, err, "timeout")
}

func TestFlatten_ListErrorAborts(t *testing.T) {
	prov := testutil.NewMockProvider()
	prov.Fail(types.KindProcess, testutil.OpList, errors.New("timeout"))

	_, err := New(projection.NewSet(prov, 8), types.FlattenDrop).Flatten(context.Background())
	assert.ErrorContains(t, err, "listing identifiers")
}

func numberedRows(n int) []types.FlatRow {
	rows := make([]types.FlatRow, n)
	for i := range rows {
		rows[i] = types.FlatRow{"id": fmt.Sprintf("%02d", i), "n": float64(i)}
	}
	return rows
}

func TestQuery_Pagination(t *testing.T) {
	rows := numberedRows(25)
	tests := []struct {
		page       int
		wantLen    int
		wantStart  int
		wantEnd    int
		wantFirstN float64
	}{
		{1, 10, 1, 10, 0},
		{2, 10, 11, 20, 10},
		{3, 5, 21, 25, 20},
		{4, 0, 0, 0, 0},
		{math.MaxInt, 0, 0, 0, 0},
		{922337203685477582, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			got := Query(rows, QueryParams{Page: tt.page, PageSize: 10})
			assert.Len(t, got.Results, tt.wantLen)
			assert.Equal(t, types.Pagination{
				CurrentPage:  tt.page,
				TotalPages:   3,
				PageSize:     10,
				TotalRecords: 25,
				StartRecord:  tt.wantStart,
				EndRecord:    tt.wantEnd,
			}, got.Pagination)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirstN, got.Results[0]["n"])
			} else {
				assert.NotNil(t, got.Results, "empty page serialises as []")
			}
		})
	}
}

func TestQuery_Empty(t *testing.T) {
	got := Query(nil, QueryParams{})
	assert.Empty(t, got.Results)
	assert.Equal(t, 0, got.Pagination.TotalPages)
	assert.Equal(t, 1, got.Pagination.CurrentPage)
}

func TestQuery_NullsLast(t *testing.T) {
	rows := []types.FlatRow{
		{"id": "a", "score": 2.0},
		{"id": "b"},
		{"id": "c", "score": 10.0},
		{"id": "d", "score": nil},
		{"id": "e", "score": 1.0},
	}
	ids := func(p types.Page) []string {
		var out []string
		for _, r := range p.Results {
			out = append(out, r["id"].(string))
		}
		return out
	}

	asc := Query(rows, QueryParams{SortBy: "score", SortOrder: types.SortAsc})
	assert.Equal(t, []string{"e", "a", "c", "b", "d"}, ids(asc))

	desc := Query(rows, QueryParams{SortBy: "score", SortOrder: types.SortDesc})
	assert.Equal(t, []string{"c", "a", "e", "b", "d"}, ids(desc))

	assert.Equal(t, "a", rows[0]["id"], "input is not reordered")
}

func TestQuery_StringsAndStability(t *testing.T) {
	rows := []types.FlatRow{
		{"id": "1", "course": "MECH2100"},
		{"id": "2", "course": "COMP3800"},
		{"id": "3", "course": "MECH2100"},
	}
	got := Query(rows, QueryParams{SortBy: "course", SortOrder: types.SortAsc})
	require.Len(t, got.Results, 3)
	assert.Equal(t, "2", got.Results[0]["id"])
	assert.Equal(t, "1", got.Results[1]["id"])
	assert.Equal(t, "3", got.Results[2]["id"])
}

func TestQueryParams_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   QueryParams
		want QueryParams
	}{
		{"defaults", QueryParams{}, QueryParams{Page: 1, PageSize: 10, SortOrder: types.SortDesc}},
		{"negative page", QueryParams{Page: -3, PageSize: 5}, QueryParams{Page: 1, PageSize: 5, SortOrder: types.SortDesc}},
		{"page size cap", QueryParams{Page: 2, PageSize: 1000}, QueryParams{Page: 2, PageSize: 100, SortOrder: types.SortDesc}},
		{"asc any case", QueryParams{Page: 1, PageSize: 10, SortOrder: "ASC"}, QueryParams{Page: 1, PageSize: 10, SortOrder: types.SortAsc}},
		{"unknown order", QueryParams{Page: 1, PageSize: 10, SortOrder: "sideways"}, QueryParams{Page: 1, PageSize: 10, SortOrder: types.SortDesc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(0, 0))
		})
	}
	assert.Equal(t, 25, QueryParams{}.Normalize(25, 50).PageSize)
	assert.Equal(t, 50, QueryParams{PageSize: 80}.Normalize(25, 50).PageSize)
}

func TestList(t *testing.T) {
	set := projection.NewSet(testutil.NewMockProvider(), 8)
	ingestRows(t, set, testutil.Context(), 12)

	f := New(set, types.FlattenDrop)
	f.SetPageSizes(5, 8)

	page, err := f.List(context.Background(), QueryParams{SortBy: "student_id", SortOrder: types.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Pagination.PageSize)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, 12, page.Pagination.TotalRecords)
	require.Len(t, page.Results, 5)
	assert.Equal(t, "10000001", page.Results[0]["student_id"])

	page, err = f.List(context.Background(), QueryParams{Page: 2, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, 8, page.Pagination.PageSize)
	assert.Len(t, page.Results, 4)
}

func TestParseParams(t *testing.T) {
	q := ParseParams("3", " 20 ", "course", "asc")
	assert.Equal(t, QueryParams{Page: 3, PageSize: 20, SortBy: "course", SortOrder: types.SortAsc}, q)

	q = ParseParams("922337203685477582", "10", "", "")
	assert.Equal(t, 922337203685477582, q.Page)
	page := Query(numberedRows(25), q)
	assert.Empty(t, page.Results)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Zero(t, page.Pagination.StartRecord)

	q = ParseParams("abc", "", "", "")
	assert.Equal(t, QueryParams{}, q)
	assert.Equal(t, 1, q.Normalize(0, 0).Page)
}
