package extract

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dwsmith1983/accredit/pkg/types"
)

const header = "Course,COMP3800\nTerm,202530\nName,Student ID,Score\n"

func TestExtract_CSV(t *testing.T) {
	body := header +
		"Ada,12345678,7\n" +
		"Bob, 23456789 ,8.5\n" +
		"short,row\n" +
		"Cy,1234,5\n" +
		"Di,34567890,abc\n" +
		"Ed,45678901,10,extra\n"

	res, err := New(8).Extract("scores.csv", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []types.StudentScore{
		{StudentID: "12345678", Score: 7},
		{StudentID: "23456789", Score: 8.5},
		{StudentID: "45678901", Score: 10},
	}, res.Scores)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 7, res.Skipped[0].Line)
	assert.Contains(t, res.Skipped[0].Reason, "not 8 digits")
	assert.Equal(t, 8, res.Skipped[1].Line)
	assert.Contains(t, res.Skipped[1].Reason, "not a number")
}

func TestExtract_HeaderRowsAlwaysSkipped(t *testing.T) {
	body := "x,11111111,1\nx,22222222,2\nx,33333333,3\nx,44444444,4\n"
	res, err := New(8).Extract("s.csv", strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, res.Scores, 1)
	assert.Equal(t, "44444444", res.Scores[0].StudentID)
}

func TestExtract_BlankLinesCountAsRows(t *testing.T) {
	body := "Course COMP3800\n\nid,student,score\nA,12345678,80\nB,23456789,90\n"
	res, err := New(8).Extract("s.csv", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []types.StudentScore{
		{StudentID: "12345678", Score: 80},
		{StudentID: "23456789", Score: 90},
	}, res.Scores)

	body = header + "Ada,12345678,7\n\n\nBob,123,8\n"
	res, err = New(8).Extract("s.csv", strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 7, res.Skipped[0].Line)
}

func TestExtract_BlankLinesInText(t *testing.T) {
	body := "h1\r\n\r\nh3\r\nAda\t12345678\t6\r\n"
	res, err := New(8).Extract("s.txt", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []types.StudentScore{{StudentID: "12345678", Score: 6}}, res.Scores)
}

func TestExtract_ConfiguredIDLength(t *testing.T) {
	body := header + "a,123456789,3\nb,12345678,4\n"
	res, err := New(9).Extract("s.csv", strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, res.Scores, 1)
	assert.Equal(t, "123456789", res.Scores[0].StudentID)
}

func TestExtract_DefaultIDLength(t *testing.T) {
	e := New(0)
	assert.Equal(t, DefaultStudentIDLength, e.StudentIDLength)
}

func TestExtract_TabDelimitedText(t *testing.T) {
	body := "h1\nh2\nh3\nAda\t12345678\t6\n"
	res, err := New(8).Extract("scores.TXT", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []types.StudentScore{{StudentID: "12345678", Score: 6}}, res.Scores)
}

func TestExtract_ByteOrderMark(t *testing.T) {
	body := "\xef\xbb\xbf" + header + "Ada,12345678,7\n"
	res, err := New(8).Extract("s.csv", strings.NewReader(body))
	require.NoError(t, err)
	assert.Len(t, res.Scores, 1)
}

func TestExtract_NoValidRows(t *testing.T) {
	body := header + "Ada,abc,7\n"
	res, err := New(8).Extract("s.csv", strings.NewReader(body))
	assert.ErrorIs(t, err, ErrNoValidRows)
	assert.Empty(t, res.Scores)
	assert.Len(t, res.Skipped, 1)
}

func TestExtract_HeaderOnly(t *testing.T) {
	_, err := New(8).Extract("s.csv", strings.NewReader(header))
	assert.ErrorIs(t, err, ErrNoValidRows)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	_, err := New(8).Extract("scores.pdf", strings.NewReader("whatever"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported("scores.pdf"))
	assert.True(t, Supported("scores.XLSX"))
}

func TestExtract_Workbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Course", "COMP3800"},
		{"Term", 202530},
		{"Name", "Student ID", "Score"},
		{"Ada", "12345678", 9},
		{"Bob", "2345", 4},
		{"Cy", "34567890", 3.25},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err := New(8).Extract("scores.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []types.StudentScore{
		{StudentID: "12345678", Score: 9},
		{StudentID: "34567890", Score: 3.25},
	}, res.Scores)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 5, res.Skipped[0].Line)
}

func TestExtract_UnreadableWorkbook(t *testing.T) {
	_, err := New(8).Extract("scores.xlsx", strings.NewReader("not a zip"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoValidRows)
	assert.Contains(t, err.Error(), "opening workbook")
}

func TestValidStudentID(t *testing.T) {
	assert.True(t, ValidStudentID("00000001", 8))
	assert.False(t, ValidStudentID("0000000a", 8))
	assert.False(t, ValidStudentID("123456789", 8))
	assert.False(t, ValidStudentID("", 8))
}
