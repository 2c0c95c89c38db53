// Package extract reads (student id, score) pairs out of uploaded score
// sheets. Delimited text and workbook files are both normalised to rows of
// string cells before scanning.
package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dwsmith1983/accredit/pkg/types"
)

// DefaultStudentIDLength is the digit count of a student identifier when
// none is configured.
const DefaultStudentIDLength = 8

// HeaderRows is the number of leading header/metadata rows always skipped.
const HeaderRows = 3

// Column positions within a data row.
const (
	colStudentID = 1
	colScore     = 2
	minCells     = 3
)

var (
	// ErrUnsupportedFormat is returned for an upload whose extension is not
	// a known delimited-text or workbook format.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoValidRows is returned when scanning finds no usable data row.
	ErrNoValidRows = errors.New("no valid student rows found")
)

// RowError describes a data row that was skipped.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Result is the outcome of one extraction.
type Result struct {
	Scores  []types.StudentScore
	Skipped []RowError
}

// Extractor parses score sheets.
type Extractor struct {
	// StudentIDLength is the exact number of digits a student id must have.
	StudentIDLength int
}

// New returns an Extractor; a non-positive length selects DefaultStudentIDLength.
func New(studentIDLength int) *Extractor {
	if studentIDLength <= 0 {
		studentIDLength = DefaultStudentIDLength
	}
	return &Extractor{StudentIDLength: studentIDLength}
}

// Supported reports whether name has an extension Extract understands.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Extract reads the file called name from r. File-level problems fail before
// any row is scanned; row-level problems are recorded in Result.Skipped.
func (e *Extractor) Extract(name string, r io.Reader) (Result, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		rows, err = readDelimited(r, ',')
	case ".txt":
		rows, err = readDelimited(r, 0)
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(r)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Result{}, err
	}
	return e.scan(rows)
}

func (e *Extractor) scan(rows [][]string) (Result, error) {
	idLen := e.StudentIDLength
	if idLen <= 0 {
		idLen = DefaultStudentIDLength
	}

	res := Result{Scores: []types.StudentScore{}}
	for i := HeaderRows; i < len(rows); i++ {
		line := i + 1
		cells := rows[i]
		if len(cells) < minCells {
			continue
		}
		id := strings.TrimSpace(cells[colStudentID])
		if !ValidStudentID(id, idLen) {
			res.Skipped = append(res.Skipped, RowError{
				Line:   line,
				Reason: fmt.Sprintf("student id %q is not %d digits", id, idLen),
			})
			continue
		}
		raw := strings.TrimSpace(cells[colScore])
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
			res.Skipped = append(res.Skipped, RowError{
				Line:   line,
				Reason: fmt.Sprintf("score %q is not a number", raw),
			})
			continue
		}
		res.Scores = append(res.Scores, types.StudentScore{StudentID: id, Score: score})
	}

	if len(res.Scores) == 0 {
		return res, fmt.Errorf("%w: scanned %d data rows, skipped %d",
			ErrNoValidRows, max(len(rows)-HeaderRows, 0), len(res.Skipped))
	}
	return res, nil
}

// ValidStudentID reports whether id is exactly length ASCII digits.
func ValidStudentID(id string, length int) bool {
	if len(id) != length {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

// readDelimited parses delimited text. A zero comma picks tab or comma,
// whichever occurs more often.
func readDelimited(r io.Reader, comma rune) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if comma == 0 {
		comma = ','
		if bytes.Count(data, []byte{'\t'}) > bytes.Count(data, []byte{','}) {
			comma = '\t'
		}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	// csv.Reader skips empty lines; they still occupy a row here so the
	// header count and reported line numbers follow the physical file.
	var (
		rows   [][]string
		lines  int // newlines before offset
		offset int64
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing delimited text: %w", err)
		}
		start, _ := cr.FieldPos(0)
		for blank := start - 1 - lines; blank > 0; blank-- {
			rows = append(rows, nil)
		}
		rows = append(rows, rec)
		next := cr.InputOffset()
		lines += bytes.Count(data[offset:next], []byte{'\n'})
		offset = next
	}
	return rows, nil
}

// readWorkbook returns the cells of the first sheet.
func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("opening workbook: no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
