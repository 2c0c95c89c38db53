package types

import "time"

// ProjectionOutcome records one adapter call made for one row.
type ProjectionOutcome struct {
	Kind   ProjectionKind    `json:"kind"`
	OK     bool              `json:"ok"`
	Errors map[string]string `json:"errors,omitempty"` // field -> violation
	Error  string            `json:"error,omitempty"`
}

// RowOutcome records what happened to one extracted student row.
type RowOutcome struct {
	ID          string              `json:"id"`
	StudentID   string              `json:"student_id"`
	Cohort      int                 `json:"cohort"`
	Achievement float64             `json:"achievement_level"`
	Projections []ProjectionOutcome `json:"projections"`
	Complete    bool                `json:"complete"`
	Compensated bool                `json:"compensated,omitempty"`
}

// Failed returns the kinds whose insert did not succeed.
func (r RowOutcome) Failed() []ProjectionKind {
	var out []ProjectionKind
	for _, p := range r.Projections {
		if !p.OK {
			out = append(out, p.Kind)
		}
	}
	return out
}

// IngestReport is the structured result of one ingestion request.
type IngestReport struct {
	BatchID    string       `json:"batch_id"`
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	Error      string       `json:"error,omitempty"`
	Policy     IngestPolicy `json:"policy"`
	Rows       []RowOutcome `json:"rows"`
	Skipped    []SkippedRow `json:"skipped,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// CompleteRows counts rows whose six projections were all written.
func (r IngestReport) CompleteRows() int {
	n := 0
	for _, row := range r.Rows {
		if row.Complete {
			n++
		}
	}
	return n
}

// SkippedRow is a spreadsheet row the extractor passed over.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	PageSize     int `json:"page_size"`
	TotalRecords int `json:"total_records"`
	StartRecord  int `json:"start_record"`
	EndRecord    int `json:"end_record"`
}

// Page is one sorted, paginated slice of flattened rows.
type Page struct {
	Results    []FlatRow  `json:"results"`
	Pagination Pagination `json:"pagination"`
}

// PartialObservation is an identifier the reconstructor could not fully join.
type PartialObservation struct {
	ID      string           `json:"id"`
	Present []ProjectionKind `json:"present"`
	Missing []ProjectionKind `json:"missing"`
}

// Alert is an operator-facing event about an ingestion batch or an
// observation left incomplete.
type Alert struct {
	Level         AlertLevel     `json:"level"`
	Category      string         `json:"category,omitempty"`
	BatchID       string         `json:"batchId,omitempty"`
	ObservationID string         `json:"observationId,omitempty"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Alert categories.
const (
	AlertCategoryIngestion  = "ingestion"
	AlertCategoryIncomplete = "incomplete_observation"
)
