package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dwsmith1983/accredit/internal/ingest"
	"github.com/dwsmith1983/accredit/pkg/types"
)

const maxMemory = 8 << 20

// UploadResponse is the body of POST /uploads.
type UploadResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Error   string             `json:"error,omitempty"`
	Report  types.IngestReport `json:"report"`
}

// Upload ingests a spreadsheet of student scores under the submitted
// observation context.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file is required", err)
		return
	}
	defer func() { _ = file.Close() }()

	obs, err := parseContext(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	report, err := h.orchestrator.IngestFile(r.Context(), header.Filename, file, obs)
	resp := UploadResponse{
		Success: report.Success,
		Message: report.Message,
		Error:   report.Error,
		Report:  report,
	}
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, ingest.ErrFile):
		h.logger.Warn("upload rejected", "file", header.Filename, "error", err)
		h.writeJSON(w, http.StatusBadRequest, resp)
	case ingest.IsRequestError(err):
		h.logger.Warn("upload aborted", "file", header.Filename, "error", err)
		resp.Error = err.Error()
		h.writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		h.writeError(w, http.StatusInternalServerError, "ingestion failed", err)
	}
}

func parseContext(r *http.Request) (types.ObservationContext, error) {
	f := func(name string) string { return strings.TrimSpace(r.FormValue(name)) }
	obs := types.ObservationContext{
		Program:        types.Program(f("program")),
		Course:         f("course"),
		InstrFirstName: f("instr_first_name"),
		InstrLastName:  f("instr_last_name"),
		GA:             f("ga"),
		GAI:            f("gai"),
		InstrLevel:     types.InstructionalLevel(f("instr_level")),
		Alignment:      types.AlignmentStrength(f("alignment")),
		CLOs:           f("clos"),
		AssessType:     types.AssessmentType(f("assess_type")),
		AssessTitle:    f("assess_title"),
		AssessDescript: f("assess_descript"),
		QuestText:      f("quest_text"),
		InstrComments:  f("instr_comments"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"term", &obs.Term},
		{"prog_term", &obs.ProgramTerm},
		{"assess_max", &obs.AssessMax},
		{"question_max", &obs.QuestionMax},
	}
	for _, p := range ints {
		v, err := strconv.Atoi(f(p.name))
		if err != nil {
			return obs, fmt.Errorf("%s must be an integer", p.name)
		}
		*p.dst = v
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"assess_weight", &obs.AssessWeight},
		{"total_score", &obs.TotalScore},
	}
	for _, p := range floats {
		v, err := strconv.ParseFloat(f(p.name), 64)
		if err != nil {
			return obs, fmt.Errorf("%s must be a number", p.name)
		}
		*p.dst = v
	}
	return obs, nil
}
