// Package types defines the public domain types for the accredit outcome-assessment pipeline.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Program is an accredited program code.
type Program string

// Program values enumerate the programs tracked for accreditation.
const (
	ProgramCivil      Program = "CIVL"
	ProgramElectrical Program = "ELEC"
	ProgramMechanical Program = "MECH"
	ProgramComputer   Program = "COMP"
)

// Programs lists every accepted program code.
var Programs = []Program{ProgramCivil, ProgramElectrical, ProgramMechanical, ProgramComputer}

// GraduateAttributeCount is the number of graduate attributes (GA1..GA12).
const GraduateAttributeCount = 12

// IndicatorsPerAttribute is the number of indicators defined under each graduate attribute.
const IndicatorsPerAttribute = 4

// GraduateAttributes lists the accepted graduate attribute codes.
var GraduateAttributes = func() []string {
	out := make([]string, 0, GraduateAttributeCount)
	for n := 1; n <= GraduateAttributeCount; n++ {
		out = append(out, fmt.Sprintf("GA%d", n))
	}
	return out
}()

// Indicators lists the accepted dotted indicator codes ("1.1" .. "12.4").
var Indicators = func() []string {
	out := make([]string, 0, GraduateAttributeCount*IndicatorsPerAttribute)
	for n := 1; n <= GraduateAttributeCount; n++ {
		for m := 1; m <= IndicatorsPerAttribute; m++ {
			out = append(out, fmt.Sprintf("%d.%d", n, m))
		}
	}
	return out
}()

// IndicatorAttribute returns the graduate attribute an indicator belongs to ("3.2" -> "GA3").
func IndicatorAttribute(gai string) (string, bool) {
	head, _, ok := strings.Cut(gai, ".")
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(head)
	if err != nil || n < 1 || n > GraduateAttributeCount {
		return "", false
	}
	return fmt.Sprintf("GA%d", n), true
}

// InstructionalLevel is the stage at which an attribute is taught.
type InstructionalLevel string

// InstructionalLevel values enumerate the three instructional stages.
const (
	LevelIntroduced InstructionalLevel = "Introduced"
	LevelDeveloped  InstructionalLevel = "Developed"
	LevelApplied    InstructionalLevel = "Applied"
)

// InstructionalLevels lists every accepted instructional level.
var InstructionalLevels = []InstructionalLevel{LevelIntroduced, LevelDeveloped, LevelApplied}

// AlignmentStrength describes how closely an assessment question aligns with an indicator.
type AlignmentStrength string

// AlignmentStrength values enumerate the four alignment adjectives.
const (
	AlignmentWeak       AlignmentStrength = "Weak"
	AlignmentModerate   AlignmentStrength = "Moderate"
	AlignmentStrong     AlignmentStrength = "Strong"
	AlignmentVeryStrong AlignmentStrength = "Very Strong"
)

// AlignmentStrengths lists every accepted alignment strength.
var AlignmentStrengths = []AlignmentStrength{AlignmentWeak, AlignmentModerate, AlignmentStrong, AlignmentVeryStrong}

// AssessmentType is the kind of assessment a question belongs to.
type AssessmentType string

// AssessmentType values enumerate the supported assessment kinds.
const (
	AssessAssignment    AssessmentType = "Assignment"
	AssessQuiz          AssessmentType = "Quiz"
	AssessMidterm       AssessmentType = "Midterm"
	AssessFinalExam     AssessmentType = "Final Exam"
	AssessLab           AssessmentType = "Lab"
	AssessProject       AssessmentType = "Project"
	AssessPresentation  AssessmentType = "Presentation"
	AssessReport        AssessmentType = "Report"
	AssessPortfolio     AssessmentType = "Portfolio"
	AssessDesignReview  AssessmentType = "Design Review"
	AssessParticipation AssessmentType = "Participation"
)

// AssessmentTypes lists every accepted assessment type.
var AssessmentTypes = []AssessmentType{
	AssessAssignment, AssessQuiz, AssessMidterm, AssessFinalExam, AssessLab, AssessProject,
	AssessPresentation, AssessReport, AssessPortfolio, AssessDesignReview, AssessParticipation,
}

// ProjectionKind names one of the six projection stores.
type ProjectionKind string

// ProjectionKind values, in the fixed order ingestion writes them.
const (
	KindProcess       ProjectionKind = "process"
	KindFaculty       ProjectionKind = "faculty"
	KindProgram       ProjectionKind = "program"
	KindValidity      ProjectionKind = "validity"
	KindAccreditation ProjectionKind = "accreditation"
	KindAnnual        ProjectionKind = "annual"
)

// ProjectionKinds lists the six projections in ingestion order.
var ProjectionKinds = []ProjectionKind{
	KindProcess, KindFaculty, KindProgram, KindValidity, KindAccreditation, KindAnnual,
}

// ParseProjectionKind validates a projection kind string.
func ParseProjectionKind(s string) (ProjectionKind, error) {
	for _, k := range ProjectionKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown projection kind %q", s)
}

// IngestPolicy controls what happens to a row whose six inserts did not all succeed.
type IngestPolicy string

// IngestPolicy values.
const (
	// PolicyBestEffort keeps whatever projections were written.
	PolicyBestEffort IngestPolicy = "best-effort"
	// PolicyCompensate deletes the row's successful projections when any sibling failed.
	PolicyCompensate IngestPolicy = "compensate"
)

// FlattenPolicy controls how the reconstructor treats identifiers missing a projection.
type FlattenPolicy string

// FlattenPolicy values.
const (
	FlattenDrop    FlattenPolicy = "drop"
	FlattenSurface FlattenPolicy = "surface"
)

// SortOrder is the listing sort direction.
type SortOrder string

// SortOrder values.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// AlertType defines the alert sink type.
type AlertType string

// AlertType values enumerate the supported alert sink backends.
const (
	AlertConsole AlertType = "console"
	AlertWebhook AlertType = "webhook"
	AlertFile    AlertType = "file"
	AlertS3      AlertType = "s3"
)

// AlertLevel is the severity of an alert.
type AlertLevel string

// AlertLevel values.
const (
	AlertLevelError   AlertLevel = "error"
	AlertLevelWarning AlertLevel = "warning"
	AlertLevelInfo    AlertLevel = "info"
)
