package projection

import (
	"fmt"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/dwsmith1983/accredit/internal/cohort"
	"github.com/dwsmith1983/accredit/internal/extract"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// rule checks one decoded JSON value and returns a violation, or "" when valid.
type rule func(v any) string

func oneOf[S ~string](allowed []S) rule {
	return func(v any) string {
		s, ok := v.(string)
		if !ok {
			return "must be a string"
		}
		if !slices.Contains(allowed, S(s)) {
			return fmt.Sprintf("%q is not an allowed value", s)
		}
		return ""
	}
}

func length(min, max int) rule {
	return func(v any) string {
		s, ok := v.(string)
		if !ok {
			return "must be a string"
		}
		n := utf8.RuneCountInString(s)
		if n < min || n > max {
			if min == 0 {
				return fmt.Sprintf("must be at most %d characters", max)
			}
			return fmt.Sprintf("must be %d to %d characters", min, max)
		}
		return ""
	}
}

func exactLength(n int) rule {
	return func(v any) string {
		s, ok := v.(string)
		if !ok {
			return "must be a string"
		}
		if utf8.RuneCountInString(s) != n {
			return fmt.Sprintf("must be exactly %d characters", n)
		}
		return ""
	}
}

func number(v any) (float64, string) {
	f, ok := v.(float64)
	if !ok {
		return 0, "must be a number"
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "must be a finite number"
	}
	return f, ""
}

func between(min, max float64) rule {
	return func(v any) string {
		f, bad := number(v)
		if bad != "" {
			return bad
		}
		if f < min || f > max {
			return fmt.Sprintf("must be between %g and %g", min, max)
		}
		return ""
	}
}

func atLeast(min float64) rule {
	return func(v any) string {
		f, bad := number(v)
		if bad != "" {
			return bad
		}
		if f < min {
			return fmt.Sprintf("must be at least %g", min)
		}
		return ""
	}
}

func integer(min, max int) rule {
	return func(v any) string {
		f, bad := number(v)
		if bad != "" {
			return bad
		}
		if f != math.Trunc(f) {
			return "must be a whole number"
		}
		if f < float64(min) || f > float64(max) {
			return fmt.Sprintf("must be between %d and %d", min, max)
		}
		return ""
	}
}

func encodedTerm(v any) string {
	f, bad := number(v)
	if bad != "" {
		return bad
	}
	if f != math.Trunc(f) || !cohort.Valid(int(f)) {
		return "must be a six-digit term ending in 10, 20 or 30"
	}
	return ""
}

func studentID(n int) rule {
	return func(v any) string {
		s, ok := v.(string)
		if !ok {
			return "must be a string"
		}
		if !extract.ValidStudentID(s, n) {
			return fmt.Sprintf("must be exactly %d digits", n)
		}
		return ""
	}
}

// fieldRules maps every projection field name to its rule. A field carries the
// same rule in every projection it appears in.
func fieldRules(studentIDLength int) map[string]rule {
	return map[string]rule{
		"program":           oneOf(types.Programs),
		"course":            exactLength(8),
		"term":              encodedTerm,
		"cohort":            encodedTerm,
		"prog_term":         integer(cohort.MinProgramTerm, cohort.MaxProgramTerm),
		"instr_first_name":  length(1, 50),
		"instr_last_name":   length(1, 50),
		"assess_title":      length(1, 100),
		"assess_descript":   length(0, 500),
		"quest_text":        length(0, 500),
		"clos":              length(0, 200),
		"instr_comments":    length(0, 1000),
		"ga":                oneOf(types.GraduateAttributes),
		"gai":               oneOf(types.Indicators),
		"alignment":         oneOf(types.AlignmentStrengths),
		"instr_level":       oneOf(types.InstructionalLevels),
		"assess_type":       oneOf(types.AssessmentTypes),
		"gai_score":         between(0, 10000),
		"total_score":       between(0, 10000),
		"question_max":      integer(1, 10000),
		"assess_max":        integer(1, 10000),
		"assess_weight":     between(0, 100),
		"achievement_level": atLeast(0),
		"student_id":        studentID(studentIDLength),
	}
}
