// Package cohort resolves the entry term of a student cohort from an
// encoded academic term (YYYYTT) and the student's current program term.
package cohort

import (
	"errors"
	"fmt"
)

// Term codes within one academic year.
const (
	Winter = 10
	Summer = 20
	Fall   = 30
)

// Program term bounds.
const (
	MinProgramTerm = 1
	MaxProgramTerm = 8
)

var (
	// ErrProgramTermRange is returned when the program term is outside 1..8.
	ErrProgramTermRange = errors.New("program term must be between 1 and 8")
	// ErrInvalidTerm is returned for an encoded term whose code is not 10, 20 or 30.
	ErrInvalidTerm = errors.New("invalid academic term")
)

var termNames = map[int]string{
	Winter: "January",
	Summer: "May",
	Fall:   "September",
}

// Split breaks an encoded term into its year and term code.
func Split(term int) (year, code int) {
	return term / 100, term % 100
}

// Valid reports whether term is a six-digit encoded term with a known code.
func Valid(term int) bool {
	if term < 100000 || term > 999999 {
		return false
	}
	_, code := Split(term)
	_, ok := termNames[code]
	return ok
}

// Label renders an encoded term for humans, e.g. 202530 -> "2025 September".
func Label(term int) string {
	year, code := Split(term)
	name, ok := termNames[code]
	if !ok {
		return fmt.Sprintf("%d", term)
	}
	return fmt.Sprintf("%d %s", year, name)
}

// Resolve walks back programTerm-1 counted terms from academicTerm and
// returns the term the cohort started in. Summer terms are passed through
// but never counted, so the result is always a winter or fall term when
// programTerm > 1. The year is not bounded below.
func Resolve(programTerm, academicTerm int) (int, error) {
	if programTerm < MinProgramTerm || programTerm > MaxProgramTerm {
		return 0, fmt.Errorf("%w: got %d", ErrProgramTermRange, programTerm)
	}
	year, code := Split(academicTerm)
	if _, ok := termNames[code]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTerm, academicTerm)
	}

	for remaining := programTerm - 1; remaining > 0; {
		year, code = previous(year, code)
		if code != Summer {
			remaining--
		}
	}
	return year*100 + code, nil
}

func previous(year, code int) (int, int) {
	switch code {
	case Winter:
		return year - 1, Fall
	case Fall:
		return year, Summer
	default:
		return year, Winter
	}
}
