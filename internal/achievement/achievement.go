// Package achievement computes the normalised achievement level of one
// indicator score.
package achievement

import (
	"errors"
	"math"
)

// ErrZeroMaximum is returned when the question maximum is zero.
var ErrZeroMaximum = errors.New("maximum question score cannot be zero")

// Level returns score/questionMax rounded to two decimals, half away from
// zero. Scores above the maximum give levels above 1; no clamping is applied.
func Level(score float64, questionMax int) (float64, error) {
	if questionMax == 0 {
		return 0, ErrZeroMaximum
	}
	return Round2(score / float64(questionMax)), nil
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
