package testutil

import (
	"bytes"
	"fmt"

	"github.com/dwsmith1983/accredit/pkg/types"
)

// Context returns a valid observation context for a third-term COMP course
// in September 2025.
func Context() types.ObservationContext {
	return types.ObservationContext{
		Program:        types.ProgramComputer,
		Course:         "COMP3800",
		Term:           202530,
		ProgramTerm:    3,
		InstrFirstName: "Grace",
		InstrLastName:  "Hopper",
		GA:             "GA3",
		GAI:            "3.2",
		InstrLevel:     types.LevelDeveloped,
		Alignment:      types.AlignmentStrong,
		CLOs:           "CLO1, CLO3",
		AssessType:     types.AssessMidterm,
		AssessWeight:   25,
		AssessMax:      100,
		TotalScore:     80,
		QuestionMax:    10,
		AssessTitle:    "Midterm 1",
		AssessDescript: "Written midterm",
		QuestText:      "Design an experiment",
		InstrComments:  "Strong cohort overall",
	}
}

// Scores returns n scores for ids 10000001.. with scores cycling 0..10.
func Scores(n int) []types.StudentScore {
	out := make([]types.StudentScore, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, types.StudentScore{
			StudentID: fmt.Sprintf("%08d", 10000001+i),
			Score:     float64(i % 11),
		})
	}
	return out
}

// CSV renders scores as a gradebook export with the three header rows the
// extractor skips.
func CSV(scores []types.StudentScore) []byte {
	var buf bytes.Buffer
	buf.WriteString("Course,COMP3800\n")
	buf.WriteString("Assessment,Midterm 1\n")
	buf.WriteString("Student ID,Score,Name\n")
	for _, s := range scores {
		fmt.Fprintf(&buf, "%s,%g,Student\n", s.StudentID, s.Score)
	}
	return buf.Bytes()
}
