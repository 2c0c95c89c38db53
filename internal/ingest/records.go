package ingest

import "github.com/dwsmith1983/accredit/pkg/types"

// row carries the per-student values merged into the shared context.
type row struct {
	studentID   string
	score       float64
	cohort      int
	achievement float64
}

func processRecord(obs types.ObservationContext) types.ProcessRecord {
	return types.ProcessRecord{
		Term:    obs.Term,
		Program: obs.Program,
		Course:  obs.Course,
		GAI:     obs.GAI,
	}
}

func facultyMetric(obs types.ObservationContext, r row) types.FacultyMetric {
	return types.FacultyMetric{
		Course:         obs.Course,
		Term:           obs.Term,
		InstrFirstName: obs.InstrFirstName,
		InstrLastName:  obs.InstrLastName,
		AssessTitle:    obs.AssessTitle,
		GAIScore:       r.score,
		TotalScore:     obs.TotalScore,
		Cohort:         r.cohort,
	}
}

func programMetric(obs types.ObservationContext, r row) types.ProgramMetric {
	return types.ProgramMetric{
		Term:             obs.Term,
		GA:               obs.GA,
		GAI:              obs.GAI,
		ProgramTerm:      obs.ProgramTerm,
		GAIScore:         r.score,
		TotalScore:       obs.TotalScore,
		AchievementLevel: r.achievement,
		Cohort:           r.cohort,
	}
}

func validityRecord(obs types.ObservationContext, r row) types.ValidityRecord {
	return types.ValidityRecord{
		GAI:            obs.GAI,
		GA:             obs.GA,
		Course:         obs.Course,
		QuestionMax:    obs.QuestionMax,
		Alignment:      obs.Alignment,
		GAIScore:       r.score,
		TotalScore:     obs.TotalScore,
		AssessMax:      obs.AssessMax,
		AssessWeight:   obs.AssessWeight,
		AssessDescript: obs.AssessDescript,
		CLOs:           obs.CLOs,
	}
}

func accreditationRow(obs types.ObservationContext, r row) types.AccreditationReportRow {
	return types.AccreditationReportRow{
		Program:          obs.Program,
		Term:             obs.Term,
		GA:               obs.GA,
		GAI:              obs.GAI,
		AssessType:       obs.AssessType,
		QuestText:        obs.QuestText,
		Alignment:        obs.Alignment,
		InstrLevel:       obs.InstrLevel,
		AchievementLevel: r.achievement,
		StudentID:        r.studentID,
	}
}

func annualRow(obs types.ObservationContext, r row) types.AnnualReportRow {
	return types.AnnualReportRow{
		Program:          obs.Program,
		Term:             obs.Term,
		Course:           obs.Course,
		GA:               obs.GA,
		GAI:              obs.GAI,
		StudentID:        r.studentID,
		AchievementLevel: r.achievement,
		AssessType:       obs.AssessType,
		InstrComments:    obs.InstrComments,
	}
}
