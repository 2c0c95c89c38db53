package providertest

import "github.com/dwsmith1983/accredit/pkg/types"

// SampleProcess returns a valid ProcessRecord for id.
func SampleProcess(id string) types.ProcessRecord {
	return types.ProcessRecord{
		ID:      id,
		Term:    202530,
		Program: types.ProgramComputer,
		Course:  "COMP3800",
		GAI:     "3.2",
	}
}

// SampleFaculty returns a valid FacultyMetric for id.
func SampleFaculty(id string) types.FacultyMetric {
	return types.FacultyMetric{
		ID:             id,
		Course:         "COMP3800",
		Term:           202530,
		InstrFirstName: "Grace",
		InstrLastName:  "Hopper",
		AssessTitle:    "Midterm 1",
		GAIScore:       7,
		TotalScore:     80,
		Cohort:         202430,
	}
}

// SampleProgram returns a valid ProgramMetric for id.
func SampleProgram(id string) types.ProgramMetric {
	return types.ProgramMetric{
		ID:               id,
		Term:             202530,
		GA:               "GA3",
		GAI:              "3.2",
		ProgramTerm:      3,
		GAIScore:         7,
		TotalScore:       80,
		AchievementLevel: 0.7,
		Cohort:           202430,
	}
}

// SampleValidity returns a valid ValidityRecord for id.
func SampleValidity(id string) types.ValidityRecord {
	return types.ValidityRecord{
		ID:             id,
		GAI:            "3.2",
		GA:             "GA3",
		Course:         "COMP3800",
		QuestionMax:    10,
		Alignment:      types.AlignmentStrong,
		GAIScore:       7,
		TotalScore:     80,
		AssessMax:      100,
		AssessWeight:   25,
		AssessDescript: "Written midterm",
		CLOs:           "CLO1, CLO3",
	}
}

// SampleAccreditation returns a valid AccreditationReportRow for id.
func SampleAccreditation(id string) types.AccreditationReportRow {
	return types.AccreditationReportRow{
		ID:               id,
		Program:          types.ProgramComputer,
		Term:             202530,
		GA:               "GA3",
		GAI:              "3.2",
		AssessType:       types.AssessMidterm,
		QuestText:        "Design an experiment",
		Alignment:        types.AlignmentStrong,
		InstrLevel:       types.LevelDeveloped,
		AchievementLevel: 0.7,
		StudentID:        "12345678",
	}
}

// SampleAnnual returns a valid AnnualReportRow for id.
func SampleAnnual(id string) types.AnnualReportRow {
	return types.AnnualReportRow{
		ID:               id,
		Program:          types.ProgramComputer,
		Term:             202530,
		Course:           "COMP3800",
		GA:               "GA3",
		GAI:              "3.2",
		StudentID:        "12345678",
		AchievementLevel: 0.7,
		AssessType:       types.AssessMidterm,
		InstrComments:    "Solid cohort",
	}
}
