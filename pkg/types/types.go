package types

// ObservationContext is the form-field bundle shared by every row of one upload.
// Per-row values (student id and GAI score) come from the spreadsheet.
type ObservationContext struct {
	Program        Program            `yaml:"program" json:"program"`
	Course         string             `yaml:"course" json:"course"`
	Term           int                `yaml:"term" json:"term"`
	ProgramTerm    int                `yaml:"prog_term" json:"prog_term"`
	InstrFirstName string             `yaml:"instr_first_name" json:"instr_first_name"`
	InstrLastName  string             `yaml:"instr_last_name" json:"instr_last_name"`
	GA             string             `yaml:"ga" json:"ga"`
	GAI            string             `yaml:"gai" json:"gai"`
	InstrLevel     InstructionalLevel `yaml:"instr_level" json:"instr_level"`
	Alignment      AlignmentStrength  `yaml:"alignment" json:"alignment"`
	CLOs           string             `yaml:"clos" json:"clos"`
	AssessType     AssessmentType     `yaml:"assess_type" json:"assess_type"`
	AssessWeight   float64            `yaml:"assess_weight" json:"assess_weight"`
	AssessMax      int                `yaml:"assess_max" json:"assess_max"`
	TotalScore     float64            `yaml:"total_score" json:"total_score"`
	QuestionMax    int                `yaml:"question_max" json:"question_max"`
	AssessTitle    string             `yaml:"assess_title" json:"assess_title"`
	AssessDescript string             `yaml:"assess_descript" json:"assess_descript"`
	QuestText      string             `yaml:"quest_text" json:"quest_text"`
	InstrComments  string             `yaml:"instr_comments" json:"instr_comments"`
}

// StudentScore is one extracted spreadsheet row.
type StudentScore struct {
	StudentID string  `json:"student_id"`
	Score     float64 `json:"score"`
}

// ProcessRecord registers that a (course, term, indicator) was assessed.
type ProcessRecord struct {
	ID      string  `json:"id" dynamodbav:"id"`
	Term    int     `json:"term" dynamodbav:"term"`
	Program Program `json:"program" dynamodbav:"program"`
	Course  string  `json:"course" dynamodbav:"course"`
	GAI     string  `json:"gai" dynamodbav:"gai"`
}

// FacultyMetric is the instructor-level rollup.
type FacultyMetric struct {
	ID             string  `json:"id" dynamodbav:"id"`
	Course         string  `json:"course" dynamodbav:"course"`
	Term           int     `json:"term" dynamodbav:"term"`
	InstrFirstName string  `json:"instr_first_name" dynamodbav:"instr_first_name"`
	InstrLastName  string  `json:"instr_last_name" dynamodbav:"instr_last_name"`
	AssessTitle    string  `json:"assess_title" dynamodbav:"assess_title"`
	GAIScore       float64 `json:"gai_score" dynamodbav:"gai_score"`
	TotalScore     float64 `json:"total_score" dynamodbav:"total_score"`
	Cohort         int     `json:"cohort" dynamodbav:"cohort"`
}

// ProgramMetric is the program-level rollup.
type ProgramMetric struct {
	ID               string  `json:"id" dynamodbav:"id"`
	Term             int     `json:"term" dynamodbav:"term"`
	GA               string  `json:"ga" dynamodbav:"ga"`
	GAI              string  `json:"gai" dynamodbav:"gai"`
	ProgramTerm      int     `json:"prog_term" dynamodbav:"prog_term"`
	GAIScore         float64 `json:"gai_score" dynamodbav:"gai_score"`
	TotalScore       float64 `json:"total_score" dynamodbav:"total_score"`
	AchievementLevel float64 `json:"achievement_level" dynamodbav:"achievement_level"`
	Cohort           int     `json:"cohort" dynamodbav:"cohort"`
}

// ValidityRecord is the validity/alignment audit trail entry.
type ValidityRecord struct {
	ID             string            `json:"id" dynamodbav:"id"`
	GAI            string            `json:"gai" dynamodbav:"gai"`
	GA             string            `json:"ga" dynamodbav:"ga"`
	Course         string            `json:"course" dynamodbav:"course"`
	QuestionMax    int               `json:"question_max" dynamodbav:"question_max"`
	Alignment      AlignmentStrength `json:"alignment" dynamodbav:"alignment"`
	GAIScore       float64           `json:"gai_score" dynamodbav:"gai_score"`
	TotalScore     float64           `json:"total_score" dynamodbav:"total_score"`
	AssessMax      int               `json:"assess_max" dynamodbav:"assess_max"`
	AssessWeight   float64           `json:"assess_weight" dynamodbav:"assess_weight"`
	AssessDescript string            `json:"assess_descript" dynamodbav:"assess_descript"`
	CLOs           string            `json:"clos" dynamodbav:"clos"`
}

// AccreditationReportRow is one per-student accreditation report line.
type AccreditationReportRow struct {
	ID               string             `json:"id" dynamodbav:"id"`
	Program          Program            `json:"program" dynamodbav:"program"`
	Term             int                `json:"term" dynamodbav:"term"`
	GA               string             `json:"ga" dynamodbav:"ga"`
	GAI              string             `json:"gai" dynamodbav:"gai"`
	AssessType       AssessmentType     `json:"assess_type" dynamodbav:"assess_type"`
	QuestText        string             `json:"quest_text" dynamodbav:"quest_text"`
	Alignment        AlignmentStrength  `json:"alignment" dynamodbav:"alignment"`
	InstrLevel       InstructionalLevel `json:"instr_level" dynamodbav:"instr_level"`
	AchievementLevel float64            `json:"achievement_level" dynamodbav:"achievement_level"`
	StudentID        string             `json:"student_id" dynamodbav:"student_id"`
}

// AnnualReportRow is one per-student annual narrative line.
type AnnualReportRow struct {
	ID               string         `json:"id" dynamodbav:"id"`
	Program          Program        `json:"program" dynamodbav:"program"`
	Term             int            `json:"term" dynamodbav:"term"`
	Course           string         `json:"course" dynamodbav:"course"`
	GA               string         `json:"ga" dynamodbav:"ga"`
	GAI              string         `json:"gai" dynamodbav:"gai"`
	StudentID        string         `json:"student_id" dynamodbav:"student_id"`
	AchievementLevel float64        `json:"achievement_level" dynamodbav:"achievement_level"`
	AssessType       AssessmentType `json:"assess_type" dynamodbav:"assess_type"`
	InstrComments    string         `json:"instr_comments" dynamodbav:"instr_comments"`
}

// FlatRow is one reconstructed observation: the union of all six projections'
// fields keyed by field name.
type FlatRow map[string]any
