package models

import "time"

// GradeDistribution counts records per grade label.
type GradeDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Pass      int `json:"pass"`
	Fail      int `json:"fail"`
}

// GenderStatistics summarises one gender within a group.
type GenderStatistics struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

// ClassStatistics summarises a class's progress on a form.
type ClassStatistics struct {
	FormID         string            `json:"form_id"`
	ClassID        string            `json:"class_id"`
	ClassName      string            `json:"class_name"`
	AcademicYear   string            `json:"academic_year"`
	TotalStudents  int               `json:"total_students"`
	CompletedCount int               `json:"completed_count"`
	CompletionRate float64           `json:"completion_rate"`
	AverageScore   float64           `json:"average_score"`
	Distribution   GradeDistribution `json:"grade_distribution"`
	Male           GenderStatistics  `json:"male"`
	Female         GenderStatistics  `json:"female"`
	ItemAverages   []ItemStatistics  `json:"item_averages"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// GradeLevelStatistics summarises every record of one grade level.
type GradeLevelStatistics struct {
	GradeLevel   int               `json:"grade_level"`
	GradeName    string            `json:"grade_name"`
	RecordCount  int               `json:"record_count"`
	AverageScore float64           `json:"average_score"`
	Distribution GradeDistribution `json:"grade_distribution"`
}

// ItemStatistics is the mean score of one item over records that scored it.
type ItemStatistics struct {
	ItemCode     string  `json:"item_code"`
	ItemName     string  `json:"item_name"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

// FormStatistics summarises every record of a form.
type FormStatistics struct {
	FormID       string                 `json:"form_id"`
	FormName     string                 `json:"form_name"`
	AcademicYear string                 `json:"academic_year"`
	TotalRecords int                    `json:"total_records"`
	AverageScore float64                `json:"average_score"`
	Distribution GradeDistribution      `json:"grade_distribution"`
	GradeLevels  []GradeLevelStatistics `json:"grade_levels"`
	Items        []ItemStatistics       `json:"items"`
	GeneratedAt  time.Time              `json:"generated_at"`
}
