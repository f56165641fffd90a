package models

import (
	"time"

	"github.com/noah-isme/fitness-score-api/internal/scoring"
)

// Record is one student's scored result on a form.
type Record struct {
	ID          string               `db:"id" json:"id"`
	FormID      string               `db:"form_id" json:"form_id"`
	StudentID   string               `db:"student_id" json:"student_id"`
	ClassID     string               `db:"class_id" json:"class_id"`
	TestData    scoring.Measurements `db:"test_data" json:"test_data"`
	Scores      scoring.Scores       `db:"scores" json:"scores"`
	TotalScore  float64              `db:"total_score" json:"total_score"`
	GradeLabel  scoring.Grade        `db:"grade_label" json:"grade_label"`
	SubmittedAt time.Time            `db:"submitted_at" json:"submitted_at"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`
}

// RecordDetail joins a record with its student and class for reporting.
type RecordDetail struct {
	Record
	StudentName     string `db:"student_name" json:"student_name"`
	StudentIDSchool string `db:"student_id_school" json:"student_id_school"`
	Gender          string `db:"gender" json:"gender"`
	ClassName       string `db:"class_name" json:"class_name"`
	Cohort          string `db:"cohort" json:"cohort"`
}
