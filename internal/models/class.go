package models

import (
	"time"

	"github.com/noah-isme/fitness-score-api/internal/cohort"
)

// Class is a teaching group identified by its enrollment cohort.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Cohort    string    `db:"cohort" json:"cohort"`
	ClassName string    `db:"class_name" json:"class_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassView decorates a class with values derived for one academic year.
// None of the derived fields are persisted.
type ClassView struct {
	Class
	AcademicYear   string        `json:"academic_year"`
	CohortDisplay  string        `json:"cohort_display"`
	GradeLevel     *int          `json:"grade_level"`
	GradeName      string        `json:"grade_name"`
	Status         cohort.Status `json:"status,omitempty"`
	GraduationYear string        `json:"graduation_year,omitempty"`
	ClassNumber    int           `json:"class_number"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Cohort    string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
