package dto

import (
	"github.com/noah-isme/fitness-score-api/internal/cohort"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
)

// PreviewRequest scores ad-hoc measurements against the active catalog.
// GradeLevel wins over Cohort when both are given.
type PreviewRequest struct {
	Gender       scoring.Gender       `json:"gender" validate:"required,oneof=male female"`
	GradeLevel   *int                 `json:"grade_level" validate:"omitempty,min=1"`
	Cohort       string               `json:"cohort"`
	AcademicYear string               `json:"academic_year"`
	TestData     scoring.Measurements `json:"test_data" validate:"required"`
}

// PreviewResponse is the stateless scoring outcome.
type PreviewResponse struct {
	CatalogVersion string               `json:"catalog_version"`
	GradeLevel     *int                 `json:"grade_level"`
	Measurements   scoring.Measurements `json:"measurements"`
	Result         scoring.Result       `json:"result"`
	Warnings       []string             `json:"warnings,omitempty"`
}

// CatalogValidation lists integrity issues of the active catalog.
type CatalogValidation struct {
	Version string          `json:"version"`
	Valid   bool            `json:"valid"`
	Issues  []scoring.Issue `json:"issues"`
}

// CohortStanding describes a cohort within an academic year.
type CohortStanding struct {
	Cohort         string        `json:"cohort"`
	CohortDisplay  string        `json:"cohort_display"`
	AcademicYear   string        `json:"academic_year"`
	GradeLevel     *int          `json:"grade_level"`
	GradeName      string        `json:"grade_name"`
	Status         cohort.Status `json:"status"`
	Graduated      bool          `json:"graduated"`
	GraduationYear string        `json:"graduation_year"`
}
