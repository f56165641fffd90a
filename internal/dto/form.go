package dto

import "github.com/noah-isme/fitness-score-api/internal/models"

// CreateFormRequest seeds a new test form from the active catalog.
type CreateFormRequest struct {
	FormName             string         `json:"form_name" validate:"required,max=200"`
	AcademicYear         string         `json:"academic_year" validate:"required"`
	TestDate             string         `json:"test_date" validate:"omitempty,datetime=2006-01-02"`
	Description          *string        `json:"description"`
	ParticipatingCohorts []string       `json:"participating_cohorts" validate:"required,min=1"`
	ItemCodes            []string       `json:"item_codes"`
	WeightOverrides      map[string]int `json:"weight_overrides" validate:"omitempty,dive,min=0,max=100"`
}

// UpdateFormStatusRequest moves a form through its lifecycle.
type UpdateFormStatusRequest struct {
	Status models.FormStatus `json:"status" validate:"required,oneof=draft published closed"`
}
