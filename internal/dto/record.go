package dto

import (
	"github.com/noah-isme/fitness-score-api/internal/models"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
)

// SubmitRecordRequest carries one student's raw measurements.
type SubmitRecordRequest struct {
	FormID    string               `json:"form_id" validate:"required"`
	StudentID string               `json:"student_id" validate:"required"`
	ClassID   string               `json:"class_id" validate:"required"`
	TestData  scoring.Measurements `json:"test_data" validate:"required"`
}

// BatchRecordRow is one row of a batch submission. Rows without a class are skipped.
type BatchRecordRow struct {
	StudentID string               `json:"student_id" validate:"required"`
	ClassID   string               `json:"class_id"`
	TestData  scoring.Measurements `json:"test_data"`
}

// BatchSubmitRequest submits many students' measurements for one form.
type BatchSubmitRequest struct {
	FormID  string           `json:"form_id" validate:"required"`
	Records []BatchRecordRow `json:"records" validate:"required,min=1,dive"`
}

// BatchSkip explains why a batch row was not saved.
type BatchSkip struct {
	Row       int    `json:"row"`
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// BatchSubmitResult reports the outcome of a batch submission.
type BatchSubmitResult struct {
	Saved   int             `json:"saved"`
	Skipped []BatchSkip     `json:"skipped"`
	Records []models.Record `json:"records"`
}

// RecalculateResponse acknowledges a queued rescoring job.
type RecalculateResponse struct {
	JobID  string `json:"job_id"`
	FormID string `json:"form_id"`
}
