package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/models"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
	"github.com/noah-isme/fitness-score-api/pkg/response"
)

type recordService interface {
	Submit(ctx context.Context, req dto.SubmitRecordRequest) (*models.Record, error)
	SubmitBatch(ctx context.Context, req dto.BatchSubmitRequest) (*dto.BatchSubmitResult, error)
	Get(ctx context.Context, id string) (*models.Record, error)
	Delete(ctx context.Context, id string) error
	ClassRoster(ctx context.Context, formID, classID, academicYear string) ([]models.RosterEntry, error)
	Recalculate(ctx context.Context, formID string) (*dto.RecalculateResponse, error)
}

// RecordHandler exposes test record endpoints.
type RecordHandler struct {
	service recordService
}

// NewRecordHandler constructs a record handler.
func NewRecordHandler(svc recordService) *RecordHandler {
	return &RecordHandler{service: svc}
}

// Submit godoc
// @Summary Submit test record
// @Description Scores one student's measurements and saves them, replacing an earlier record on the same form.
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body dto.SubmitRecordRequest true "Measurements"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /records [post]
func (h *RecordHandler) Submit(c *gin.Context) {
	var req dto.SubmitRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// SubmitBatch godoc
// @Summary Submit test records in bulk
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body dto.BatchSubmitRequest true "Rows"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /records/batch [post]
func (h *RecordHandler) SubmitBatch(c *gin.Context) {
	var req dto.BatchSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.SubmitBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Get test record
// @Tags Records
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/{id} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete test record
// @Tags Records
// @Param id path string true "Record ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /records/{id} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roster godoc
// @Summary Class roster for a form
// @Description Every active student of the class with their record on the form, if any.
// @Tags Records
// @Produce json
// @Param id path string true "Form ID"
// @Param classId path string true "Class ID"
// @Param academic_year query string false "Academic year, defaults to the form's"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /forms/{id}/classes/{classId}/roster [get]
func (h *RecordHandler) Roster(c *gin.Context) {
	roster, err := h.service.ClassRoster(c.Request.Context(), c.Param("id"), c.Param("classId"), c.Query("academic_year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil, map[string]interface{}{"count": len(roster)})
}

// Recalculate godoc
// @Summary Rescore a form
// @Description Queues a background job that rescores every record of the form.
// @Tags Records
// @Produce json
// @Param id path string true "Form ID"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forms/{id}/recalculate [post]
func (h *RecordHandler) Recalculate(c *gin.Context) {
	resp, err := h.service.Recalculate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, resp)
}
