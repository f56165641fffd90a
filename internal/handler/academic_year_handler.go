package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
	"github.com/noah-isme/fitness-score-api/pkg/response"
)

type academicYearService interface {
	Current(ctx context.Context) string
	SetCurrent(ctx context.Context, academicYear string) error
}

// AcademicYearHandler reads and sets the school's current academic year.
type AcademicYearHandler struct {
	service academicYearService
}

// NewAcademicYearHandler constructs the handler.
func NewAcademicYearHandler(svc academicYearService) *AcademicYearHandler {
	return &AcademicYearHandler{service: svc}
}

type academicYearPayload struct {
	AcademicYear string `json:"academic_year" binding:"required"`
}

// Current godoc
// @Summary Current academic year
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic-year [get]
func (h *AcademicYearHandler) Current(c *gin.Context) {
	response.JSON(c, http.StatusOK, academicYearPayload{AcademicYear: h.service.Current(c.Request.Context())}, nil)
}

// Set godoc
// @Summary Set current academic year
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body academicYearPayload true "Academic year"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /academic-year [put]
func (h *AcademicYearHandler) Set(c *gin.Context) {
	var req academicYearPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.SetCurrent(c.Request.Context(), req.AcademicYear); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}
