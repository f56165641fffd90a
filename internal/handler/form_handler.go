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

type formService interface {
	Create(ctx context.Context, req dto.CreateFormRequest) (*models.TestFormDetail, error)
	Get(ctx context.Context, id string) (*models.TestFormDetail, error)
	List(ctx context.Context, filter models.FormFilter) ([]models.TestForm, *models.Pagination, error)
	SetStatus(ctx context.Context, id string, req dto.UpdateFormStatusRequest) (*models.TestFormDetail, error)
}

// FormHandler exposes test form endpoints.
type FormHandler struct {
	service formService
}

// NewFormHandler constructs a form handler.
func NewFormHandler(svc formService) *FormHandler {
	return &FormHandler{service: svc}
}

// Create godoc
// @Summary Create test form
// @Description Creates a draft form whose items are snapshotted from the active catalog.
// @Tags Forms
// @Accept json
// @Produce json
// @Param payload body dto.CreateFormRequest true "Form payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /forms [post]
func (h *FormHandler) Create(c *gin.Context) {
	var req dto.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	form, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, form)
}

// List godoc
// @Summary List test forms
// @Tags Forms
// @Produce json
// @Param academic_year query string false "Academic year"
// @Param status query string false "draft, published or closed"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /forms [get]
func (h *FormHandler) List(c *gin.Context) {
	filter := models.FormFilter{
		AcademicYear: c.Query("academic_year"),
		Status:       models.FormStatus(c.Query("status")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	forms, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forms, pagination)
}

// Get godoc
// @Summary Get test form
// @Tags Forms
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forms/{id} [get]
func (h *FormHandler) Get(c *gin.Context) {
	form, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// SetStatus godoc
// @Summary Change form status
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body dto.UpdateFormStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forms/{id}/status [patch]
func (h *FormHandler) SetStatus(c *gin.Context) {
	var req dto.UpdateFormStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	form, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}
