package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/models"
	"github.com/noah-isme/fitness-score-api/pkg/response"
)

type classService interface {
	List(ctx context.Context, filter models.ClassFilter, academicYear string) ([]models.ClassView, *models.Pagination, error)
	Get(ctx context.Context, id, academicYear string) (*models.ClassView, error)
	Standing(ctx context.Context, cohort, academicYear string) (*dto.CohortStanding, error)
}

// ClassHandler exposes classes and cohort standing.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// List godoc
// @Summary List classes
// @Description Classes with their grade level and status in the academic year (current year by default).
// @Tags Classes
// @Produce json
// @Param cohort query string false "Enrollment year, e.g. 2023"
// @Param search query string false "Class name keyword"
// @Param academic_year query string false "Academic year, e.g. 2024-2025"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "cohort, class_name or created_at"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	filter := models.ClassFilter{
		Cohort:    strings.TrimSpace(c.Query("cohort")),
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	classes, pagination, err := h.service.List(c.Request.Context(), filter, c.Query("academic_year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Get class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param academic_year query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.service.Get(c.Request.Context(), c.Param("id"), c.Query("academic_year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Standing godoc
// @Summary Cohort standing
// @Description Grade level, status and graduation year of an enrollment cohort.
// @Tags Classes
// @Produce json
// @Param cohort path string true "Enrollment year, e.g. 2023 or 2023级"
// @Param academic_year query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /cohorts/{cohort}/standing [get]
func (h *ClassHandler) Standing(c *gin.Context) {
	standing, err := h.service.Standing(c.Request.Context(), c.Param("cohort"), c.Query("academic_year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standing, nil)
}

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, size
}
