package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/models"
	"github.com/noah-isme/fitness-score-api/pkg/response"
)

type statisticsService interface {
	Class(ctx context.Context, formID, classID string) (*models.ClassStatistics, error)
	Form(ctx context.Context, formID string) (*models.FormStatistics, error)
	Chart(ctx context.Context, formID, classID string) (*dto.StatisticsChart, error)
}

type exportService interface {
	ClassResults(ctx context.Context, formID, classID, format string) (*dto.ExportFile, error)
}

// StatisticsHandler exposes aggregated results and result exports.
type StatisticsHandler struct {
	stats   statisticsService
	exports exportService
}

// NewStatisticsHandler constructs the handler.
func NewStatisticsHandler(stats statisticsService, exports exportService) *StatisticsHandler {
	return &StatisticsHandler{stats: stats, exports: exports}
}

// Class godoc
// @Summary Class statistics
// @Tags Statistics
// @Produce json
// @Param id path string true "Form ID"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forms/{id}/classes/{classId}/statistics [get]
func (h *StatisticsHandler) Class(c *gin.Context) {
	stats, err := h.stats.Class(c.Request.Context(), c.Param("id"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Chart godoc
// @Summary Class statistics as ECharts options
// @Tags Statistics
// @Produce json
// @Param id path string true "Form ID"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /forms/{id}/classes/{classId}/statistics/chart [get]
func (h *StatisticsHandler) Chart(c *gin.Context) {
	chart, err := h.stats.Chart(c.Request.Context(), c.Param("id"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chart, nil)
}

// Form godoc
// @Summary Form statistics
// @Description Overall results of a form by grade level and by item.
// @Tags Statistics
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} response.Envelope
// @Router /forms/{id}/statistics [get]
func (h *StatisticsHandler) Form(c *gin.Context) {
	stats, err := h.stats.Form(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export class results
// @Tags Statistics
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Form ID"
// @Param classId path string true "Class ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /forms/{id}/classes/{classId}/export [get]
func (h *StatisticsHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	file, err := h.exports.ClassResults(c.Request.Context(), c.Param("id"), c.Param("classId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
