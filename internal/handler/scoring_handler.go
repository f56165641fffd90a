package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
	"github.com/noah-isme/fitness-score-api/pkg/response"
)

type scoringService interface {
	Preview(ctx context.Context, req dto.PreviewRequest) (*dto.PreviewResponse, error)
	Catalog() *scoring.Catalog
	ValidateCatalog() dto.CatalogValidation
	ReloadCatalog() (dto.CatalogValidation, error)
}

// ScoringHandler exposes the scoring engine and its catalog.
type ScoringHandler struct {
	service scoringService
}

// NewScoringHandler constructs a scoring handler.
func NewScoringHandler(svc scoringService) *ScoringHandler {
	return &ScoringHandler{service: svc}
}

// Preview godoc
// @Summary Score measurements without saving
// @Tags Scoring
// @Accept json
// @Produce json
// @Param payload body dto.PreviewRequest true "Measurements"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scoring/preview [post]
func (h *ScoringHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Catalog godoc
// @Summary Active test item catalog
// @Tags Scoring
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scoring/catalog [get]
func (h *ScoringHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Catalog(), nil)
}

// Validate godoc
// @Summary Catalog integrity report
// @Tags Scoring
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scoring/catalog/validate [get]
func (h *ScoringHandler) Validate(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.ValidateCatalog(), nil)
}

// Reload godoc
// @Summary Reload the catalog file
// @Tags Scoring
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /scoring/catalog/reload [post]
func (h *ScoringHandler) Reload(c *gin.Context) {
	report, err := h.service.ReloadCatalog()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
