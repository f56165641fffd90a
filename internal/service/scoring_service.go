package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fitness-score-api/internal/cohort"
	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
)

type catalogSource interface {
	Catalog() *scoring.Catalog
	Issues() []scoring.Issue
	Reload() error
}

// ScoringService scores ad-hoc measurements against the active catalog.
type ScoringService struct {
	catalog   catalogSource
	calc      *cohort.Calculator
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewScoringService constructs the service.
func NewScoringService(catalog catalogSource, calc *cohort.Calculator, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ScoringService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringService{catalog: catalog, calc: calc, validator: validate, metrics: metrics, logger: logger}
}

// Preview evaluates measurements without storing anything. Out-of-range values
// and BMI problems are reported as warnings, not errors.
func (s *ScoringService) Preview(ctx context.Context, req dto.PreviewRequest) (*dto.PreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview payload")
	}

	var warnings []string
	level := req.GradeLevel
	if level == nil && req.Cohort != "" {
		year := req.AcademicYear
		if year == "" {
			year = s.calc.CurrentAcademicYear()
		}
		standing, err := s.calc.Standing(req.Cohort, year)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cohort or academic year")
		}
		if standing.Status == cohort.StatusEnrolled {
			l := standing.Level
			level = &l
		} else {
			warnings = append(warnings, fmt.Sprintf("cohort %s is %s in %s; grade-specific tables are skipped", req.Cohort, standing.Status, year))
		}
	}

	catalog := s.catalog.Catalog()
	warnings = append(warnings, measurementWarnings(req.TestData, catalog.Items, req.Gender)...)

	derived, result, err := evaluate(s.metrics, req.TestData, catalog.Items, req.Gender, level)
	if err != nil {
		warnings = append(warnings, err.Error())
	}

	return &dto.PreviewResponse{
		CatalogVersion: catalog.Version,
		GradeLevel:     level,
		Measurements:   derived,
		Result:         result,
		Warnings:       warnings,
	}, nil
}

// Catalog returns the active catalog.
func (s *ScoringService) Catalog() *scoring.Catalog {
	return s.catalog.Catalog()
}

// ValidateCatalog reports the integrity issues of the active catalog.
func (s *ScoringService) ValidateCatalog() dto.CatalogValidation {
	issues := s.catalog.Issues()
	if issues == nil {
		issues = []scoring.Issue{}
	}
	return dto.CatalogValidation{Version: s.catalog.Catalog().Version, Valid: len(issues) == 0, Issues: issues}
}

// ReloadCatalog reads the catalog file again. A rejected catalog leaves the previous one active.
func (s *ScoringService) ReloadCatalog() (dto.CatalogValidation, error) {
	if err := s.catalog.Reload(); err != nil {
		if errors.Is(err, scoring.ErrCatalogRejected) {
			return dto.CatalogValidation{}, appErrors.Wrap(err, appErrors.ErrInvalidCatalog.Code, appErrors.ErrInvalidCatalog.Status, appErrors.ErrInvalidCatalog.Message)
		}
		return dto.CatalogValidation{}, appErrors.Wrap(err, appErrors.ErrInvalidCatalog.Code, appErrors.ErrInvalidCatalog.Status, "scoring catalog could not be read")
	}
	return s.ValidateCatalog(), nil
}

// evaluate runs the scoring pipeline and records its metrics.
func evaluate(metrics *MetricsService, values scoring.Measurements, items []scoring.Item, gender scoring.Gender, level *int) (scoring.Measurements, scoring.Result, error) {
	start := time.Now()
	derived, result, err := scoring.Evaluate(values, items, gender, level)
	metrics.ObserveScoring(result.Grade, time.Since(start))
	if err != nil {
		metrics.RecordBMIFailure()
	}
	return derived, result, err
}

// measurementWarnings checks entered values against their items' rules. Derived
// items are skipped because their value is never entered.
func measurementWarnings(values scoring.Measurements, items []scoring.Item, gender scoring.Gender) []string {
	var warnings []string
	for _, item := range scoring.ApplicableItems(items, gender) {
		if item.Calculated {
			continue
		}
		if err := scoring.ValidateValue(values[item.Code], item.Rule(), item.Type()); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", item.Code, err))
		}
	}
	return warnings
}
