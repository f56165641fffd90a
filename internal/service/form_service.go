package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/fitness-score-api/internal/cohort"
	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/models"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
)

type formRepository interface {
	Create(ctx context.Context, form *models.TestForm, items []models.FormItem) error
	FindByID(ctx context.Context, id string) (*models.TestForm, error)
	ListItems(ctx context.Context, formID string) ([]models.FormItem, error)
	List(ctx context.Context, filter models.FormFilter) ([]models.TestForm, int, error)
	UpdateStatus(ctx context.Context, id string, status models.FormStatus) (bool, error)
}

// FormService manages test forms and the item snapshots they are scored with.
type FormService struct {
	repo      formRepository
	catalog   catalogSource
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFormService constructs FormService.
func NewFormService(repo formRepository, catalog catalogSource, validate *validator.Validate, logger *zap.Logger) *FormService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormService{repo: repo, catalog: catalog, validator: validate, logger: logger}
}

// Create snapshots items from the active catalog into a new draft form.
// Selecting BMI pulls in height and weight, which it is derived from.
func (s *FormService) Create(ctx context.Context, req dto.CreateFormRequest) (*models.TestFormDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid form payload")
	}
	if !cohort.IsValidAcademicYear(req.AcademicYear) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic_year must look like 2024-2025")
	}
	cohorts := make([]string, len(req.ParticipatingCohorts))
	for i, c := range req.ParticipatingCohorts {
		cohorts[i] = strings.TrimSuffix(strings.TrimSpace(c), "级")
	}
	if err := cohort.ValidateCohorts(cohorts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	catalog := s.catalog.Catalog()
	items, err := selectItems(catalog, req.ItemCodes, req.WeightOverrides)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	form := &models.TestForm{
		FormName:             strings.TrimSpace(req.FormName),
		AcademicYear:         req.AcademicYear,
		Status:               models.FormStatusDraft,
		Description:          req.Description,
		ParticipatingCohorts: pq.StringArray(cohorts),
		CatalogVersion:       catalog.Version,
	}
	if req.TestDate != "" {
		date, _ := time.Parse("2006-01-02", req.TestDate)
		form.TestDate = &date
	}

	rows := make([]models.FormItem, len(items))
	for i, item := range items {
		rows[i] = models.NewFormItem("", item)
	}
	if err := s.repo.Create(ctx, form, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create form")
	}

	s.logger.Info("test form created",
		zap.String("form_id", form.ID),
		zap.String("academic_year", form.AcademicYear),
		zap.Strings("cohorts", cohorts),
		zap.Int("items", len(rows)),
		zap.String("catalog_version", catalog.Version),
	)
	return &models.TestFormDetail{TestForm: *form, Items: rows}, nil
}

// Get returns a form with its items.
func (s *FormService) Get(ctx context.Context, id string) (*models.TestFormDetail, error) {
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test form not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form")
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form items")
	}
	return &models.TestFormDetail{TestForm: *form, Items: items}, nil
}

// List returns forms with pagination metadata.
func (s *FormService) List(ctx context.Context, filter models.FormFilter) ([]models.TestForm, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown form status")
	}
	forms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list forms")
	}
	return forms, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// SetStatus moves a form to draft, published or closed.
func (s *FormService) SetStatus(ctx context.Context, id string, req dto.UpdateFormStatusRequest) (*models.TestFormDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	ok, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update form status")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "test form not found")
	}
	s.logger.Info("test form status changed", zap.String("form_id", id), zap.String("status", string(req.Status)))
	return s.Get(ctx, id)
}

// selectItems picks catalog items by code, in catalog order, applying weight overrides.
func selectItems(catalog *scoring.Catalog, codes []string, weights map[string]int) ([]scoring.Item, error) {
	wanted := make(map[string]bool, len(codes))
	for _, code := range codes {
		if _, ok := catalog.Find(code); !ok {
			return nil, fmt.Errorf("unknown item code %q", code)
		}
		wanted[code] = true
	}
	if wanted[scoring.CodeBMI] {
		wanted[scoring.CodeHeight] = true
		wanted[scoring.CodeWeight] = true
	}
	for code := range weights {
		if _, ok := catalog.Find(code); !ok {
			return nil, fmt.Errorf("weight override for unknown item code %q", code)
		}
		if len(codes) > 0 && !wanted[code] {
			return nil, fmt.Errorf("weight override for unselected item code %q", code)
		}
	}

	items := make([]scoring.Item, 0, len(catalog.Items))
	for _, item := range catalog.Items {
		if len(codes) > 0 && !wanted[item.Code] {
			continue
		}
		if w, ok := weights[item.Code]; ok {
			item.Weight = w
		}
		items = append(items, item)
	}
	return items, nil
}
