package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/fitness-score-api/internal/cohort"
	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/models"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type academicYearResolver interface {
	Current(ctx context.Context) string
}

// ClassService serves classes decorated with their standing in an academic year.
type ClassService struct {
	repo   classRepository
	years  academicYearResolver
	calc   *cohort.Calculator
	logger *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, years academicYearResolver, calc *cohort.Calculator, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, years: years, calc: calc, logger: logger}
}

// List returns classes with pagination metadata. An empty academicYear means the current one.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter, academicYear string) ([]models.ClassView, *models.Pagination, error) {
	year, err := s.resolveYear(ctx, academicYear)
	if err != nil {
		return nil, nil, err
	}
	if filter.Cohort != "" {
		filter.Cohort = strings.TrimSuffix(filter.Cohort, "级")
	}
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	views := make([]models.ClassView, len(classes))
	for i, class := range classes {
		views[i] = classView(s.calc, class, year)
	}
	return views, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one class decorated for the academic year.
func (s *ClassService) Get(ctx context.Context, id, academicYear string) (*models.ClassView, error) {
	year, err := s.resolveYear(ctx, academicYear)
	if err != nil {
		return nil, err
	}
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	view := classView(s.calc, *class, year)
	return &view, nil
}

// Standing reports where a cohort sits in the academic year.
func (s *ClassService) Standing(ctx context.Context, cohortValue, academicYear string) (*dto.CohortStanding, error) {
	year, err := s.resolveYear(ctx, academicYear)
	if err != nil {
		return nil, err
	}
	standing, err := s.calc.Standing(cohortValue, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cohort must be a 4-digit enrollment year")
	}
	graduation, _ := s.calc.GraduationYear(cohortValue)
	out := &dto.CohortStanding{
		Cohort:         strings.TrimSuffix(cohortValue, "级"),
		CohortDisplay:  cohort.DisplayCohort(cohortValue),
		AcademicYear:   year,
		GradeName:      cohort.UnknownGradeName,
		Status:         standing.Status,
		Graduated:      standing.Status == cohort.StatusGraduated,
		GraduationYear: graduation,
	}
	if level, ok := s.calc.GradeLevel(cohortValue, year); ok {
		out.GradeLevel = &level
		out.GradeName = s.calc.GradeName(level)
	}
	return out, nil
}

func (s *ClassService) resolveYear(ctx context.Context, academicYear string) (string, error) {
	if academicYear == "" {
		return s.years.Current(ctx), nil
	}
	if !cohort.IsValidAcademicYear(academicYear) {
		return "", appErrors.Clone(appErrors.ErrValidation, "academic_year must look like 2024-2025")
	}
	return academicYear, nil
}

// classView derives the read-time fields of a class. A malformed cohort leaves
// the level empty and the status unset.
func classView(calc *cohort.Calculator, class models.Class, academicYear string) models.ClassView {
	view := models.ClassView{
		Class:         class,
		AcademicYear:  academicYear,
		CohortDisplay: cohort.DisplayCohort(class.Cohort),
		GradeName:     cohort.UnknownGradeName,
		ClassNumber:   cohort.ExtractClassNumber(class.ClassName),
	}
	if standing, err := calc.Standing(class.Cohort, academicYear); err == nil {
		view.Status = standing.Status
	}
	if level, ok := calc.GradeLevel(class.Cohort, academicYear); ok {
		view.GradeLevel = &level
		view.GradeName = calc.GradeName(level)
	}
	if graduation, err := calc.GraduationYear(class.Cohort); err == nil {
		view.GraduationYear = graduation
	}
	return view
}
