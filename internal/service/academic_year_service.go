package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/fitness-score-api/internal/cohort"
	"github.com/noah-isme/fitness-score-api/internal/models"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
)

type settingRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

// AcademicYearService resolves the academic year the school is operating in.
type AcademicYearService struct {
	settings settingRepository
	calc     *cohort.Calculator
	logger   *zap.Logger
}

// NewAcademicYearService constructs the service.
func NewAcademicYearService(settings settingRepository, calc *cohort.Calculator, logger *zap.Logger) *AcademicYearService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicYearService{settings: settings, calc: calc, logger: logger}
}

// Current returns the stored current academic year when one is set and well
// formed, otherwise the year derived from the clock.
func (s *AcademicYearService) Current(ctx context.Context) string {
	setting, err := s.settings.Get(ctx, models.SettingCurrentAcademicYear)
	switch {
	case err == nil && cohort.IsValidAcademicYear(setting.Value):
		return setting.Value
	case err == nil:
		s.logger.Warn("ignoring malformed academic year setting", zap.String("value", setting.Value))
	case !errors.Is(err, sql.ErrNoRows):
		s.logger.Warn("failed to read academic year setting", zap.Error(err))
	}
	return s.calc.CurrentAcademicYear()
}

// SetCurrent stores an explicit current academic year.
func (s *AcademicYearService) SetCurrent(ctx context.Context, academicYear string) error {
	if !cohort.IsValidAcademicYear(academicYear) {
		return appErrors.Clone(appErrors.ErrValidation, "academic year must look like 2024-2025")
	}
	description := "current academic year"
	setting := &models.Setting{Key: models.SettingCurrentAcademicYear, Value: academicYear, Description: &description}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store academic year")
	}
	s.logger.Info("current academic year set", zap.String("academic_year", academicYear))
	return nil
}
