package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitness-score-api/internal/cohort"
	"github.com/noah-isme/fitness-score-api/internal/models"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
)

type settingRepoStub struct {
	setting *models.Setting
	err     error
	stored  *models.Setting
}

func (r *settingRepoStub) Get(ctx context.Context, key string) (*models.Setting, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.setting == nil || r.setting.Key != key {
		return nil, sql.ErrNoRows
	}
	return r.setting, nil
}

func (r *settingRepoStub) Upsert(ctx context.Context, setting *models.Setting) error {
	if r.err != nil {
		return r.err
	}
	r.stored = setting
	return nil
}

func TestAcademicYearServiceCurrent(t *testing.T) {
	tests := []struct {
		name string
		repo *settingRepoStub
		want string
	}{
		{"no setting", &settingRepoStub{}, "2024-2025"},
		{"stored setting", &settingRepoStub{setting: &models.Setting{Key: models.SettingCurrentAcademicYear, Value: "2023-2024"}}, "2023-2024"},
		{"malformed setting", &settingRepoStub{setting: &models.Setting{Key: models.SettingCurrentAcademicYear, Value: "2023"}}, "2024-2025"},
		{"repository failure", &settingRepoStub{err: errBoom}, "2024-2025"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewAcademicYearService(tc.repo, testCalculator(), nil)
			assert.Equal(t, tc.want, svc.Current(context.Background()))
		})
	}
}

func TestAcademicYearServiceSetCurrent(t *testing.T) {
	repo := &settingRepoStub{}
	svc := NewAcademicYearService(repo, testCalculator(), nil)

	require.NoError(t, svc.SetCurrent(context.Background(), "2025-2026"))
	require.NotNil(t, repo.stored)
	assert.Equal(t, models.SettingCurrentAcademicYear, repo.stored.Key)
	assert.Equal(t, "2025-2026", repo.stored.Value)

	err := svc.SetCurrent(context.Background(), "2025-2027")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	repo.err = errBoom
	err = svc.SetCurrent(context.Background(), "2025-2026")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func newClassServiceForTest(classes map[string]models.Class) (*ClassService, *classRepoStub) {
	repo := &classRepoStub{classes: classes, total: len(classes)}
	calc := testCalculator()
	years := NewAcademicYearService(&settingRepoStub{}, calc, nil)
	return NewClassService(repo, years, calc, nil), repo
}

func TestClassServiceGetDecoratesClass(t *testing.T) {
	svc, _ := newClassServiceForTest(map[string]models.Class{
		"c1": {ID: "c1", Cohort: "2023", ClassName: "十二班"},
		"c2": {ID: "c2", Cohort: "2020", ClassName: "一班"},
	})

	view, err := svc.Get(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-2025", view.AcademicYear)
	assert.Equal(t, "2023级", view.CohortDisplay)
	require.NotNil(t, view.GradeLevel)
	assert.Equal(t, 2, *view.GradeLevel)
	assert.Equal(t, "二年级", view.GradeName)
	assert.Equal(t, cohort.StatusEnrolled, view.Status)
	assert.Equal(t, "2025", view.GraduationYear)
	assert.Equal(t, 12, view.ClassNumber)

	view, err = svc.Get(context.Background(), "c2", "2024-2025")
	require.NoError(t, err)
	assert.Nil(t, view.GradeLevel)
	assert.Equal(t, cohort.UnknownGradeName, view.GradeName)
	assert.Equal(t, cohort.StatusGraduated, view.Status)

	_, err = svc.Get(context.Background(), "missing", "")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "c1", "2024/2025")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceList(t *testing.T) {
	svc, repo := newClassServiceForTest(map[string]models.Class{
		"c1": {ID: "c1", Cohort: "2024", ClassName: "一班"},
	})

	views, pagination, err := svc.List(context.Background(), models.ClassFilter{Cohort: "2024级", Page: 1, PageSize: 10}, "2024-2025")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "2024", repo.filter.Cohort)
	assert.Equal(t, 1, *views[0].GradeLevel)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 10, TotalCount: 1}, pagination)

	repo.err = errBoom
	_, _, err = svc.List(context.Background(), models.ClassFilter{}, "")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestClassServiceStanding(t *testing.T) {
	svc, _ := newClassServiceForTest(nil)

	standing, err := svc.Standing(context.Background(), "2025级", "2024-2025")
	require.NoError(t, err)
	assert.Equal(t, "2025", standing.Cohort)
	assert.Equal(t, cohort.StatusNotStarted, standing.Status)
	assert.Nil(t, standing.GradeLevel)
	assert.False(t, standing.Graduated)
	assert.Equal(t, "2027", standing.GraduationYear)

	standing, err = svc.Standing(context.Background(), "2022", "")
	require.NoError(t, err)
	assert.Equal(t, 3, *standing.GradeLevel)
	assert.Equal(t, "三年级", standing.GradeName)

	_, err = svc.Standing(context.Background(), "22", "")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
