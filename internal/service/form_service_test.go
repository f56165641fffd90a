package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/models"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
)

func newFormServiceForTest(t *testing.T) (*FormService, *formRepoStub) {
	t.Helper()
	repo := newFormRepoStub()
	return NewFormService(repo, &catalogStub{catalog: testCatalog(t)}, nil, nil), repo
}

func itemCodes(items []models.FormItem) []string {
	codes := make([]string, len(items))
	for i, item := range items {
		codes[i] = item.ItemCode
	}
	return codes
}

func TestFormServiceCreateSnapshotsWholeCatalog(t *testing.T) {
	svc, repo := newFormServiceForTest(t)

	detail, err := svc.Create(context.Background(), dto.CreateFormRequest{
		FormName:             "  Autumn test ",
		AcademicYear:         "2024-2025",
		TestDate:             "2024-10-12",
		ParticipatingCohorts: []string{"2023级", "2024"},
	})
	require.NoError(t, err)

	assert.Equal(t, "form-new", detail.ID)
	assert.Equal(t, "Autumn test", detail.FormName)
	assert.Equal(t, models.FormStatusDraft, detail.Status)
	assert.Equal(t, "test-1", detail.CatalogVersion)
	assert.Equal(t, []string{"2023", "2024"}, []string(detail.ParticipatingCohorts))
	require.NotNil(t, detail.TestDate)
	assert.Equal(t, "2024-10-12", detail.TestDate.Format("2006-01-02"))
	assert.Equal(t, []string{"height", "weight", "bmi", "sprint_50m", "situp_1min", "pullup"}, itemCodes(detail.Items))
	assert.Equal(t, "form-new", detail.Items[0].FormID)
	assert.NotNil(t, repo.created)
}

func TestFormServiceCreateSelectsItems(t *testing.T) {
	svc, _ := newFormServiceForTest(t)

	detail, err := svc.Create(context.Background(), dto.CreateFormRequest{
		FormName:             "BMI and sprint",
		AcademicYear:         "2024-2025",
		ParticipatingCohorts: []string{"2023"},
		ItemCodes:            []string{"sprint_50m", "bmi"},
		WeightOverrides:      map[string]int{"sprint_50m": 60},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"height", "weight", "bmi", "sprint_50m"}, itemCodes(detail.Items))
	assert.Equal(t, 60, detail.Items[3].Weight)
	assert.Equal(t, 20, detail.Items[2].Weight)
}

func TestFormServiceCreateValidation(t *testing.T) {
	base := dto.CreateFormRequest{FormName: "x", AcademicYear: "2024-2025", ParticipatingCohorts: []string{"2023"}}
	tests := []struct {
		name   string
		mutate func(req *dto.CreateFormRequest)
	}{
		{"missing name", func(req *dto.CreateFormRequest) { req.FormName = "" }},
		{"non consecutive year", func(req *dto.CreateFormRequest) { req.AcademicYear = "2024-2026" }},
		{"bad cohort", func(req *dto.CreateFormRequest) { req.ParticipatingCohorts = []string{"23"} }},
		{"no cohorts", func(req *dto.CreateFormRequest) { req.ParticipatingCohorts = nil }},
		{"unknown item", func(req *dto.CreateFormRequest) { req.ItemCodes = []string{"swim_100m"} }},
		{"override for unselected item", func(req *dto.CreateFormRequest) {
			req.ItemCodes = []string{"sprint_50m"}
			req.WeightOverrides = map[string]int{"pullup": 10}
		}},
		{"bad date", func(req *dto.CreateFormRequest) { req.TestDate = "12/10/2024" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newFormServiceForTest(t)
			req := base
			tc.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
			assert.Nil(t, repo.created)
		})
	}
}

func TestFormServiceGetAndStatus(t *testing.T) {
	svc, repo := newFormServiceForTest(t)
	repo.seedForm(t, "form-1", "2023")

	detail, err := svc.Get(context.Background(), "form-1")
	require.NoError(t, err)
	assert.Len(t, detail.ScoringItems(), 6)

	_, err = svc.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	detail, err = svc.SetStatus(context.Background(), "form-1", dto.UpdateFormStatusRequest{Status: models.FormStatusClosed})
	require.NoError(t, err)
	assert.Equal(t, models.FormStatusClosed, detail.Status)

	_, err = svc.SetStatus(context.Background(), "form-1", dto.UpdateFormStatusRequest{Status: "archived"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.SetStatus(context.Background(), "missing", dto.UpdateFormStatusRequest{Status: models.FormStatusPublished})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFormServiceList(t *testing.T) {
	svc, repo := newFormServiceForTest(t)
	repo.seedForm(t, "form-1", "2023")
	repo.total = 41

	forms, pagination, err := svc.List(context.Background(), models.FormFilter{Status: models.FormStatusPublished, Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, forms, 1)
	assert.Equal(t, &models.Pagination{Page: 2, PageSize: 20, TotalCount: 41}, pagination)
	assert.Equal(t, models.FormStatusPublished, repo.filter.Status)

	_, _, err = svc.List(context.Background(), models.FormFilter{Status: "archived"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
