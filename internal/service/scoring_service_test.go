package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
)

func intPtr(v int) *int { return &v }

func TestScoringServicePreview(t *testing.T) {
	svc := NewScoringService(&catalogStub{catalog: testCatalog(t)}, testCalculator(), nil, nil, nil)

	resp, err := svc.Preview(context.Background(), dto.PreviewRequest{
		Gender:     scoring.GenderFemale,
		GradeLevel: intPtr(1),
		TestData:   femaleMeasurements(),
	})
	require.NoError(t, err)

	assert.Equal(t, "test-1", resp.CatalogVersion)
	assert.Equal(t, 1, *resp.GradeLevel)
	assert.Equal(t, 100.0, resp.Result.TotalScore, "first-year table passes 42 sit-ups")
	assert.Equal(t, scoring.GradeExcellent, resp.Result.Grade)
	assert.Contains(t, resp.Measurements, "bmi")
	assert.Empty(t, resp.Warnings)
}

func TestScoringServicePreviewDerivesLevelFromCohort(t *testing.T) {
	svc := NewScoringService(&catalogStub{catalog: testCatalog(t)}, testCalculator(), nil, nil, nil)

	resp, err := svc.Preview(context.Background(), dto.PreviewRequest{
		Gender:   scoring.GenderFemale,
		Cohort:   "2023级",
		TestData: femaleMeasurements(),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.GradeLevel)
	assert.Equal(t, 2, *resp.GradeLevel, "2023 cohort is in its second year during 2024-2025")
	assert.Equal(t, 84.0, resp.Result.TotalScore)

	resp, err = svc.Preview(context.Background(), dto.PreviewRequest{
		Gender:       scoring.GenderFemale,
		Cohort:       "2020",
		AcademicYear: "2024-2025",
		TestData:     femaleMeasurements(),
	})
	require.NoError(t, err)
	assert.Nil(t, resp.GradeLevel)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "GRADUATED")
	assert.Nil(t, resp.Result.Scores["situp_1min"])
}

func TestScoringServicePreviewWarnings(t *testing.T) {
	svc := NewScoringService(&catalogStub{catalog: testCatalog(t)}, testCalculator(), nil, nil, nil)
	values := femaleMeasurements()
	values["height"] = scoring.Number(0)
	values["sprint_50m"] = scoring.Number(8.25)

	resp, err := svc.Preview(context.Background(), dto.PreviewRequest{
		Gender:     scoring.GenderFemale,
		GradeLevel: intPtr(2),
		TestData:   values,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Warnings, 3, fmt.Sprint(resp.Warnings))
	assert.NotContains(t, resp.Measurements, "bmi")
}

func TestScoringServicePreviewValidation(t *testing.T) {
	svc := NewScoringService(&catalogStub{catalog: testCatalog(t)}, testCalculator(), nil, nil, nil)

	_, err := svc.Preview(context.Background(), dto.PreviewRequest{Gender: "other", TestData: femaleMeasurements()})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Preview(context.Background(), dto.PreviewRequest{Gender: scoring.GenderMale, Cohort: "20x3", TestData: femaleMeasurements()})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScoringServiceCatalog(t *testing.T) {
	store := &catalogStub{catalog: testCatalog(t)}
	svc := NewScoringService(store, testCalculator(), nil, nil, nil)

	report := svc.ValidateCatalog()
	assert.True(t, report.Valid)
	assert.NotNil(t, report.Issues)
	assert.Equal(t, "test-1", svc.Catalog().Version)

	store.issues = []scoring.Issue{{Item: "bmi", Kind: scoring.IssueOverlap, Message: "ranges overlap"}}
	report, err := svc.ReloadCatalog()
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, 1, store.reloads)

	store.reloadErr = fmt.Errorf("%w: 1 issue", scoring.ErrCatalogRejected)
	_, err = svc.ReloadCatalog()
	assert.Equal(t, appErrors.ErrInvalidCatalog.Code, appErrors.FromError(err).Code)
}
