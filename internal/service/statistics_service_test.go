package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitness-score-api/internal/models"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
)

func statisticsRecords() []models.RecordDetail {
	detail := func(id, student, class, gender, cohortYear string, total float64, scores scoring.Scores) models.RecordDetail {
		return models.RecordDetail{
			Record: models.Record{ID: id, FormID: "form-1", StudentID: student, ClassID: class, TotalScore: total, Scores: scores},
			Gender: gender,
			Cohort: cohortYear,
		}
	}
	return []models.RecordDetail{
		detail("r1", "s1", "class-a", "male", "2023", 95, scoring.Scores{"sprint_50m": floatPtr(100), "pullup": floatPtr(90)}),
		detail("r2", "s2", "class-a", "female", "2023", 82.5, scoring.Scores{"sprint_50m": floatPtr(60), "situp_1min": nil}),
		detail("r3", "s3", "class-a", "female", "2023", 59.5, scoring.Scores{"sprint_50m": nil}),
		detail("r4", "s4", "class-b", "male", "2024", 60, scoring.Scores{"sprint_50m": floatPtr(85)}),
	}
}

func newStatisticsServiceForTest(t *testing.T, cache statisticsCache) (*StatisticsService, *studentRepoStub) {
	t.Helper()
	forms := newFormRepoStub()
	forms.seedForm(t, "form-1", "2023", "2024")
	members := make([]models.ClassMember, 4)
	students := &studentRepoStub{members: map[string][]models.ClassMember{"class-a": members}}
	classes := &classRepoStub{classes: map[string]models.Class{
		"class-a": {ID: "class-a", Cohort: "2023", ClassName: "二年级一班"},
	}}
	svc := NewStatisticsService(
		NewFormService(forms, &catalogStub{catalog: testCatalog(t)}, nil, nil),
		classes,
		students,
		&recordRepoStub{details: statisticsRecords()},
		testCalculator(),
		cache,
		time.Minute,
		nil,
	)
	svc.now = func() time.Time { return time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC) }
	return svc, students
}

func TestStatisticsServiceClass(t *testing.T) {
	svc, students := newStatisticsServiceForTest(t, nil)

	stats, err := svc.Class(context.Background(), "form-1", "class-a")
	require.NoError(t, err)

	assert.Equal(t, "2024-2025", students.year)
	assert.Equal(t, "二年级一班", stats.ClassName)
	assert.Equal(t, 4, stats.TotalStudents)
	assert.Equal(t, 3, stats.CompletedCount)
	assert.Equal(t, 75.0, stats.CompletionRate)
	assert.Equal(t, 79.0, stats.AverageScore)
	assert.Equal(t, models.GradeDistribution{Excellent: 1, Good: 1, Pass: 0, Fail: 1}, stats.Distribution)
	assert.Equal(t, models.GenderStatistics{Count: 1, AverageScore: 95}, stats.Male)
	assert.Equal(t, models.GenderStatistics{Count: 2, AverageScore: 71}, stats.Female)

	require.Len(t, stats.ItemAverages, 2)
	assert.Equal(t, models.ItemStatistics{ItemCode: "sprint_50m", ItemName: "Sprint", Count: 2, AverageScore: 80}, stats.ItemAverages[0])
	assert.Equal(t, "pullup", stats.ItemAverages[1].ItemCode)

	_, err = svc.Class(context.Background(), "form-1", "class-z")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStatisticsServiceClassWithoutMembers(t *testing.T) {
	svc, students := newStatisticsServiceForTest(t, nil)
	students.members = nil

	stats, err := svc.Class(context.Background(), "form-1", "class-a")
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.CompletionRate)
}

func TestStatisticsServiceForm(t *testing.T) {
	svc, _ := newStatisticsServiceForTest(t, nil)

	stats, err := svc.Form(context.Background(), "form-1")
	require.NoError(t, err)

	assert.Equal(t, "Autumn test", stats.FormName)
	assert.Equal(t, 4, stats.TotalRecords)
	assert.Equal(t, 74.25, stats.AverageScore)
	assert.Equal(t, models.GradeDistribution{Excellent: 1, Good: 1, Pass: 1, Fail: 1}, stats.Distribution)

	require.Len(t, stats.GradeLevels, 2)
	assert.Equal(t, 1, stats.GradeLevels[0].GradeLevel)
	assert.Equal(t, "一年级", stats.GradeLevels[0].GradeName)
	assert.Equal(t, 1, stats.GradeLevels[0].RecordCount)
	assert.Equal(t, 2, stats.GradeLevels[1].GradeLevel)
	assert.Equal(t, 3, stats.GradeLevels[1].RecordCount)

	require.Len(t, stats.Items, 2)
	assert.Equal(t, 3, stats.Items[0].Count)
	assert.Equal(t, 81.67, stats.Items[0].AverageScore)
}

func TestStatisticsServiceUsesCache(t *testing.T) {
	cache := newCacheSpy()
	svc, _ := newStatisticsServiceForTest(t, cache)

	first, err := svc.Class(context.Background(), "form-1", "class-a")
	require.NoError(t, err)
	require.Contains(t, cache.entries, "stats:form-1:class:class-a")

	cached := *first
	cached.AverageScore = 1
	cache.entries["stats:form-1:class:class-a"] = &cached
	second, err := svc.Class(context.Background(), "form-1", "class-a")
	require.NoError(t, err)
	assert.Equal(t, 1.0, second.AverageScore)

	_, err = svc.Form(context.Background(), "form-1")
	require.NoError(t, err)
	assert.Contains(t, cache.entries, "stats:form-1:form")
}

func TestStatisticsServiceChart(t *testing.T) {
	svc, _ := newStatisticsServiceForTest(t, nil)

	chart, err := svc.Chart(context.Background(), "form-1", "class-a")
	require.NoError(t, err)
	assert.Equal(t, "form-1", chart.FormID)
	assert.Contains(t, chart.Distribution, "series")
	assert.Contains(t, chart.Distribution, "xAxis")
	assert.Contains(t, chart.ItemAverages, "series")
}
