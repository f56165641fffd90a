package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/models"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
	"github.com/noah-isme/fitness-score-api/pkg/jobs"
)

type recordFixture struct {
	svc      *RecordService
	forms    *formRepoStub
	classes  *classRepoStub
	students *studentRepoStub
	records  *recordRepoStub
	cache    *cacheSpy
	queue    *queueStub
}

func newRecordFixture(t *testing.T) *recordFixture {
	t.Helper()
	f := &recordFixture{
		forms: newFormRepoStub(),
		classes: &classRepoStub{classes: map[string]models.Class{
			"class-a": {ID: "class-a", Cohort: "2023", ClassName: "Grade 2 Class 1"},
			"class-c": {ID: "class-c", Cohort: "2021", ClassName: "Alumni Class 3"},
		}},
		students: &studentRepoStub{students: map[string]models.Student{
			"stu-f": {ID: "stu-f", Name: "Lin", StudentIDSchool: "S001", Gender: "female"},
			"stu-m": {ID: "stu-m", Name: "Wang", StudentIDSchool: "S002", Gender: "male"},
		}},
		records: &recordRepoStub{},
		cache:   newCacheSpy(),
		queue:   &queueStub{},
	}
	f.forms.seedForm(t, "form-1", "2023", "2024")
	forms := NewFormService(f.forms, &catalogStub{catalog: testCatalog(t)}, nil, nil)
	f.svc = NewRecordService(RecordServiceDeps{
		Forms:      forms,
		Students:   f.students,
		Classes:    f.classes,
		Records:    f.records,
		Calculator: testCalculator(),
		Cache:      f.cache,
	})
	f.svc.UseQueue(f.queue)
	return f
}

func femaleMeasurements() scoring.Measurements {
	return scoring.Measurements{
		"height":     scoring.Number(160),
		"weight":     scoring.Number(50),
		"sprint_50m": scoring.Number(8.0),
		"situp_1min": scoring.Number(42),
	}
}

func TestRecordServiceSubmitScoresAndSaves(t *testing.T) {
	f := newRecordFixture(t)

	record, err := f.svc.Submit(context.Background(), dto.SubmitRecordRequest{
		FormID: "form-1", StudentID: "stu-f", ClassID: "class-a", TestData: femaleMeasurements(),
	})
	require.NoError(t, err)

	assert.Equal(t, "rec-stu-f", record.ID)
	assert.Equal(t, 84.0, record.TotalScore)
	assert.Equal(t, scoring.GradeGood, record.GradeLabel)
	bmi, err := record.TestData["bmi"].Float()
	require.NoError(t, err)
	assert.InDelta(t, 19.53, bmi, 1e-9)
	assert.Equal(t, 100.0, *record.Scores["bmi"])
	assert.Equal(t, 60.0, *record.Scores["situp_1min"], "second-year table applies")
	_, hasPullup := record.Scores["pullup"]
	assert.False(t, hasPullup)
	assert.Equal(t, []string{"stats:form-1"}, f.cache.invalidated)
}

func TestRecordServiceSubmitKeepsScoringWhenBMIFails(t *testing.T) {
	f := newRecordFixture(t)
	values := femaleMeasurements()
	values["height"] = scoring.Number(0)

	record, err := f.svc.Submit(context.Background(), dto.SubmitRecordRequest{
		FormID: "form-1", StudentID: "stu-f", ClassID: "class-a", TestData: values,
	})
	require.NoError(t, err)
	assert.Nil(t, record.Scores["bmi"])
	assert.Equal(t, 80.0, record.TotalScore)
	assert.Len(t, f.records.saved, 1)
}

func TestRecordServiceSubmitRejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *recordFixture)
		req     dto.SubmitRecordRequest
		code    string
	}{
		{
			name: "missing fields",
			req:  dto.SubmitRecordRequest{FormID: "form-1"},
			code: appErrors.ErrValidation.Code,
		},
		{
			name: "unknown form",
			req:  dto.SubmitRecordRequest{FormID: "nope", StudentID: "stu-f", ClassID: "class-a", TestData: femaleMeasurements()},
			code: appErrors.ErrNotFound.Code,
		},
		{
			name: "draft form",
			prepare: func(f *recordFixture) {
				form := f.forms.forms["form-1"]
				form.Status = models.FormStatusDraft
				f.forms.forms["form-1"] = form
			},
			req:  dto.SubmitRecordRequest{FormID: "form-1", StudentID: "stu-f", ClassID: "class-a", TestData: femaleMeasurements()},
			code: appErrors.ErrFormNotPublished.Code,
		},
		{
			name: "cohort not on the form",
			req:  dto.SubmitRecordRequest{FormID: "form-1", StudentID: "stu-f", ClassID: "class-c", TestData: femaleMeasurements()},
			code: appErrors.ErrCohortNotParticipating.Code,
		},
		{
			name: "unknown student",
			req:  dto.SubmitRecordRequest{FormID: "form-1", StudentID: "ghost", ClassID: "class-a", TestData: femaleMeasurements()},
			code: appErrors.ErrNotFound.Code,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newRecordFixture(t)
			if tc.prepare != nil {
				tc.prepare(f)
			}
			_, err := f.svc.Submit(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
			assert.Empty(t, f.records.saved)
		})
	}
}

func TestRecordServiceSubmitBatch(t *testing.T) {
	f := newRecordFixture(t)

	result, err := f.svc.SubmitBatch(context.Background(), dto.BatchSubmitRequest{
		FormID: "form-1",
		Records: []dto.BatchRecordRow{
			{StudentID: "stu-m", ClassID: "class-a", TestData: scoring.Measurements{"sprint_50m": scoring.Number(7.0), "pullup": scoring.Number(12)}},
			{StudentID: "stu-f", TestData: femaleMeasurements()},
			{StudentID: "ghost", ClassID: "class-a", TestData: femaleMeasurements()},
			{StudentID: "stu-f", ClassID: "class-gone", TestData: femaleMeasurements()},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Saved)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, dto.BatchSkip{Row: 1, StudentID: "stu-f", Reason: "class_id is missing"}, result.Skipped[0])
	assert.Equal(t, dto.BatchSkip{Row: 2, StudentID: "ghost", Reason: "student not found"}, result.Skipped[1])

	require.Len(t, result.Records, 2)
	assert.Equal(t, 100.0, result.Records[0].TotalScore)
	assert.Equal(t, scoring.GradeExcellent, result.Records[0].GradeLabel)
	assert.Nil(t, result.Records[1].Scores["situp_1min"], "no grade level without a class")
	assert.Equal(t, "class-gone", result.Records[1].ClassID)
	assert.Equal(t, []string{"stats:form-1"}, f.cache.invalidated)
}

func TestRecordServiceSubmitBatchRequiresPublishedForm(t *testing.T) {
	f := newRecordFixture(t)
	form := f.forms.forms["form-1"]
	form.Status = models.FormStatusClosed
	f.forms.forms["form-1"] = form

	_, err := f.svc.SubmitBatch(context.Background(), dto.BatchSubmitRequest{
		FormID:  "form-1",
		Records: []dto.BatchRecordRow{{StudentID: "stu-m", ClassID: "class-a"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFormNotPublished.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceClassRoster(t *testing.T) {
	f := newRecordFixture(t)
	f.students.members = map[string][]models.ClassMember{
		"class-a": {
			{Student: f.students.students["stu-f"], ClassID: "class-a", AcademicYear: "2024-2025"},
			{Student: f.students.students["stu-m"], ClassID: "class-a", AcademicYear: "2024-2025"},
		},
	}
	f.records.details = []models.RecordDetail{
		{Record: models.Record{ID: "rec-1", FormID: "form-1", StudentID: "stu-m", ClassID: "class-a", TotalScore: 91}},
	}

	roster, err := f.svc.ClassRoster(context.Background(), "form-1", "class-a", "")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "2024-2025", f.students.year)
	assert.Nil(t, roster[0].Record)
	require.NotNil(t, roster[1].Record)
	assert.Equal(t, "rec-1", roster[1].Record.ID)

	_, err = f.svc.ClassRoster(context.Background(), "form-1", "class-c", "")
	assert.Equal(t, appErrors.ErrCohortNotParticipating.Code, appErrors.FromError(err).Code)

	_, err = f.svc.ClassRoster(context.Background(), "form-1", "class-a", "2024")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceDelete(t *testing.T) {
	f := newRecordFixture(t)
	f.records.details = []models.RecordDetail{
		{Record: models.Record{ID: "rec-1", FormID: "form-1", StudentID: "stu-m", ClassID: "class-a"}},
	}

	require.NoError(t, f.svc.Delete(context.Background(), "rec-1"))
	assert.Equal(t, []string{"rec-1"}, f.records.deleted)
	assert.Equal(t, []string{"stats:form-1"}, f.cache.invalidated)

	err := f.svc.Delete(context.Background(), "rec-2")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceRecalculate(t *testing.T) {
	f := newRecordFixture(t)

	resp, err := f.svc.Recalculate(context.Background(), "form-1")
	require.NoError(t, err)
	assert.Equal(t, &dto.RecalculateResponse{JobID: "job-1", FormID: "form-1"}, resp)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, JobTypeRecalculateForm, f.queue.jobs[0].Type)
	assert.Equal(t, "form-1", f.queue.jobs[0].Payload)

	_, err = f.svc.Recalculate(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	f.queue.err = errBoom
	_, err = f.svc.Recalculate(context.Background(), "form-1")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestRecordServiceHandleRecalculation(t *testing.T) {
	f := newRecordFixture(t)
	f.records.details = []models.RecordDetail{
		{
			Record: models.Record{
				ID: "rec-1", FormID: "form-1", StudentID: "stu-f", ClassID: "class-a",
				TestData: femaleMeasurements(), TotalScore: 12, GradeLabel: scoring.GradeFail,
			},
			Gender: "female",
			Cohort: "2023",
		},
	}

	err := f.svc.HandleRecalculation(context.Background(), jobs.Job{ID: "job-9", Type: JobTypeRecalculateForm, Payload: "form-1"})
	require.NoError(t, err)

	require.Len(t, f.records.updated, 1)
	updated := f.records.updated[0]
	assert.Equal(t, "rec-1", updated.ID)
	assert.Equal(t, 84.0, updated.TotalScore)
	assert.Equal(t, scoring.GradeGood, updated.GradeLabel)
	assert.Equal(t, []string{"stats:form-1"}, f.cache.invalidated)

	err = f.svc.HandleRecalculation(context.Background(), jobs.Job{Type: "other", Payload: "form-1"})
	assert.Error(t, err)
}
