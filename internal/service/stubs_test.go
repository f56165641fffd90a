package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitness-score-api/internal/cohort"
	"github.com/noah-isme/fitness-score-api/internal/models"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	"github.com/noah-isme/fitness-score-api/pkg/jobs"
)

const testCatalogYAML = `
version: "test-1"
items:
  - code: height
    name: Height
    unit: cm
    sort_order: 1
    weight: 0
    validation: {min: 50, max: 250, decimals: 1}
    scoring: {type: numeric}
  - code: weight
    name: Weight
    unit: kg
    sort_order: 2
    weight: 0
    validation: {min: 10, max: 300, decimals: 1}
    scoring: {type: numeric}
  - code: bmi
    name: BMI
    calculated: true
    sort_order: 3
    weight: 20
    scoring:
      type: calculated
      ranges:
        underweight: {max: 18.49, score: 80}
        normal: {min: 18.5, max: 23.99, score: 100}
        overweight: {min: 24, score: 60}
  - code: sprint_50m
    name: Sprint
    unit: s
    sort_order: 4
    weight: 40
    validation: {min: 5, max: 20, decimals: 1}
    scoring:
      type: numeric
      male:
        fast: {max: 7.5, score: 100}
        slow: {min: 7.6, score: 60}
      female:
        fast: {max: 8.5, score: 100}
        slow: {min: 8.6, score: 60}
  - code: situp_1min
    name: Sit-ups
    gender: female
    sort_order: 5
    weight: 40
    validation: {min: 0, max: 99, decimals: 0}
    scoring:
      type: numeric
      female:
        grade1:
          - {min: 40, score: 100}
          - {max: 39, score: 60}
        grade2:
          - {min: 45, score: 100}
          - {max: 44, score: 60}
  - code: pullup
    name: Pull-ups
    gender: male
    sort_order: 6
    weight: 40
    validation: {min: 0, max: 99, decimals: 0}
    scoring:
      type: numeric
      male:
        good: {min: 10, score: 100}
        low: {max: 9, score: 50}
`

func testCatalog(t *testing.T) *scoring.Catalog {
	t.Helper()
	c, err := scoring.LoadCatalog(strings.NewReader(testCatalogYAML))
	require.NoError(t, err)
	return c
}

// testCalculator is a three-year school observed in October 2024.
func testCalculator() *cohort.Calculator {
	now := time.Date(2024, time.October, 1, 9, 0, 0, 0, time.UTC)
	return cohort.New(3, cohort.WithClock(cohort.ClockFunc(func() time.Time { return now })))
}

type catalogStub struct {
	catalog   *scoring.Catalog
	issues    []scoring.Issue
	reloadErr error
	reloads   int
}

func (c *catalogStub) Catalog() *scoring.Catalog { return c.catalog }
func (c *catalogStub) Issues() []scoring.Issue   { return c.issues }
func (c *catalogStub) Reload() error {
	c.reloads++
	return c.reloadErr
}

type formRepoStub struct {
	forms   map[string]models.TestForm
	items   map[string][]models.FormItem
	created *models.TestForm
	filter  models.FormFilter
	total   int
	err     error
}

func newFormRepoStub() *formRepoStub {
	return &formRepoStub{forms: map[string]models.TestForm{}, items: map[string][]models.FormItem{}}
}

func (r *formRepoStub) Create(ctx context.Context, form *models.TestForm, items []models.FormItem) error {
	if r.err != nil {
		return r.err
	}
	form.ID = "form-new"
	for i := range items {
		items[i].FormID = form.ID
	}
	r.created = form
	r.forms[form.ID] = *form
	r.items[form.ID] = items
	return nil
}

func (r *formRepoStub) FindByID(ctx context.Context, id string) (*models.TestForm, error) {
	form, ok := r.forms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &form, nil
}

func (r *formRepoStub) ListItems(ctx context.Context, formID string) ([]models.FormItem, error) {
	return r.items[formID], nil
}

func (r *formRepoStub) List(ctx context.Context, filter models.FormFilter) ([]models.TestForm, int, error) {
	r.filter = filter
	if r.err != nil {
		return nil, 0, r.err
	}
	out := make([]models.TestForm, 0, len(r.forms))
	for _, form := range r.forms {
		out = append(out, form)
	}
	return out, r.total, nil
}

func (r *formRepoStub) UpdateStatus(ctx context.Context, id string, status models.FormStatus) (bool, error) {
	form, ok := r.forms[id]
	if !ok {
		return false, nil
	}
	form.Status = status
	r.forms[id] = form
	return true, nil
}

// seedForm stores a published form over the whole test catalog.
func (r *formRepoStub) seedForm(t *testing.T, id string, cohorts ...string) {
	t.Helper()
	r.forms[id] = models.TestForm{
		ID:                   id,
		FormName:             "Autumn test",
		AcademicYear:         "2024-2025",
		Status:               models.FormStatusPublished,
		ParticipatingCohorts: cohorts,
		CatalogVersion:       "test-1",
	}
	items := make([]models.FormItem, 0)
	for _, item := range testCatalog(t).Items {
		items = append(items, models.NewFormItem(id, item))
	}
	r.items[id] = items
}

type classRepoStub struct {
	classes map[string]models.Class
	filter  models.ClassFilter
	total   int
	err     error
}

func (r *classRepoStub) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	r.filter = filter
	if r.err != nil {
		return nil, 0, r.err
	}
	out := make([]models.Class, 0, len(r.classes))
	for _, class := range r.classes {
		out = append(out, class)
	}
	return out, r.total, nil
}

func (r *classRepoStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if r.err != nil {
		return nil, r.err
	}
	class, ok := r.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &class, nil
}

type studentRepoStub struct {
	students map[string]models.Student
	members  map[string][]models.ClassMember
	year     string
}

func (r *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (r *studentRepoStub) FindByIDs(ctx context.Context, ids []string) (map[string]models.Student, error) {
	out := make(map[string]models.Student)
	for _, id := range ids {
		if student, ok := r.students[id]; ok {
			out[id] = student
		}
	}
	return out, nil
}

func (r *studentRepoStub) ListClassMembers(ctx context.Context, classID, academicYear string) ([]models.ClassMember, error) {
	r.year = academicYear
	return r.members[classID], nil
}

func (r *studentRepoStub) CountClassMembers(ctx context.Context, classID, academicYear string) (int, error) {
	r.year = academicYear
	return len(r.members[classID]), nil
}

type recordRepoStub struct {
	saved     []models.Record
	details   []models.RecordDetail
	updated   []models.Record
	deleted   []string
	upsertErr error
}

func (r *recordRepoStub) Upsert(ctx context.Context, record *models.Record) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	record.ID = "rec-" + record.StudentID
	r.saved = append(r.saved, *record)
	return nil
}

func (r *recordRepoStub) FindByID(ctx context.Context, id string) (*models.Record, error) {
	for _, d := range r.details {
		if d.ID == id {
			rec := d.Record
			return &rec, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *recordRepoStub) ListByForm(ctx context.Context, formID string) ([]models.RecordDetail, error) {
	var out []models.RecordDetail
	for _, d := range r.details {
		if d.FormID == formID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *recordRepoStub) ListByFormClass(ctx context.Context, formID, classID string) ([]models.RecordDetail, error) {
	var out []models.RecordDetail
	for _, d := range r.details {
		if d.FormID == formID && d.ClassID == classID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *recordRepoStub) UpdateScores(ctx context.Context, records []models.Record) error {
	r.updated = append(r.updated, records...)
	return nil
}

func (r *recordRepoStub) Delete(ctx context.Context, id string) (bool, error) {
	for _, d := range r.details {
		if d.ID == id {
			r.deleted = append(r.deleted, id)
			return true, nil
		}
	}
	return false, nil
}

type cacheSpy struct {
	entries     map[string]interface{}
	invalidated []string
}

func newCacheSpy() *cacheSpy {
	return &cacheSpy{entries: map[string]interface{}{}}
}

func (c *cacheSpy) Get(ctx context.Context, key string, dest interface{}) bool {
	v, ok := c.entries[key]
	if !ok {
		return false
	}
	switch d := dest.(type) {
	case *models.ClassStatistics:
		*d = *v.(*models.ClassStatistics)
	case *models.FormStatistics:
		*d = *v.(*models.FormStatistics)
	default:
		return false
	}
	return true
}

func (c *cacheSpy) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	c.entries[key] = value
}

func (c *cacheSpy) Invalidate(ctx context.Context, prefix string) {
	c.invalidated = append(c.invalidated, prefix)
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	job.ID = "job-1"
	q.jobs = append(q.jobs, job)
	return job.ID, nil
}

var errBoom = errors.New("boom")

func floatPtr(v float64) *float64 { return &v }
