package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fitness-score-api/internal/cohort"
	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/models"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
	"github.com/noah-isme/fitness-score-api/pkg/jobs"
)

// JobTypeRecalculateForm rescores every record of a form with its current items.
const JobTypeRecalculateForm = "recalculate_form"

type formLoader interface {
	Get(ctx context.Context, id string) (*models.TestFormDetail, error)
}

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Student, error)
	ListClassMembers(ctx context.Context, classID, academicYear string) ([]models.ClassMember, error)
	CountClassMembers(ctx context.Context, classID, academicYear string) (int, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type recordRepository interface {
	Upsert(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, id string) (*models.Record, error)
	ListByForm(ctx context.Context, formID string) ([]models.RecordDetail, error)
	ListByFormClass(ctx context.Context, formID, classID string) ([]models.RecordDetail, error)
	UpdateScores(ctx context.Context, records []models.Record) error
	Delete(ctx context.Context, id string) (bool, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, prefix string)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) (string, error)
}

// RecordServiceDeps groups the collaborators of RecordService.
type RecordServiceDeps struct {
	Forms      formLoader
	Students   studentRepository
	Classes    classReader
	Records    recordRepository
	Calculator *cohort.Calculator
	Cache      cacheInvalidator
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// RecordService scores and stores students' test results.
type RecordService struct {
	forms     formLoader
	students  studentRepository
	classes   classReader
	records   recordRepository
	calc      *cohort.Calculator
	cache     cacheInvalidator
	queue     jobEnqueuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRecordService constructs RecordService.
func NewRecordService(deps RecordServiceDeps) *RecordService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &RecordService{
		forms:     deps.Forms,
		students:  deps.Students,
		classes:   deps.Classes,
		records:   deps.Records,
		calc:      deps.Calculator,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		validator: deps.Validator,
		logger:    deps.Logger,
	}
}

// UseQueue attaches the queue recalculation jobs are sent to.
func (s *RecordService) UseQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Submit scores one student's measurements and upserts the record.
func (s *RecordService) Submit(ctx context.Context, req dto.SubmitRecordRequest) (*models.Record, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "form_id, student_id, class_id and test_data are required")
	}
	form, err := s.publishedForm(ctx, req.FormID)
	if err != nil {
		return nil, err
	}
	class, err := s.participatingClass(ctx, form, req.ClassID)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	gender := scoring.Gender(student.Gender)
	if !gender.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student gender %q is not scoreable", student.Gender))
	}

	record := s.scoreRecord(form, form.ScoringItems(), student.ID, class, gender, req.TestData)
	if err := s.records.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save record")
	}
	s.invalidateStatistics(ctx, form.ID)

	s.logger.Info("test record saved",
		zap.String("form_id", form.ID),
		zap.String("student_id", student.ID),
		zap.Float64("total_score", record.TotalScore),
		zap.String("grade", string(record.GradeLabel)),
	)
	return record, nil
}

// SubmitBatch scores many students on one form. Rows without a class or with
// an unknown student are skipped; a class that cannot be loaded only loses its
// grade level.
func (s *RecordService) SubmitBatch(ctx context.Context, req dto.BatchSubmitRequest) (*dto.BatchSubmitResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	form, err := s.publishedForm(ctx, req.FormID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Records))
	for _, row := range req.Records {
		ids = append(ids, row.StudentID)
	}
	students, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	items := form.ScoringItems()
	classes := make(map[string]*models.Class)
	result := &dto.BatchSubmitResult{Skipped: []dto.BatchSkip{}, Records: []models.Record{}}
	for i, row := range req.Records {
		skip := func(reason string) {
			result.Skipped = append(result.Skipped, dto.BatchSkip{Row: i, StudentID: row.StudentID, Reason: reason})
		}
		if row.ClassID == "" {
			skip("class_id is missing")
			continue
		}
		student, ok := students[row.StudentID]
		if !ok {
			skip("student not found")
			continue
		}
		class, seen := classes[row.ClassID]
		if !seen {
			class, err = s.classes.FindByID(ctx, row.ClassID)
			if err != nil {
				s.logger.Warn("batch row class not loaded", zap.String("class_id", row.ClassID), zap.Error(err))
				class = &models.Class{ID: row.ClassID}
			}
			classes[row.ClassID] = class
		}

		record := s.scoreRecord(form, items, student.ID, class, scoring.Gender(student.Gender), row.TestData)
		if err := s.records.Upsert(ctx, record); err != nil {
			s.logger.Warn("batch row not saved", zap.String("student_id", row.StudentID), zap.Error(err))
			skip("failed to save record")
			continue
		}
		result.Saved++
		result.Records = append(result.Records, *record)
	}
	if result.Saved > 0 {
		s.invalidateStatistics(ctx, form.ID)
	}

	s.logger.Info("batch test records saved",
		zap.String("form_id", form.ID),
		zap.Int("saved", result.Saved),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// Get returns one record.
func (s *RecordService) Get(ctx context.Context, id string) (*models.Record, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	return record, nil
}

// Delete removes one record.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.records.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete record")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "test record not found")
	}
	s.invalidateStatistics(ctx, record.FormID)
	return nil
}

// ClassRoster lists a participating class's members for the academic year,
// defaulting to the form's, each with their record on the form when present.
func (s *RecordService) ClassRoster(ctx context.Context, formID, classID, academicYear string) ([]models.RosterEntry, error) {
	form, err := s.publishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if _, err := s.participatingClass(ctx, form, classID); err != nil {
		return nil, err
	}
	if academicYear == "" {
		academicYear = form.AcademicYear
	} else if !cohort.IsValidAcademicYear(academicYear) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic_year must look like 2024-2025")
	}

	members, err := s.students.ListClassMembers(ctx, classID, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class members")
	}
	records, err := s.records.ListByFormClass(ctx, formID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class records")
	}
	byStudent := make(map[string]models.Record, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec.Record
	}

	roster := make([]models.RosterEntry, len(members))
	for i, member := range members {
		roster[i] = models.RosterEntry{ClassMember: member}
		if rec, ok := byStudent[member.ID]; ok {
			rec := rec
			roster[i].Record = &rec
		}
	}
	return roster, nil
}

// Recalculate queues a job that rescores every record of the form.
func (s *RecordService) Recalculate(ctx context.Context, formID string) (*dto.RecalculateResponse, error) {
	if _, err := s.forms.Get(ctx, formID); err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "recalculation queue is not running")
	}
	jobID, err := s.queue.Enqueue(jobs.Job{Type: JobTypeRecalculateForm, Payload: formID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue recalculation")
	}
	s.logger.Info("recalculation queued", zap.String("form_id", formID), zap.String("job_id", jobID))
	return &dto.RecalculateResponse{JobID: jobID, FormID: formID}, nil
}

// HandleRecalculation is the queue handler for JobTypeRecalculateForm.
func (s *RecordService) HandleRecalculation(ctx context.Context, job jobs.Job) error {
	formID, ok := job.Payload.(string)
	if job.Type != JobTypeRecalculateForm || !ok {
		return fmt.Errorf("unexpected job %s with payload %T", job.Type, job.Payload)
	}
	form, err := s.forms.Get(ctx, formID)
	if err != nil {
		return fmt.Errorf("load form %s: %w", formID, err)
	}
	details, err := s.records.ListByForm(ctx, formID)
	if err != nil {
		return fmt.Errorf("load records of form %s: %w", formID, err)
	}

	items := form.ScoringItems()
	updated := make([]models.Record, 0, len(details))
	for _, detail := range details {
		class := &models.Class{ID: detail.ClassID, Cohort: detail.Cohort}
		rescored := s.scoreRecord(form, items, detail.StudentID, class, scoring.Gender(detail.Gender), detail.TestData)
		rescored.ID = detail.ID
		updated = append(updated, *rescored)
	}
	if err := s.records.UpdateScores(ctx, updated); err != nil {
		return fmt.Errorf("store rescored records of form %s: %w", formID, err)
	}
	s.invalidateStatistics(ctx, formID)
	s.logger.Info("form recalculated", zap.String("form_id", formID), zap.String("job_id", job.ID), zap.Int("records", len(updated)))
	return nil
}

func (s *RecordService) publishedForm(ctx context.Context, formID string) (*models.TestFormDetail, error) {
	form, err := s.forms.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Status != models.FormStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrFormNotPublished, fmt.Sprintf("test form is %s, records can only be submitted to a published form", form.Status))
	}
	return form, nil
}

func (s *RecordService) participatingClass(ctx context.Context, form *models.TestFormDetail, classID string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if !cohort.CanParticipate(class.Cohort, form.ParticipatingCohorts) {
		return nil, appErrors.Clone(appErrors.ErrCohortNotParticipating, fmt.Sprintf("cohort %s is not tested by this form, which covers %s",
			cohort.DisplayCohort(class.Cohort), cohort.DisplayCohorts(form.ParticipatingCohorts)))
	}
	return class, nil
}

// scoreRecord evaluates measurements into an unsaved record. A failed BMI
// derivation is logged and the record is scored without BMI.
func (s *RecordService) scoreRecord(form *models.TestFormDetail, items []scoring.Item, studentID string, class *models.Class, gender scoring.Gender, values scoring.Measurements) *models.Record {
	var level *int
	if l, ok := s.calc.GradeLevel(class.Cohort, form.AcademicYear); ok {
		level = &l
	}
	derived, result, err := evaluate(s.metrics, values, items, gender, level)
	if err != nil {
		s.logger.Warn("bmi not derived", zap.String("form_id", form.ID), zap.String("student_id", studentID), zap.Error(err))
	}
	return &models.Record{
		FormID:     form.ID,
		StudentID:  studentID,
		ClassID:    class.ID,
		TestData:   derived,
		Scores:     result.Scores,
		TotalScore: result.TotalScore,
		GradeLabel: result.Grade,
	}
}

func (s *RecordService) invalidateStatistics(ctx context.Context, formID string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, statisticsPrefix(formID))
}
