package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"

	"github.com/noah-isme/fitness-score-api/internal/cohort"
	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/models"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
)

type statisticsCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

type classMemberCounter interface {
	CountClassMembers(ctx context.Context, classID, academicYear string) (int, error)
}

type formRecordReader interface {
	ListByForm(ctx context.Context, formID string) ([]models.RecordDetail, error)
	ListByFormClass(ctx context.Context, formID, classID string) ([]models.RecordDetail, error)
}

// StatisticsService aggregates scored records per class and per form.
type StatisticsService struct {
	forms    formLoader
	classes  classReader
	students classMemberCounter
	records  formRecordReader
	calc     *cohort.Calculator
	cache    statisticsCache
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewStatisticsService constructs StatisticsService. A nil cache disables caching.
func NewStatisticsService(forms formLoader, classes classReader, students classMemberCounter, records formRecordReader, calc *cohort.Calculator, cache statisticsCache, ttl time.Duration, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{
		forms:    forms,
		classes:  classes,
		students: students,
		records:  records,
		calc:     calc,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

func statisticsPrefix(formID string) string {
	return fmt.Sprintf("stats:%s", formID)
}

// Class reports completion and score distribution of one class on a form.
func (s *StatisticsService) Class(ctx context.Context, formID, classID string) (*models.ClassStatistics, error) {
	key := fmt.Sprintf("%s:class:%s", statisticsPrefix(formID), classID)
	var cached models.ClassStatistics
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	form, err := s.forms.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	total, err := s.students.CountClassMembers(ctx, classID, form.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count class members")
	}
	records, err := s.records.ListByFormClass(ctx, formID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class records")
	}

	stats := &models.ClassStatistics{
		FormID:         formID,
		ClassID:        classID,
		ClassName:      class.ClassName,
		AcademicYear:   form.AcademicYear,
		TotalStudents:  total,
		CompletedCount: len(records),
		AverageScore:   averageTotal(records),
		Distribution:   distribution(records),
		ItemAverages:   itemAverages(form.Items, records),
		GeneratedAt:    s.now().UTC(),
	}
	if total > 0 {
		stats.CompletionRate = scoring.Round2(float64(len(records)) / float64(total) * 100)
	}
	var male, female []models.RecordDetail
	for _, rec := range records {
		switch scoring.Gender(rec.Gender) {
		case scoring.GenderMale:
			male = append(male, rec)
		case scoring.GenderFemale:
			female = append(female, rec)
		}
	}
	stats.Male = models.GenderStatistics{Count: len(male), AverageScore: averageTotal(male)}
	stats.Female = models.GenderStatistics{Count: len(female), AverageScore: averageTotal(female)}

	if s.cache != nil {
		s.cache.Set(ctx, key, stats, s.ttl)
	}
	return stats, nil
}

// Form reports a form's overall results, broken down by grade level and by item.
func (s *StatisticsService) Form(ctx context.Context, formID string) (*models.FormStatistics, error) {
	key := statisticsPrefix(formID) + ":form"
	var cached models.FormStatistics
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	form, err := s.forms.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListByForm(ctx, formID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form records")
	}

	byLevel := make(map[int][]models.RecordDetail)
	for _, rec := range records {
		level, ok := s.calc.GradeLevel(rec.Cohort, form.AcademicYear)
		if !ok {
			continue
		}
		byLevel[level] = append(byLevel[level], rec)
	}
	levels := make([]models.GradeLevelStatistics, 0, len(byLevel))
	for level, group := range byLevel {
		levels = append(levels, models.GradeLevelStatistics{
			GradeLevel:   level,
			GradeName:    s.calc.GradeName(level),
			RecordCount:  len(group),
			AverageScore: averageTotal(group),
			Distribution: distribution(group),
		})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].GradeLevel < levels[j].GradeLevel })

	stats := &models.FormStatistics{
		FormID:       form.ID,
		FormName:     form.FormName,
		AcademicYear: form.AcademicYear,
		TotalRecords: len(records),
		AverageScore: averageTotal(records),
		Distribution: distribution(records),
		GradeLevels:  levels,
		Items:        itemAverages(form.Items, records),
		GeneratedAt:  s.now().UTC(),
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, stats, s.ttl)
	}
	return stats, nil
}

// Chart renders a class's statistics as ECharts options.
func (s *StatisticsService) Chart(ctx context.Context, formID, classID string) (*dto.StatisticsChart, error) {
	stats, err := s.Class(ctx, formID, classID)
	if err != nil {
		return nil, err
	}

	dist := charts.NewBar()
	dist.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: stats.ClassName, Subtitle: "grade distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	dist.SetXAxis([]string{
		string(scoring.GradeExcellent),
		string(scoring.GradeGood),
		string(scoring.GradePass),
		string(scoring.GradeFail),
	}).AddSeries("students", []opts.BarData{
		{Value: stats.Distribution.Excellent},
		{Value: stats.Distribution.Good},
		{Value: stats.Distribution.Pass},
		{Value: stats.Distribution.Fail},
	})

	items := charts.NewBar()
	items.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: stats.ClassName, Subtitle: "average score per item"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	names := make([]string, len(stats.ItemAverages))
	values := make([]opts.BarData, len(stats.ItemAverages))
	for i, item := range stats.ItemAverages {
		names[i] = item.ItemName
		values[i] = opts.BarData{Value: item.AverageScore}
	}
	items.SetXAxis(names).AddSeries("average score", values)

	return &dto.StatisticsChart{
		FormID:       formID,
		ClassID:      classID,
		Distribution: dist.JSON(),
		ItemAverages: items.JSON(),
	}, nil
}

func averageTotal(records []models.RecordDetail) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range records {
		sum += rec.TotalScore
	}
	return scoring.Round2(sum / float64(len(records)))
}

// distribution buckets records by their total score, not their stored label,
// so records scored before a threshold change still land in the right band.
func distribution(records []models.RecordDetail) models.GradeDistribution {
	var out models.GradeDistribution
	for _, rec := range records {
		switch scoring.ClassifyGrade(rec.TotalScore) {
		case scoring.GradeExcellent:
			out.Excellent++
		case scoring.GradeGood:
			out.Good++
		case scoring.GradePass:
			out.Pass++
		default:
			out.Fail++
		}
	}
	return out
}

// itemAverages averages each form item over the records that scored it.
// Unscored items are omitted.
func itemAverages(items []models.FormItem, records []models.RecordDetail) []models.ItemStatistics {
	out := make([]models.ItemStatistics, 0, len(items))
	for _, item := range items {
		var sum float64
		var count int
		for _, rec := range records {
			if score := rec.Scores[item.ItemCode]; score != nil {
				sum += *score
				count++
			}
		}
		if count == 0 {
			continue
		}
		out = append(out, models.ItemStatistics{
			ItemCode:     item.ItemCode,
			ItemName:     item.ItemName,
			Count:        count,
			AverageScore: scoring.Round2(sum / float64(count)),
		})
	}
	return out
}
