package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fitness-score-api/internal/dto"
	"github.com/noah-isme/fitness-score-api/internal/models"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
	"github.com/noah-isme/fitness-score-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportService renders a class's results on a form as a downloadable sheet.
type ExportService struct {
	forms   formLoader
	classes classReader
	records formRecordReader
	csv     datasetRenderer
	pdf     datasetRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the default CSV and PDF exporters.
func NewExportService(forms formLoader, classes classReader, records formRecordReader, csv, pdf datasetRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &ExportService{
		forms:   forms,
		classes: classes,
		records: records,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		now:     time.Now,
	}
}

// ClassResults renders every record of the class on the form, one row per student.
func (s *ExportService) ClassResults(ctx context.Context, formID, classID, format string) (*dto.ExportFile, error) {
	var renderer datasetRenderer
	contentType := ""
	switch format {
	case ExportFormatCSV:
		renderer, contentType = s.csv, "text/csv; charset=utf-8"
	case ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
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
	records, err := s.records.ListByFormClass(ctx, formID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class records")
	}

	data := classResultsDataset(form, class, records)
	payload, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("%s_%s_%s.%s",
		sanitizeFilename(form.FormName),
		sanitizeFilename(class.ClassName),
		s.now().UTC().Format("20060102_150405"),
		format,
	)
	s.logger.Info("class results exported",
		zap.String("form_id", formID),
		zap.String("class_id", classID),
		zap.String("format", format),
		zap.Int("rows", len(data.Rows)),
	)
	return &dto.ExportFile{Filename: filename, ContentType: contentType, Data: payload}, nil
}

func classResultsDataset(form *models.TestFormDetail, class *models.Class, records []models.RecordDetail) export.Dataset {
	columns := []export.Column{
		{Key: "student_id_school", Title: "Student No."},
		{Key: "name", Title: "Name"},
		{Key: "gender", Title: "Gender"},
	}
	for _, item := range form.Items {
		title := item.ItemName
		if item.ItemUnit != nil && *item.ItemUnit != "" {
			title = fmt.Sprintf("%s (%s)", item.ItemName, *item.ItemUnit)
		}
		columns = append(columns,
			export.Column{Key: item.ItemCode, Title: title},
			export.Column{Key: item.ItemCode + "_score", Title: item.ItemName + " score"},
		)
	}
	columns = append(columns,
		export.Column{Key: "total_score", Title: "Total"},
		export.Column{Key: "grade", Title: "Grade"},
	)

	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		row := map[string]string{
			"student_id_school": rec.StudentIDSchool,
			"name":              rec.StudentName,
			"gender":            rec.Gender,
			"total_score":       formatScore(rec.TotalScore),
			"grade":             string(rec.GradeLabel),
		}
		for _, item := range form.Items {
			if v, ok := rec.TestData[item.ItemCode]; ok && v.IsSet() {
				row[item.ItemCode] = v.String()
			}
			if score := rec.Scores[item.ItemCode]; score != nil {
				row[item.ItemCode+"_score"] = formatScore(*score)
			}
		}
		rows = append(rows, row)
	}

	return export.Dataset{
		Title:   fmt.Sprintf("%s %s %s", form.FormName, class.ClassName, form.AcademicYear),
		Columns: columns,
		Rows:    rows,
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(scoring.Round2(v), 'f', -1, 64)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
