package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fitness-score-api/internal/models"
)

const (
	recordColumns       = "id, form_id, student_id, class_id, test_data, scores, total_score, grade_label, submitted_at, created_at, updated_at"
	recordDetailColumns = `r.id, r.form_id, r.student_id, r.class_id, r.test_data, r.scores, r.total_score, r.grade_label, r.submitted_at, r.created_at, r.updated_at,
       s.name AS student_name, s.student_id_school, s.gender, c.class_name, c.cohort`
	recordDetailJoins = "FROM physical_test_records r JOIN students s ON s.id = r.student_id JOIN classes c ON c.id = r.class_id"
)

// RecordRepository persists scored test records.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs a record repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Upsert writes the record keyed by (form_id, student_id). On conflict the
// existing row keeps its ID and creation time, which are copied back.
func (r *RecordRepository) Upsert(ctx context.Context, record *models.Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.SubmittedAt = now
	record.CreatedAt = now
	record.UpdatedAt = now

	const query = `INSERT INTO physical_test_records (` + recordColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (form_id, student_id)
DO UPDATE SET class_id = EXCLUDED.class_id, test_data = EXCLUDED.test_data, scores = EXCLUDED.scores,
              total_score = EXCLUDED.total_score, grade_label = EXCLUDED.grade_label,
              submitted_at = EXCLUDED.submitted_at, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query,
		record.ID, record.FormID, record.StudentID, record.ClassID,
		record.TestData, record.Scores, record.TotalScore, record.GradeLabel,
		record.SubmittedAt, record.CreatedAt, record.UpdatedAt,
	)
	if err := row.Scan(&record.ID, &record.CreatedAt); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// FindByID returns a record by ID.
func (r *RecordRepository) FindByID(ctx context.Context, id string) (*models.Record, error) {
	query := "SELECT " + recordColumns + " FROM physical_test_records WHERE id = $1"
	var record models.Record
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByForm returns every record of a form joined with student and class.
func (r *RecordRepository) ListByForm(ctx context.Context, formID string) ([]models.RecordDetail, error) {
	query := "SELECT " + recordDetailColumns + " " + recordDetailJoins + " WHERE r.form_id = $1 ORDER BY c.cohort ASC, c.class_name ASC, s.student_id_school ASC"
	var records []models.RecordDetail
	if err := r.db.SelectContext(ctx, &records, query, formID); err != nil {
		return nil, fmt.Errorf("list form records: %w", err)
	}
	return records, nil
}

// ListByFormClass returns the records of one class on a form.
func (r *RecordRepository) ListByFormClass(ctx context.Context, formID, classID string) ([]models.RecordDetail, error) {
	query := "SELECT " + recordDetailColumns + " " + recordDetailJoins + " WHERE r.form_id = $1 AND r.class_id = $2 ORDER BY s.student_id_school ASC"
	var records []models.RecordDetail
	if err := r.db.SelectContext(ctx, &records, query, formID, classID); err != nil {
		return nil, fmt.Errorf("list class records: %w", err)
	}
	return records, nil
}

// UpdateScores rewrites the scoring columns of many records in one transaction.
func (r *RecordRepository) UpdateScores(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rescore tx: %w", err)
	}
	const query = `UPDATE physical_test_records SET test_data = :test_data, scores = :scores, total_score = :total_score,
grade_label = :grade_label, updated_at = :updated_at WHERE id = :id`
	now := time.Now().UTC()
	for i := range records {
		records[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("rescore record %s: %w", records[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rescore tx: %w", err)
	}
	return nil
}

// Delete removes a record. It reports false when no row matched.
func (r *RecordRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM physical_test_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return affected > 0, nil
}
