package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fitness-score-api/internal/models"
)

const (
	formColumns     = "id, form_name, academic_year, test_date, status, description, participating_cohorts, catalog_version, created_at, updated_at"
	formItemColumns = "id, form_id, item_code, item_name, item_unit, gender_limit, weight, is_required, is_calculated, higher_is_better, sort_order, validation_rules, scoring_standard, created_at"
)

// FormRepository persists test forms and their item snapshots.
type FormRepository struct {
	db *sqlx.DB
}

// NewFormRepository constructs a form repository.
func NewFormRepository(db *sqlx.DB) *FormRepository {
	return &FormRepository{db: db}
}

// Create inserts the form and its items in one transaction.
func (r *FormRepository) Create(ctx context.Context, form *models.TestForm, items []models.FormItem) error {
	if form.ID == "" {
		form.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now
	if form.Status == "" {
		form.Status = models.FormStatusDraft
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin form tx: %w", err)
	}

	const formQuery = `INSERT INTO physical_test_forms (` + formColumns + `)
VALUES (:id, :form_name, :academic_year, :test_date, :status, :description, :participating_cohorts, :catalog_version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, formQuery, form); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("create form: %w", err)
	}

	const itemQuery = `INSERT INTO form_test_items (` + formItemColumns + `)
VALUES (:id, :form_id, :item_code, :item_name, :item_unit, :gender_limit, :weight, :is_required, :is_calculated, :higher_is_better, :sort_order, :validation_rules, :scoring_standard, :created_at)`
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].FormID = form.ID
		items[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, itemQuery, items[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("create form item %s: %w", items[i].ItemCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit form tx: %w", err)
	}
	return nil
}

// FindByID returns a form without its items.
func (r *FormRepository) FindByID(ctx context.Context, id string) (*models.TestForm, error) {
	query := "SELECT " + formColumns + " FROM physical_test_forms WHERE id = $1"
	var form models.TestForm
	if err := r.db.GetContext(ctx, &form, query, id); err != nil {
		return nil, err
	}
	return &form, nil
}

// ListItems returns a form's items in display order.
func (r *FormRepository) ListItems(ctx context.Context, formID string) ([]models.FormItem, error) {
	query := "SELECT " + formItemColumns + " FROM form_test_items WHERE form_id = $1 ORDER BY sort_order ASC, item_code ASC"
	var items []models.FormItem
	if err := r.db.SelectContext(ctx, &items, query, formID); err != nil {
		return nil, fmt.Errorf("list form items: %w", err)
	}
	return items, nil
}

// List returns forms matching the filter, newest first.
func (r *FormRepository) List(ctx context.Context, filter models.FormFilter) ([]models.TestForm, int, error) {
	base := "FROM physical_test_forms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", formColumns, base, size, (page-1)*size)
	var forms []models.TestForm
	if err := r.db.SelectContext(ctx, &forms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list forms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count forms: %w", err)
	}
	return forms, total, nil
}

// UpdateStatus sets the lifecycle status of a form. It reports false when no row matched.
func (r *FormRepository) UpdateStatus(ctx context.Context, id string, status models.FormStatus) (bool, error) {
	const query = `UPDATE physical_test_forms SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("update form status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update form status: %w", err)
	}
	return affected > 0, nil
}
