package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fitness-score-api/internal/models"
)

// SettingRepository persists system settings.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository constructs the repository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get fetches a single setting by key.
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	const query = `SELECT key, value, description, category, created_at, updated_at FROM settings WHERE key = $1`
	var setting models.Setting
	if err := r.db.GetContext(ctx, &setting, query, key); err != nil {
		return nil, err
	}
	return &setting, nil
}

// Upsert inserts or updates a setting.
func (r *SettingRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	const query = `INSERT INTO settings (key, value, description, category, created_at, updated_at)
VALUES (:key, :value, :description, :category, :created_at, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, description = EXCLUDED.description,
              category = EXCLUDED.category, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	if setting.CreatedAt.IsZero() {
		setting.CreatedAt = now
	}
	if setting.Category == "" {
		setting.Category = "system"
	}
	setting.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}
