package models

import "time"

// Well-known setting keys.
const (
	SettingCurrentAcademicYear = "current_academic_year"
)

// Setting is a persisted key/value system setting.
type Setting struct {
	Key         string    `db:"key" json:"key"`
	Value       string    `db:"value" json:"value"`
	Description *string   `db:"description" json:"description,omitempty"`
	Category    string    `db:"category" json:"category"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
