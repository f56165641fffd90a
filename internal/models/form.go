package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/fitness-score-api/internal/scoring"
)

// FormStatus is the lifecycle state of a test form.
type FormStatus string

const (
	FormStatusDraft     FormStatus = "draft"
	FormStatusPublished FormStatus = "published"
	FormStatusClosed    FormStatus = "closed"
)

// Valid reports whether the status is known.
func (s FormStatus) Valid() bool {
	switch s {
	case FormStatusDraft, FormStatusPublished, FormStatusClosed:
		return true
	}
	return false
}

// TestForm is one round of physical testing for an academic year.
type TestForm struct {
	ID                   string         `db:"id" json:"id"`
	FormName             string         `db:"form_name" json:"form_name"`
	AcademicYear         string         `db:"academic_year" json:"academic_year"`
	TestDate             *time.Time     `db:"test_date" json:"test_date,omitempty"`
	Status               FormStatus     `db:"status" json:"status"`
	Description          *string        `db:"description" json:"description,omitempty"`
	ParticipatingCohorts pq.StringArray `db:"participating_cohorts" json:"participating_cohorts"`
	CatalogVersion       string         `db:"catalog_version" json:"catalog_version"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// TestFormDetail is a form together with its ordered items.
type TestFormDetail struct {
	TestForm
	Items []FormItem `json:"items"`
}

// ScoringItems converts the form's items for the scoring engine.
func (d TestFormDetail) ScoringItems() []scoring.Item {
	items := make([]scoring.Item, len(d.Items))
	for i, item := range d.Items {
		items[i] = item.ScoringItem()
	}
	return items
}

// FormFilter defines filter criteria for listing forms.
type FormFilter struct {
	AcademicYear string
	Status       FormStatus
	Page         int
	PageSize     int
}

// FormItem is a test item snapshot attached to a form.
type FormItem struct {
	ID              string                  `db:"id" json:"id"`
	FormID          string                  `db:"form_id" json:"form_id"`
	ItemCode        string                  `db:"item_code" json:"item_code"`
	ItemName        string                  `db:"item_name" json:"item_name"`
	ItemUnit        *string                 `db:"item_unit" json:"item_unit,omitempty"`
	GenderLimit     *string                 `db:"gender_limit" json:"gender_limit,omitempty"`
	Weight          int                     `db:"weight" json:"weight"`
	IsRequired      bool                    `db:"is_required" json:"is_required"`
	IsCalculated    bool                    `db:"is_calculated" json:"is_calculated"`
	HigherIsBetter  *bool                   `db:"higher_is_better" json:"higher_is_better,omitempty"`
	SortOrder       int                     `db:"sort_order" json:"sort_order"`
	ValidationRules *scoring.ValidationRule `db:"validation_rules" json:"validation_rules,omitempty"`
	ScoringStandard scoring.ScoringTable    `db:"scoring_standard" json:"scoring_standard"`
	CreatedAt       time.Time               `db:"created_at" json:"created_at"`
}

// ScoringItem converts the row into the engine's item type.
func (f FormItem) ScoringItem() scoring.Item {
	item := scoring.Item{
		Code:           f.ItemCode,
		Name:           f.ItemName,
		Weight:         f.Weight,
		Required:       f.IsRequired,
		Calculated:     f.IsCalculated,
		SortOrder:      f.SortOrder,
		HigherIsBetter: f.HigherIsBetter,
		Validation:     f.ValidationRules,
		Scoring:        f.ScoringStandard,
	}
	if f.ItemUnit != nil {
		item.Unit = *f.ItemUnit
	}
	if f.GenderLimit != nil {
		item.Gender = scoring.GenderRestriction(*f.GenderLimit)
	}
	return item
}

// NewFormItem snapshots a catalog item for a form.
func NewFormItem(formID string, item scoring.Item) FormItem {
	row := FormItem{
		FormID:          formID,
		ItemCode:        item.Code,
		ItemName:        item.Name,
		Weight:          item.Weight,
		IsRequired:      item.Required,
		IsCalculated:    item.Calculated,
		HigherIsBetter:  item.HigherIsBetter,
		SortOrder:       item.SortOrder,
		ValidationRules: item.Validation,
		ScoringStandard: item.Scoring,
	}
	if item.Unit != "" {
		unit := item.Unit
		row.ItemUnit = &unit
	}
	if item.Gender != scoring.RestrictNone {
		gender := string(item.Gender)
		row.GenderLimit = &gender
	}
	return row
}
