package scoring

// Gender of a test-taker.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// GenderRestriction limits an item to one gender. The empty value means none.
type GenderRestriction string

const (
	RestrictNone   GenderRestriction = ""
	RestrictMale   GenderRestriction = "male"
	RestrictFemale GenderRestriction = "female"
)

// ValueType tells the engine how to read measurements and bounds.
type ValueType string

const (
	TypeNumeric    ValueType = "numeric"
	TypeTime       ValueType = "time"
	TypeCalculated ValueType = "calculated"
)

// Item codes the engine derives or consumes itself.
const (
	CodeHeight = "height"
	CodeWeight = "weight"
	CodeBMI    = "bmi"
)

// Item describes one measurable quantity and how it is scored.
type Item struct {
	Code           string            `json:"item_code" yaml:"code"`
	Name           string            `json:"item_name" yaml:"name"`
	Unit           string            `json:"item_unit,omitempty" yaml:"unit"`
	Gender         GenderRestriction `json:"gender_limit,omitempty" yaml:"gender"`
	Weight         int               `json:"weight" yaml:"weight"`
	Required       bool              `json:"is_required" yaml:"required"`
	Calculated     bool              `json:"is_calculated" yaml:"calculated"`
	SortOrder      int               `json:"sort_order" yaml:"sort_order"`
	HigherIsBetter *bool             `json:"higher_is_better,omitempty" yaml:"higher_is_better"`
	Validation     *ValidationRule   `json:"validation_rules,omitempty" yaml:"validation"`
	Scoring        ScoringTable      `json:"scoring_standard" yaml:"scoring"`
}

// Type returns the value type declared by the item's scoring table.
func (i Item) Type() ValueType {
	if i.Scoring.Type == "" {
		return TypeNumeric
	}
	return i.Scoring.Type
}

// AppliesTo reports whether the item is measured for the gender.
func (i Item) AppliesTo(g Gender) bool {
	return i.Gender == RestrictNone || string(i.Gender) == string(g)
}

// Rule returns the declared validation rule or one inferred from the unit.
func (i Item) Rule() ValidationRule {
	if i.Validation != nil {
		rule := *i.Validation
		rule.Required = rule.Required || i.Required
		return rule
	}
	rule := InferValidationRule(i.Unit)
	rule.Required = i.Required
	return rule
}

// ApplicableItems keeps the items measured for the gender, in order.
func ApplicableItems(items []Item, g Gender) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.AppliesTo(g) {
			out = append(out, item)
		}
	}
	return out
}
