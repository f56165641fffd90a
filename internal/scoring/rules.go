package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidMeasurement is returned when a value breaks its item's validation rule.
var ErrInvalidMeasurement = errors.New("scoring: invalid measurement")

// ValidationRule bounds what may be entered for an item.
type ValidationRule struct {
	Min      *float64 `json:"min,omitempty" yaml:"min"`
	Max      *float64 `json:"max,omitempty" yaml:"max"`
	Decimals *int     `json:"decimals,omitempty" yaml:"decimals"`
	Required bool     `json:"required,omitempty" yaml:"required"`
}

// Resolution is the smallest step between two enterable values.
func (r ValidationRule) Resolution() float64 {
	if r.Decimals == nil || *r.Decimals < 0 {
		return 0.01
	}
	return math.Pow10(-*r.Decimals)
}

func ruleOf(min, max float64, decimals int) ValidationRule {
	return ValidationRule{Min: &min, Max: &max, Decimals: &decimals}
}

// InferValidationRule picks defaults from the item's unit.
func InferValidationRule(unit string) ValidationRule {
	switch unit {
	case "秒", "s":
		return ruleOf(0, 999.99, 2)
	case "分钟", "min":
		return ruleOf(0, 99.99, 2)
	case "厘米", "cm":
		return ruleOf(0, 999, 1)
	case "米", "m":
		return ruleOf(0, 99.99, 2)
	case "次", "个":
		return ruleOf(0, 9999, 0)
	case "公斤", "kg":
		return ruleOf(0, 999.9, 1)
	case "分":
		return ruleOf(0, 100, 1)
	case "ml", "毫升":
		return ruleOf(0, 9999, 0)
	case "分秒":
		// "M:SS" entries are range-checked in seconds.
		return ruleOf(0, 5999.99, 2)
	default:
		return ruleOf(0, 99999, 2)
	}
}

// ValidateValue checks a measurement against a rule. Time items accept "M:SS"
// text, are range-checked in seconds, and have their decimals counted on the seconds part.
func ValidateValue(v Value, rule ValidationRule, t ValueType) error {
	if !v.IsSet() || (v.IsText() && strings.TrimSpace(v.String()) == "") {
		if rule.Required {
			return fmt.Errorf("%w: value is required", ErrInvalidMeasurement)
		}
		return nil
	}
	n, err := v.Normalize(t)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMeasurement, err)
	}
	if rule.Min != nil && n < *rule.Min {
		return fmt.Errorf("%w: must not be less than %v", ErrInvalidMeasurement, *rule.Min)
	}
	if rule.Max != nil && n > *rule.Max {
		return fmt.Errorf("%w: must not be greater than %v", ErrInvalidMeasurement, *rule.Max)
	}
	if rule.Decimals != nil {
		if d := decimalPlaces(v.String()); d > *rule.Decimals {
			return fmt.Errorf("%w: at most %d decimal places", ErrInvalidMeasurement, *rule.Decimals)
		}
	}
	return nil
}

func decimalPlaces(s string) int {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(strings.TrimSpace(s[i+1:]))
	}
	return 0
}
